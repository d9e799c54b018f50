package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/desertthunder/bpmx/internal/models"
)

// Variant selects the success payload and default error message for [Classify].
type Variant int

const (
	VariantURL Variant = iota
	VariantUpload
	VariantUpgrade
)

// InvalidResponseMessage is reported when a 2xx payload cannot be decoded.
const InvalidResponseMessage = "Invalid response from analysis service"

// DefaultMessage is the server error text used when the response carries no detail.
func (v Variant) DefaultMessage() string {
	switch v {
	case VariantUpload:
		return "Upload analyze error"
	case VariantUpgrade:
		return "Upgrade error"
	default:
		return "Server error"
	}
}

func (v Variant) String() string {
	switch v {
	case VariantUpload:
		return "upload"
	case VariantUpgrade:
		return "upgrade"
	default:
		return "url"
	}
}

// analysisPayload is the wire shape of a successful analysis.
type analysisPayload struct {
	BPM             *float64 `json:"bpm"`
	Key             string   `json:"key"`
	Duration        string   `json:"duration"`
	SampleRate      string   `json:"sampleRate"`
	SampleRateSnake string   `json:"sample_rate"`
	DownloadURL     string   `json:"download_url"`
	Title           string   `json:"title"`
}

type upgradePayload struct {
	AlreadyPro bool   `json:"already_pro"`
	InvoiceURL string `json:"invoice_url"`
}

type errorPayload struct {
	Detail json.RawMessage `json:"detail"`
}

// Classify maps a status code and body to exactly one [models.Outcome].
func Classify(status int, body []byte, variant Variant) models.Outcome {
	switch {
	case status >= 200 && status < 300:
		return classifySuccess(body, variant)
	case status == http.StatusUnauthorized:
		return models.AuthRejected()
	case status == http.StatusForbidden:
		return models.QuotaExceeded(Detail(body))
	default:
		if msg := Detail(body); msg != "" {
			return models.ServerError(msg)
		}
		return models.ServerError(variant.DefaultMessage())
	}
}

func classifySuccess(body []byte, variant Variant) models.Outcome {
	if variant == VariantUpgrade {
		var p upgradePayload
		if err := json.Unmarshal(body, &p); err != nil {
			return models.ServerError(InvalidResponseMessage)
		}
		if !p.AlreadyPro && p.InvoiceURL == "" {
			if msg := Detail(body); msg != "" {
				return models.ServerError(msg)
			}
			return models.ServerError(variant.DefaultMessage())
		}
		return models.Upgraded(models.UpgradeResult{AlreadyPro: p.AlreadyPro, InvoiceURL: p.InvoiceURL})
	}

	var p analysisPayload
	if err := json.Unmarshal(body, &p); err != nil || p.BPM == nil {
		return models.ServerError(InvalidResponseMessage)
	}

	result := models.AnalysisResult{
		TempoBPM:    *p.BPM,
		Key:         orPlaceholder(p.Key),
		Duration:    orPlaceholder(p.Duration),
		SampleRate:  orPlaceholder(p.SampleRate, p.SampleRateSnake),
		DownloadURL: strings.TrimSpace(p.DownloadURL),
	}
	return models.Succeeded(result, strings.TrimSpace(p.Title))
}

// Detail extracts the "detail" field. Non-string values are rendered as compact JSON.
func Detail(body []byte) string {
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil || len(p.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(p.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	if bytes.Equal(bytes.TrimSpace(p.Detail), []byte("null")) {
		return ""
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, p.Detail); err != nil {
		return ""
	}
	return buf.String()
}

func orPlaceholder(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return models.Placeholder
}
