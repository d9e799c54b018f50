package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Endpoint paths.
const (
	PathAnalyze       = "/analyze"
	PathAnalyzeUpload = "/analyze-upload"
	PathUpgrade       = "/payments/create"
	PathLogin         = "/auth/login"
	PathRegister      = "/auth/register"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// AnalysisClient issues analysis, upgrade and authentication requests.
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewAnalysisClient creates a client for the service at baseURL.
// A nil client uses [http.DefaultClient].
func NewAnalysisClient(baseURL string, client *http.Client, logger *log.Logger) *AnalysisClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &AnalysisClient{baseURL: baseURL, httpClient: client, logger: logger}
}

// BaseURL returns the normalized service root.
func (c *AnalysisClient) BaseURL() string { return c.baseURL }

// APIResponse is a raw response with its status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	RequestID  string
	Elapsed    time.Duration
}

// AnalyzeURL submits a media locator for analysis.
func (c *AnalysisClient) AnalyzeURL(ctx context.Context, session models.Session, url string) models.Outcome {
	data, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return models.ServerError(fmt.Sprintf("failed to encode request: %v", err))
	}

	return c.dispatch(ctx, &session, PathAnalyze, "application/json", bytes.NewReader(data), VariantURL)
}

// AnalyzeUpload submits file content as the multipart field "file".
func (c *AnalysisClient) AnalyzeUpload(ctx context.Context, session models.Session, upload models.Upload) models.Outcome {
	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return models.ServerError(fmt.Sprintf("Could not read file: %v", err))
	}

	return c.dispatch(ctx, &session, PathAnalyzeUpload, contentType, body, VariantUpload)
}

// RequestUpgrade asks the billing service to move the account to plan.
func (c *AnalysisClient) RequestUpgrade(ctx context.Context, session models.Session, plan models.Plan) models.Outcome {
	data, err := json.Marshal(map[string]string{"plan": plan.String()})
	if err != nil {
		return models.ServerError(fmt.Sprintf("failed to encode request: %v", err))
	}

	return c.dispatch(ctx, &session, PathUpgrade, "application/json", bytes.NewReader(data), VariantUpgrade)
}

func (c *AnalysisClient) dispatch(ctx context.Context, session *models.Session, path, contentType string, body io.Reader, variant Variant) models.Outcome {
	resp, err := c.Post(ctx, session, path, contentType, body)
	if err != nil {
		c.logger.Error("request failed", "path", path, "error", err)
		return models.NetworkFailure(err)
	}

	outcome := Classify(resp.StatusCode, resp.Body, variant)
	c.logger.Info("request complete",
		"path", path,
		"status", resp.StatusCode,
		"outcome", outcome.Kind,
		"request_id", resp.RequestID,
		"elapsed", resp.Elapsed.Round(time.Millisecond),
	)
	return outcome
}

// Post sends body to path. A non-nil session attaches its token as a bearer credential.
// Only transport and body read failures are returned as errors; any status is a response.
func (c *AnalysisClient) Post(ctx context.Context, session *models.Session, path, contentType string, body io.Reader) (*APIResponse, error) {
	fullURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	c.logger.Debug("sending request", "path", path, "request_id", requestID, "authenticated", session != nil)

	start := time.Now()
	resp, err := c.clientFor(session).Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
		RequestID:  requestID,
		Elapsed:    time.Since(start),
	}, nil
}

// clientFor wraps the configured transport with the session's bearer token.
func (c *AnalysisClient) clientFor(session *models.Session) *http.Client {
	if session == nil {
		return c.httpClient
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: session.Token, TokenType: "Bearer"})
	return &http.Client{
		Transport:     &oauth2.Transport{Source: src, Base: c.httpClient.Transport},
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
		Timeout:       c.httpClient.Timeout,
	}
}

func encodeUpload(upload models.Upload) (io.Reader, string, error) {
	if upload.Content == nil {
		return nil, "", fmt.Errorf("%w: upload has no content", shared.ErrMissingArgument)
	}

	name := upload.Name
	if name == "" {
		name = "upload"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
