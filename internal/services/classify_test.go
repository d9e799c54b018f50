package services

import (
	"net/http"
	"testing"

	"github.com/desertthunder/bpmx/internal/models"
)

func TestClassify(t *testing.T) {
	tt := []struct {
		name    string
		status  int
		body    string
		variant Variant
		kind    models.OutcomeKind
		message string
	}{
		{name: "Success", status: 200, body: `{"bpm":120,"key":"C major"}`, variant: VariantURL, kind: models.OutcomeSuccess},
		{name: "Success Created", status: 201, body: `{"bpm":120}`, variant: VariantUpload, kind: models.OutcomeSuccess},
		{name: "Malformed Success", status: 200, body: `not json`, variant: VariantURL, kind: models.OutcomeServerError, message: InvalidResponseMessage},
		{name: "Missing BPM", status: 200, body: `{"key":"C"}`, variant: VariantURL, kind: models.OutcomeServerError, message: InvalidResponseMessage},
		{name: "Unauthorized", status: http.StatusUnauthorized, body: `{"detail":"expired"}`, variant: VariantUpload, kind: models.OutcomeAuthRejected, message: models.AuthRejectedMessage},
		{name: "Forbidden Default", status: http.StatusForbidden, body: ``, variant: VariantURL, kind: models.OutcomeQuotaExceeded, message: "Daily limit reached"},
		{name: "Forbidden Detail", status: http.StatusForbidden, body: `{"detail":"Upgrade to PRO"}`, variant: VariantUpgrade, kind: models.OutcomeQuotaExceeded, message: "Upgrade to PRO"},
		{name: "Server Error URL", status: 500, body: `{}`, variant: VariantURL, kind: models.OutcomeServerError, message: "Server error"},
		{name: "Server Error Upload", status: 422, body: `{"detail":null}`, variant: VariantUpload, kind: models.OutcomeServerError, message: "Upload analyze error"},
		{name: "Server Error Upgrade", status: 503, body: ``, variant: VariantUpgrade, kind: models.OutcomeServerError, message: "Upgrade error"},
		{name: "Structured Detail", status: 422, body: `{"detail":[{"loc":["body","url"],"msg":"field required"}]}`, variant: VariantURL, kind: models.OutcomeServerError, message: `[{"loc":["body","url"],"msg":"field required"}]`},
		{name: "Upgrade Empty Success", status: 200, body: `{}`, variant: VariantUpgrade, kind: models.OutcomeServerError, message: "Upgrade error"},
		{name: "Upgrade Malformed", status: 200, body: `[`, variant: VariantUpgrade, kind: models.OutcomeServerError, message: InvalidResponseMessage},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.status, []byte(tc.body), tc.variant)
			if got.Kind != tc.kind {
				t.Fatalf("expected kind %v, got %v", tc.kind, got.Kind)
			}
			if tc.message != "" && got.Message != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, got.Message)
			}
		})
	}
}

func TestClassifyPayload(t *testing.T) {
	t.Run("Placeholders", func(t *testing.T) {
		got := Classify(200, []byte(`{"bpm":100,"duration":"","title":"  Song  "}`), VariantUpload)
		r := got.Result
		if r.Key != models.Placeholder || r.Duration != models.Placeholder || r.SampleRate != models.Placeholder {
			t.Errorf("expected placeholders, got %+v", r)
		}
		if got.Title != "Song" {
			t.Errorf("expected trimmed title, got %q", got.Title)
		}
	})

	t.Run("Snake Case Sample Rate", func(t *testing.T) {
		got := Classify(200, []byte(`{"bpm":100,"sample_rate":"48kHz"}`), VariantURL)
		if got.Result.SampleRate != "48kHz" {
			t.Errorf("expected 48kHz, got %q", got.Result.SampleRate)
		}
	})

	t.Run("Fractional BPM", func(t *testing.T) {
		got := Classify(200, []byte(`{"bpm":127.98}`), VariantURL)
		if got.Result.TempoBPM != 127.98 {
			t.Errorf("expected 127.98, got %v", got.Result.TempoBPM)
		}
	})
}

func TestDetail(t *testing.T) {
	tt := []struct {
		body string
		want string
	}{
		{body: `{"detail":"Nope"}`, want: "Nope"},
		{body: `{"detail":42}`, want: "42"},
		{body: `{"detail": {"code": "x"} }`, want: `{"code":"x"}`},
		{body: `{"detail":null}`, want: ""},
		{body: `{}`, want: ""},
		{body: `garbage`, want: ""},
		{body: `[1,2]`, want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.body, func(t *testing.T) {
			if got := Detail([]byte(tc.body)); got != tc.want {
				t.Errorf("Detail(%s) = %q, want %q", tc.body, got, tc.want)
			}
		})
	}
}
