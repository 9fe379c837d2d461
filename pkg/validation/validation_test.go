package validation

import (
	"testing"

	"github.com/anime-shed/visual-pipeline-go/pkg/models"
)

func TestURLValidator_ValidateSourceURL(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		name      string
		url       string
		expectErr bool
	}{
		{"Valid HTTPS URL", "https://example.com/image.jpg", false},
		{"Valid HTTP URL", "http://example.com/photo.png", false},
		{"Empty URL", "", true},
		{"Whitespace URL", "   ", true},
		{"Missing scheme", "example.com/image.jpg", true},
		{"Disallowed scheme", "ftp://example.com/image.jpg", true},
		{"Missing host", "https:///image.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateSourceURL(tt.url)
			if tt.expectErr && err == nil {
				t.Errorf("expected error for %q", tt.url)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tt.url, err)
			}
		})
	}
}

func TestURLValidator_HostAllowlist(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"cdn.example.com"})

	if err := validator.ValidateSourceURL("https://cdn.example.com/a.png"); err != nil {
		t.Errorf("allowed host rejected: %v", err)
	}
	if err := validator.ValidateSourceURL("https://evil.example.com/a.png"); err == nil {
		t.Error("disallowed host accepted")
	}
}

func intPtr(v int) *int { return &v }

func TestParamsValidator_ValidateRequest(t *testing.T) {
	validator := NewParamsValidator()

	tests := []struct {
		name      string
		req       models.AnalyzeRequest
		expectErr bool
	}{
		{"No overrides", models.AnalyzeRequest{URL: "https://example.com/a.png"}, false},
		{"Valid threshold", models.AnalyzeRequest{BinarizeThreshold: intPtr(140)}, false},
		{"Threshold too high", models.AnalyzeRequest{BinarizeThreshold: intPtr(300)}, true},
		{"Threshold negative", models.AnalyzeRequest{BinarizeThreshold: intPtr(-1)}, true},
		{"Valid cluster target", models.AnalyzeRequest{ClusterTarget: intPtr(8)}, false},
		{"Zero cluster target", models.AnalyzeRequest{ClusterTarget: intPtr(0)}, true},
		{"Cluster target too high", models.AnalyzeRequest{ClusterTarget: intPtr(65)}, true},
		{"Valid max side", models.AnalyzeRequest{MaxSide: intPtr(800)}, false},
		{"Max side too small", models.AnalyzeRequest{MaxSide: intPtr(8)}, true},
		{"Max side too large", models.AnalyzeRequest{MaxSide: intPtr(8192)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateRequest(tt.req)
			if tt.expectErr && err == nil {
				t.Error("expected error")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
