package logging

import (
	"log/slog"
	"strings"
	"testing"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	result := WithOperation(logger, "test_operation")
	if result == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithComponent(t *testing.T) {
	logger := slog.Default()
	result := WithComponent(logger, "classify")
	if result == nil {
		t.Error("WithComponent returned nil")
	}
}

func TestOperationAttr(t *testing.T) {
	attr := Operation("test_op")
	if attr.Key != KeyOperation {
		t.Errorf("Operation key = %q, want %q", attr.Key, KeyOperation)
	}
	if attr.Value.String() != "test_op" {
		t.Errorf("Operation value = %q, want %q", attr.Value.String(), "test_op")
	}
}

func TestCategoryAttr(t *testing.T) {
	attr := Category("interview_request")
	if attr.Key != KeyCategory {
		t.Errorf("Category key = %q, want %q", attr.Key, KeyCategory)
	}
	if attr.Value.String() != "interview_request" {
		t.Errorf("Category value = %q, want %q", attr.Value.String(), "interview_request")
	}
}

func TestStatusAttr(t *testing.T) {
	attr := Status(StatusSuccess)
	if attr.Key != KeyStatus {
		t.Errorf("Status key = %q, want %q", attr.Key, KeyStatus)
	}
	if attr.Value.String() != StatusSuccess {
		t.Errorf("Status value = %q, want %q", attr.Value.String(), StatusSuccess)
	}
}

func TestErrNil(t *testing.T) {
	attr := Err(nil)
	// Should return an empty group that slog omits
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty", attr.Key)
	}
}

func TestAnonymizeSender(t *testing.T) {
	hash := AnonymizeSender("recruiter@example.com")
	if !strings.HasPrefix(hash, "sender:") {
		t.Errorf("AnonymizeSender = %q, want sender: prefix", hash)
	}
	if strings.Contains(hash, "example.com") {
		t.Error("AnonymizeSender leaked the address")
	}
	if AnonymizeSender("") != "" {
		t.Error("AnonymizeSender(\"\") should be empty")
	}
	// Stable for correlation
	if hash != AnonymizeSender("recruiter@example.com") {
		t.Error("AnonymizeSender is not deterministic")
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
	got := SanitizeToken("secret-token-value")
	if strings.Contains(got, "secret") {
		t.Errorf("SanitizeToken leaked content: %q", got)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"user@example.com", "example.com"},
		{"no-at-sign", ""},
		{"", ""},
		{"a@b@c", ""},
	}
	for _, tt := range tests {
		if got := ExtractDomain(tt.email); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
