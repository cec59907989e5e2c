package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"uploadcheck/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "inspect", "ffprobe", "failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"inspect", "ffprobe", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      string
		retryable bool
	}{
		{"nil", nil, "", false},
		{"configuration", services.Wrap(services.ErrConfiguration, "search", "aither", "missing api key", nil), "configuration", false},
		{"rate limited", services.Wrap(services.ErrRateLimited, "search", "blutopia", "429", nil), "rate_limited", true},
		{"deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), "timeout", true},
		{"plain", errors.New("connection reset"), "transient", true},
		{"not found", services.Wrap(services.ErrNotFound, "identify", "tmdb", "no results", nil), "not_found", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.ErrorKind(tt.err); got != tt.kind {
				t.Fatalf("ErrorKind() = %q, want %q", got, tt.kind)
			}
			if got := services.Retryable(tt.err); got != tt.retryable {
				t.Fatalf("Retryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}
