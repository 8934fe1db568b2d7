package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestUpstreamError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("without status", func(t *testing.T) {
		err := NewUpstreamError("adurite", "get", baseErr)

		if err.Error() != "adurite get: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "adurite get: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}

		if err.Status != 0 {
			t.Errorf("Expected zero status, got %d", err.Status)
		}
	})

	t.Run("with status", func(t *testing.T) {
		err := NewUpstreamStatusError("rolimons", "get", 429, errors.New("too many requests"))

		if err.Status != 429 {
			t.Errorf("Expected status 429, got %d", err.Status)
		}
	})

	t.Run("IsUpstream helper", func(t *testing.T) {
		upstream := NewUpstreamError("fx", "decode", baseErr)
		wrapped := fmt.Errorf("refresh failed: %w", upstream)
		plain := errors.New("plain error")

		if !IsUpstream(upstream) {
			t.Error("IsUpstream should return true for upstream error")
		}

		if !IsUpstream(wrapped) {
			t.Error("IsUpstream should return true for wrapped upstream error")
		}

		if IsUpstream(plain) {
			t.Error("IsUpstream should return false for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "port", Err: baseErr}

	expected := "config error [port]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	if !errors.Is(err, baseErr) {
		t.Error("Expected error to wrap baseErr")
	}
}
