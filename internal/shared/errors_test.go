package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAPIError(t *testing.T) {
	t.Run("body text becomes message", func(t *testing.T) {
		err := NewAPIError(http.StatusBadRequest, []byte("bad srt\n"))
		if err.Message != "bad srt" {
			t.Errorf("unexpected message %q", err.Message)
		}
		if !errors.Is(err, ErrAPIRequest) {
			t.Error("APIError should match ErrAPIRequest")
		}
	})

	t.Run("empty body falls back to status text", func(t *testing.T) {
		err := NewAPIError(http.StatusBadGateway, nil)
		if err.Message != "Bad Gateway" {
			t.Errorf("unexpected message %q", err.Message)
		}
	})

	t.Run("json detail", func(t *testing.T) {
		err := NewAPIError(http.StatusUnprocessableEntity, []byte(`{"detail":"duration required"}`))
		if err.Detail() != "duration required" {
			t.Errorf("unexpected detail %q", err.Detail())
		}
	})
}

func TestUserMessage(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "wrapped api error", err: fmt.Errorf("generate: %w", NewAPIError(500, []byte(`{"detail":"render failed"}`))), want: "render failed"},
		{name: "plain error", err: ErrInvalidFile, want: "unsupported file format"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
