package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrState, http.StatusConflict},
		{ErrEngineBusy, http.StatusConflict},
		{ErrTransport, http.StatusBadGateway},
		{ErrBackend, http.StatusBadGateway},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "x").HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBackendMessageFallback(t *testing.T) {
	if got := Backend("quota exceeded", "fallback").Message; got != "quota exceeded" {
		t.Errorf("Message = %q", got)
	}
	if got := Backend("", "Error generating summary").Message; got != "Error generating summary" {
		t.Errorf("Message = %q", got)
	}
	if got := Backend("", "").Message; got != MsgBackend {
		t.Errorf("Message = %q", got)
	}
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", Transport(fmt.Errorf("connection refused")))
	if !Is(err, ErrTransport) {
		t.Fatalf("expected transport code in chain, got %q", CodeOf(err))
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Fatal("expected empty code for plain error")
	}
}
