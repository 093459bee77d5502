package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Internal("x"), http.StatusInternalServerError},
		{Validation("x"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{RateLimit("x"), http.StatusTooManyRequests},
		{ServiceUnavailable("x"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			if tt.err.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", tt.err.StatusCode, tt.want)
			}
		})
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := NotFoundWrap(cause, "chart not found")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause")
	}
	if err.Error() != "NOT_FOUND: chart not found (caused by: boom)" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWithDetails_Copies(t *testing.T) {
	base := Validation("unknown manager")
	detailed := base.WithDetails("manager %q", "Zed")

	if base.Details != "" {
		t.Error("WithDetails should not modify the receiver")
	}
	if detailed.Details != `manager "Zed"` {
		t.Errorf("Details = %q", detailed.Details)
	}
}

func TestWriteError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, discardLogger(), Validation("bad manager"), "req-1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error.Code != string(CodeValidation) || resp.Error.RequestID != "req-1" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestWriteError_WrappedAppError(t *testing.T) {
	w := httptest.NewRecorder()
	err := fmt.Errorf("handler: %w", NotFound("missing"))
	WriteError(w, discardLogger(), err, "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWriteError_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, discardLogger(), stderrors.New("disk on fire"), "")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, []int{1, 2}, map[string]string{"Cache-Control": "no-store"})

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("custom header not set")
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Error("content type should be JSON")
	}

	var resp SuccessResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFoundWrap(stderrors.New("boom"), "chart not found"))

	if !stderrors.Is(err, NotFound("")) {
		t.Error("errors.Is should match an AppError with the same code")
	}
	if stderrors.Is(err, Validation("")) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestStatusFor_UnknownCode(t *testing.T) {
	if got := StatusFor("TEAPOT"); got != http.StatusInternalServerError {
		t.Errorf("StatusFor(unknown) = %d, want 500", got)
	}
}

func TestWriteError_LeavesSharedErrorUntouched(t *testing.T) {
	shared := ServiceUnavailable("no snapshot yet")
	WriteError(httptest.NewRecorder(), discardLogger(), shared, "req-9")

	if shared.RequestID != "" {
		t.Errorf("RequestID leaked into shared error: %q", shared.RequestID)
	}
}
