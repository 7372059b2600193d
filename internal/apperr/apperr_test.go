package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindValidation, http.StatusUnprocessableEntity},
		{KindRateLimitExceeded, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
		{Kind("Unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s.Status() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestAsThroughWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("complete round: %w", Internal("could not save answers", cause))

	e, ok := As(err)
	if !ok {
		t.Fatal("expected *Error in chain")
	}
	if e.Kind != KindInternal {
		t.Errorf("kind = %s", e.Kind)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("unclassified errors should be internal")
	}
}

func TestRateLimited(t *testing.T) {
	e := RateLimited(42)
	if e.RetryAfter != 42 || e.Status() != http.StatusTooManyRequests {
		t.Errorf("got %+v", e)
	}
}

func TestWithDetail(t *testing.T) {
	e := BadRequest("invalid answers").WithDetail("answers", "expected 10 answers, got 9")
	if e.Details["answers"] != "expected 10 answers, got 9" {
		t.Errorf("details = %v", e.Details)
	}
	if e.Message != "invalid answers" {
		t.Errorf("message = %q", e.Message)
	}
}
