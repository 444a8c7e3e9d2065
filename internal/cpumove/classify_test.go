package cpumove

import (
	"errors"
	"fmt"
	"testing"

	"github.com/richlegrande-dot/Chess-sub014/internal/engine"
)

func TestClassifyNilError(t *testing.T) {
	if got := Classify(nil); got != FailureNone {
		t.Fatalf("expected no class for nil error, got %s", got)
	}
}

func TestClassifyByMessage(t *testing.T) {
	cases := []struct {
		err  error
		want FailureClass
	}{
		{errors.New("engine: analysis timed out after 2000ms: context deadline exceeded"), FailureWorkerTimeout},
		{errors.New("context deadline exceeded"), FailureWorkerTimeout},
		{errors.New("Post \"http://engine/analyze\": dial tcp: connection refused"), FailureNetwork},
		{errors.New("unexpected EOF"), FailureNetwork},
		{errors.New("upstream returned 504 gateway timeout"), FailureNetwork},
		{errors.New("upstream returned 502 bad gateway"), FailureNetwork},
		{errors.New("engine: invalid response: missing best move"), FailureInvalidResponse},
		{errors.New("json: cannot unmarshal string into Go value"), FailureInvalidResponse},
		{errors.New("engine returned status 503"), FailureWorkerCPULimit},
		{errors.New("illegal move requested"), FailureUnclassified},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%q): expected %s, got %s", tc.err, tc.want, got)
		}
	}
}

func TestClassifyByStatusCode(t *testing.T) {
	cases := []struct {
		code int
		want FailureClass
	}{
		{503, FailureWorkerCPULimit},
		{502, FailureNetwork},
		{504, FailureNetwork},
	}
	for _, tc := range cases {
		err := fmt.Errorf("engine call failed: %w", &engine.StatusError{Code: tc.code})
		if got := Classify(err); got != tc.want {
			t.Fatalf("status %d: expected %s, got %s", tc.code, tc.want, got)
		}
	}
}

func TestFallbackEligibility(t *testing.T) {
	eligible := []FailureClass{FailureWorkerTimeout, FailureWorkerCPULimit, FailureNetwork, FailureInvalidResponse}
	for _, class := range eligible {
		if !class.FallbackEligible() {
			t.Fatalf("expected %s to be fallback eligible", class)
		}
	}
	for _, class := range []FailureClass{FailureNone, FailureUnclassified} {
		if class.FallbackEligible() {
			t.Fatalf("expected %s to not be fallback eligible", class)
		}
	}
}
