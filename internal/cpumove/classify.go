package cpumove

import (
	"errors"
	"net/http"
	"strings"

	"github.com/richlegrande-dot/Chess-sub014/internal/engine"
)

// FailureClass buckets an external engine failure. Only the four
// infrastructure classes are fallback-eligible; anything else is a
// logic failure and must propagate.
type FailureClass string

const (
	FailureNone            FailureClass = ""
	FailureWorkerTimeout   FailureClass = "WORKER_TIMEOUT"
	FailureWorkerCPULimit  FailureClass = "WORKER_CPU_LIMIT"
	FailureNetwork         FailureClass = "NETWORK_ERROR"
	FailureInvalidResponse FailureClass = "INVALID_RESPONSE"
	FailureUnclassified    FailureClass = "UNCLASSIFIED"
)

func (c FailureClass) FallbackEligible() bool {
	switch c {
	case FailureWorkerTimeout, FailureWorkerCPULimit, FailureNetwork, FailureInvalidResponse:
		return true
	}
	return false
}

var timeoutPatterns = []string{
	"timed out",
	"timeout",
	"deadline exceeded",
}

// gatewayPatterns is matched before timeoutPatterns: "gateway timeout"
// wording means an intermediary failed, not that our deadline expired.
var gatewayPatterns = []string{
	"bad gateway",
	"gateway timeout",
}

var networkPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network",
	"broken pipe",
	"eof",
}

var invalidResponsePatterns = []string{
	"invalid response",
	"invalid move",
	"parse",
	"unmarshal",
	"no bestmove",
}

// Classify maps an engine-call error onto a failure class, by HTTP
// status when present and by message wording otherwise.
func Classify(err error) FailureClass {
	if err == nil {
		return FailureNone
	}

	var statusErr *engine.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusServiceUnavailable:
			return FailureWorkerCPULimit
		case http.StatusBadGateway, http.StatusGatewayTimeout:
			return FailureNetwork
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range gatewayPatterns {
		if strings.Contains(msg, pattern) {
			return FailureNetwork
		}
	}
	for _, pattern := range timeoutPatterns {
		if strings.Contains(msg, pattern) {
			return FailureWorkerTimeout
		}
	}
	if strings.Contains(msg, "service unavailable") || strings.Contains(msg, "status 503") {
		return FailureWorkerCPULimit
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(msg, pattern) {
			return FailureNetwork
		}
	}
	for _, pattern := range invalidResponsePatterns {
		if strings.Contains(msg, pattern) {
			return FailureInvalidResponse
		}
	}
	return FailureUnclassified
}
