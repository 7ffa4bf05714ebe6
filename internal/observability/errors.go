package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/baxromumarov/job-alerts/internal/httpx"
	"github.com/baxromumarov/job-alerts/internal/store"
)

const (
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorRobots    = "robots"
	ErrorStore     = "store"
	ErrorNotify    = "notify"
	ErrorUnknown   = "unknown"
)

func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if errors.Is(err, httpx.ErrBlockedByRobots) {
		return ErrorRobots
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == http.StatusTooManyRequests:
			return ErrorRateLimit
		case fe.Err != nil && strings.Contains(fe.Err.Error(), "decode failed"):
			return ErrorParsing
		default:
			return ErrorNetwork
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// ClassifyError maps any poller error onto a metrics label.
func ClassifyError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if errors.Is(err, store.ErrStoreUnavailable) {
		return ErrorStore
	}
	return ClassifyFetchError(err)
}
