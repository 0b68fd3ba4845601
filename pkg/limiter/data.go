package limiter

import (
	"time"

	"golang.org/x/time/rate"
)

// per-host pacing state
type hostState struct {
	limiter      *rate.Limiter
	backoffCount int
	notBefore    time.Time
}

func (h *hostState) BackoffCount() int {
	return h.backoffCount
}

func (h *hostState) NotBefore() time.Time {
	return h.notBefore
}
