package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/soundfetch/pkg/timeutil"
	"golang.org/x/time/rate"
)

// HostLimiter paces outbound requests per host.
// Responsibilities:
// - Hand out request tokens per host from a token bucket
// - Hold a host back after it signalled overload (429/5xx) using exponential backoff
// - Stay safe for concurrent use by many resolvers
type HostLimiter struct {
	mu           sync.Mutex
	limit        rate.Limit
	burst        int
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	rng          *rand.Rand
	hosts        map[string]*hostState
}

// NewHostLimiter allows perSecond requests per host with the given burst.
// perSecond <= 0 disables token pacing; backoff still applies.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limit:        limit,
		burst:        burst,
		backoffParam: timeutil.NewBackoffParam(1*time.Second, 2.0, 30*time.Second),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		hosts:        make(map[string]*hostState),
	}
}

func (h *HostLimiter) SetBackoffParam(param timeutil.BackoffParam) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.backoffParam = param
}

func (h *HostLimiter) SetJitter(jitter time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jitter = jitter
}

func (h *HostLimiter) SetRandomSeed(seed int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rng = rand.New(rand.NewSource(seed))
}

// caller must hold h.mu
func (h *HostLimiter) state(host string) *hostState {
	s, ok := h.hosts[host]
	if !ok {
		s = &hostState{limiter: rate.NewLimiter(h.limit, h.burst)}
		h.hosts[host] = s
	}
	return s
}

// Wait blocks until host may be contacted again or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	h.mu.Lock()
	s := h.state(host)
	lim := s.limiter
	notBefore := s.notBefore
	h.mu.Unlock()

	if delay := time.Until(notBefore); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lim.Wait(ctx)
}

// Backoff records an overload signal from host and returns the hold-off applied.
func (h *HostLimiter) Backoff(host string) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.state(host)
	s.backoffCount++
	delay := timeutil.ExponentialBackoffDelay(s.backoffCount, h.jitter, h.rng, h.backoffParam)
	s.notBefore = time.Now().Add(delay)
	return delay
}

// ResetBackoff clears the hold-off after a successful exchange with host.
func (h *HostLimiter) ResetBackoff(host string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.hosts[host]; ok {
		s.backoffCount = 0
		s.notBefore = time.Time{}
	}
}

// BackoffCount returns how many consecutive overload signals host has produced.
func (h *HostLimiter) BackoffCount(host string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.hosts[host]; ok {
		return s.BackoffCount()
	}
	return 0
}
