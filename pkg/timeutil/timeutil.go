package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest of durations, or 0 for an empty slice.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	longest := durations[0]
	for _, d := range durations[1:] {
		if d > longest {
			longest = d
		}
	}
	return longest
}

// ComputeJitter returns a uniformly distributed duration in [0, max).
// Non-positive max yields 0.
func ComputeJitter(max time.Duration, rng *rand.Rand) time.Duration {
	if max <= 0 || rng == nil {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes initial * multiplier^(count-1), capped at
// the configured maximum, plus jitter in [0, jitter).
// Counts below 1 are treated as the first backoff.
func ExponentialBackoffDelay(
	backoffCount int,
	jitter time.Duration,
	rng *rand.Rand,
	param BackoffParam,
) time.Duration {
	if backoffCount < 1 {
		backoffCount = 1
	}

	exponent := float64(backoffCount - 1)
	delay := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), exponent)
	if maxDelay := float64(param.MaxDuration()); maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	}

	return time.Duration(delay) + ComputeJitter(jitter, rng)
}
