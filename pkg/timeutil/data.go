package timeutil

import "time"

// Exponential Backoff parameters
// example:
//
//	initialDuration := 200 * time.Millisecond // first retry waits 200ms
//	multiplier := 2.0                         // double each time
//	maxDuration := 5 * time.Second            // cap at 5s

type BackoffParam struct {
	initialDuration time.Duration
	multiplier      float64
	maxDuration     time.Duration
}

func NewBackoffParam(
	initialDuration time.Duration,
	multiplier float64,
	maxDuration time.Duration,
) BackoffParam {
	return BackoffParam{
		initialDuration: initialDuration,
		multiplier:      multiplier,
		maxDuration:     maxDuration,
	}
}

func (b BackoffParam) InitialDuration() time.Duration {
	return b.initialDuration
}

func (b BackoffParam) Multiplier() float64 {
	return b.multiplier
}

func (b BackoffParam) MaxDuration() time.Duration {
	return b.maxDuration
}
