package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Operation names recorded by the pipeline.
const (
	OpPageFetch  = "page_fetch"
	OpAudioFetch = "audio_fetch"
	OpResolve    = "resolve"
)

// LatencyTracker tracks latency quantiles per operation using DDSketch.
type LatencyTracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	relativeAccuracy float64
}

// NewLatencyTracker creates a new latency tracker.
// relativeAccuracy determines the accuracy of quantile estimates (e.g., 0.01 = 1% accuracy)
func NewLatencyTracker(relativeAccuracy float64) *LatencyTracker {
	return &LatencyTracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record records a duration for the given operation.
func (lt *LatencyTracker) Record(operation string, duration time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, exists := lt.sketches[operation]
	if !exists {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(lt.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(lt.relativeAccuracy)
		}
		lt.sketches[operation] = sketch
	}

	// milliseconds
	_ = sketch.Add(float64(duration.Microseconds()) / 1000.0)
}

type Stats struct {
	Operation string  `json:"operation"`
	Count     int64   `json:"count"`
	Min       float64 `json:"minMs"`
	P50       float64 `json:"p50Ms"`
	P90       float64 `json:"p90Ms"`
	P99       float64 `json:"p99Ms"`
	Max       float64 `json:"maxMs"`
}

// GetStats returns statistics for the given operation.
func (lt *LatencyTracker) GetStats(operation string) (Stats, error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	return lt.statsLocked(operation)
}

func (lt *LatencyTracker) statsLocked(operation string) (Stats, error) {
	sketch, exists := lt.sketches[operation]
	if !exists {
		return Stats{}, fmt.Errorf("no data for operation: %s", operation)
	}

	count := sketch.GetCount()
	if count == 0 {
		return Stats{Operation: operation}, nil
	}

	min, _ := sketch.GetMinValue()
	p50, _ := sketch.GetValueAtQuantile(0.50)
	p90, _ := sketch.GetValueAtQuantile(0.90)
	p99, _ := sketch.GetValueAtQuantile(0.99)
	max, _ := sketch.GetMaxValue()

	return Stats{
		Operation: operation,
		Count:     int64(count),
		Min:       min,
		P50:       p50,
		P90:       p90,
		P99:       p99,
		Max:       max,
	}, nil
}

// GetAllStats returns statistics for all tracked operations, ordered by name.
func (lt *LatencyTracker) GetAllStats() []Stats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	stats := make([]Stats, 0, len(lt.sketches))
	for operation := range lt.sketches {
		if stat, err := lt.statsLocked(operation); err == nil {
			stats = append(stats, stat)
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Operation < stats[j].Operation })
	return stats
}

func (s Stats) String() string {
	if s.Count == 0 {
		return fmt.Sprintf("  %s: no data", s.Operation)
	}
	return fmt.Sprintf("  %s (n=%d): min=%.2fms p50=%.2fms p90=%.2fms p99=%.2fms max=%.2fms",
		s.Operation, s.Count, s.Min, s.P50, s.P90, s.P99, s.Max)
}
