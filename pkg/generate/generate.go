// Package generate produces synthetic traffic records for exercising
// limiters through the replay machinery without capturing real traffic.
package generate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/limitr/limitr/internal/recorder"
)

const (
	// PatternSteady spreads requests evenly over the duration.
	PatternSteady = "steady"
	// PatternBurst clusters requests into bursts with quiet gaps.
	PatternBurst = "burst"
	// PatternRamp increases request density over time.
	PatternRamp = "ramp"
)

// DefaultEndpoints is the endpoint pool used when Options.Endpoints is empty.
var DefaultEndpoints = []string{
	"GET /api/users",
	"GET /api/items",
	"POST /api/events",
	"GET /api/search",
	"PUT /api/settings",
}

// Options controls traffic generation.
type Options struct {
	Count     int           // total records
	Keys      int           // number of distinct caller keys
	Duration  time.Duration // time span the records cover
	Pattern   string        // steady, burst, or ramp
	Start     time.Time     // first timestamp (zero = now)
	Seed      int64         // RNG seed (0 = time-derived)
	Endpoints []string
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		Count:    100,
		Keys:     3,
		Duration: 5 * time.Minute,
		Pattern:  PatternSteady,
	}
}

// Traffic creates synthetic traffic records described by opts.
func Traffic(opts Options) ([]recorder.TrafficRecord, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", opts.Count)
	}
	if opts.Keys <= 0 {
		return nil, fmt.Errorf("keys must be positive, got %d", opts.Keys)
	}
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %s", opts.Duration)
	}

	if opts.Pattern == "" {
		opts.Pattern = PatternSteady
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().Truncate(time.Second)
	}
	if len(opts.Endpoints) == 0 {
		opts.Endpoints = DefaultEndpoints
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	keys := callerKeys(opts.Keys)

	switch opts.Pattern {
	case PatternBurst:
		return burst(rng, opts, keys), nil
	case PatternRamp:
		return ramp(rng, opts, keys), nil
	case PatternSteady:
		return steady(rng, opts, keys), nil
	default:
		return nil, fmt.Errorf("unknown pattern %q, must be one of: steady, burst, ramp", opts.Pattern)
	}
}

func callerKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("user-%d", i+1)
	}
	return keys
}

func steady(rng *rand.Rand, opts Options, keys []string) []recorder.TrafficRecord {
	interval := opts.Duration / time.Duration(opts.Count)
	records := make([]recorder.TrafficRecord, opts.Count)
	for i := range records {
		records[i] = recorder.TrafficRecord{
			Timestamp: opts.Start.Add(time.Duration(i) * interval),
			Key:       keys[rng.Intn(len(keys))],
			Endpoint:  opts.Endpoints[rng.Intn(len(opts.Endpoints))],
		}
	}
	return records
}

func burst(rng *rand.Rand, opts Options, keys []string) []recorder.TrafficRecord {
	const numBursts = 4
	records := make([]recorder.TrafficRecord, 0, opts.Count)
	burstSize := opts.Count / numBursts
	burstGap := opts.Duration / numBursts

	for b := 0; b < numBursts; b++ {
		burstStart := opts.Start.Add(time.Duration(b) * burstGap)
		for i := 0; i < burstSize; i++ {
			offset := time.Duration(rng.Intn(1000)) * time.Millisecond
			records = append(records, recorder.TrafficRecord{
				Timestamp: burstStart.Add(offset),
				Key:       keys[rng.Intn(len(keys))],
				Endpoint:  opts.Endpoints[rng.Intn(len(opts.Endpoints))],
			})
		}
	}

	// Rounding can leave a remainder; scatter it across the full span.
	for len(records) < opts.Count {
		records = append(records, recorder.TrafficRecord{
			Timestamp: opts.Start.Add(time.Duration(rng.Int63n(int64(opts.Duration)))),
			Key:       keys[rng.Intn(len(keys))],
			Endpoint:  opts.Endpoints[rng.Intn(len(opts.Endpoints))],
		})
	}

	return records
}

func ramp(rng *rand.Rand, opts Options, keys []string) []recorder.TrafficRecord {
	records := make([]recorder.TrafficRecord, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		frac := float64(i) / float64(opts.Count)
		t := opts.Start.Add(time.Duration(frac * frac * float64(opts.Duration)))
		records = append(records, recorder.TrafficRecord{
			Timestamp: t,
			Key:       keys[rng.Intn(len(keys))],
			Endpoint:  opts.Endpoints[rng.Intn(len(opts.Endpoints))],
		})
	}
	return records
}
