package replay

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/limitr/limitr/internal/recorder"
	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
)

// Replayer pushes recorded traffic through a per-key limiter pool, advancing
// a virtual clock by the gaps between record timestamps. Virtual time is what
// the limiters see, so a day of traffic replays in milliseconds unless wall
// pacing is requested.
type Replayer struct {
	records []recorder.TrafficRecord
	pool    *limiter.Keyed
	clock   *clock.VirtualClock
	filter  Filter
	pacer   *rate.Limiter // nil = no wall pacing
}

// Result captures the outcome of replaying a single record.
type Result struct {
	Record   recorder.TrafficRecord `json:"record"`
	Decision limiter.Decision       `json:"decision"`
	Time     time.Time              `json:"time"` // virtual time of the decision
}

// Summary aggregates replay statistics.
type Summary struct {
	TotalRecords int                   `json:"total_records"`
	Filtered     int                   `json:"filtered"`
	Replayed     int                   `json:"replayed"`
	Allowed      int                   `json:"allowed"`
	Denied       int                   `json:"denied"`
	Duration     time.Duration         `json:"duration"`      // virtual time span
	WallDuration time.Duration         `json:"wall_duration"` // actual wall clock time
	PerKey       map[string]KeySummary `json:"per_key"`
}

// KeySummary has per-key stats.
type KeySummary struct {
	Allowed int `json:"allowed"`
	Denied  int `json:"denied"`
}

// New creates a replayer. maxRPS caps how many records are replayed per
// wall-clock second; 0 means replay as fast as possible.
func New(pool *limiter.Keyed, vc *clock.VirtualClock, maxRPS float64, filter Filter) *Replayer {
	r := &Replayer{
		pool:   pool,
		clock:  vc,
		filter: filter,
	}
	if maxRPS > 0 {
		r.pacer = rate.NewLimiter(rate.Limit(maxRPS), 1)
	}
	return r
}

// Load reads traffic records from a JSON reader.
func (r *Replayer) Load(reader io.Reader) error {
	records, err := recorder.LoadJSON(reader)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	r.records = records
	return nil
}

// LoadRecords sets the records directly.
func (r *Replayer) LoadRecords(records []recorder.TrafficRecord) {
	r.records = make([]recorder.TrafficRecord, len(records))
	copy(r.records, records)
}

// Run replays all loaded records in timestamp order.
// The callback is called for each replayed record with its decision.
// Returns a summary of the replay.
func (r *Replayer) Run(ctx context.Context, cb func(Result)) (*Summary, error) {
	if len(r.records) == 0 {
		return nil, fmt.Errorf("no records loaded")
	}

	sorted := make([]recorder.TrafficRecord, len(r.records))
	copy(sorted, r.records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var filtered []recorder.TrafficRecord
	for _, rec := range sorted {
		if r.filter.Match(rec) {
			filtered = append(filtered, rec)
		}
	}

	summary := &Summary{
		TotalRecords: len(sorted),
		Filtered:     len(filtered),
		PerKey:       make(map[string]KeySummary),
	}
	if len(filtered) == 0 {
		return summary, nil
	}

	wallStart := time.Now()
	baseTime := filtered[0].Timestamp

	for i, rec := range filtered {
		if r.pacer != nil {
			if err := r.pacer.Wait(ctx); err != nil {
				return summary, err
			}
		} else {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			default:
			}
		}

		// Advance virtual time by the gap from the previous record so the
		// limiters observe the recording's original cadence.
		if i > 0 {
			gap := rec.Timestamp.Sub(filtered[i-1].Timestamp)
			if gap > 0 {
				r.clock.Advance(gap)
			}
		}

		decision := r.pool.Allow(ctx, rec.Key)
		result := Result{
			Record:   rec,
			Decision: decision,
			Time:     r.clock.Now(),
		}

		summary.Replayed++
		if decision.Allowed {
			summary.Allowed++
		} else {
			summary.Denied++
		}
		ks := summary.PerKey[rec.Key]
		if decision.Allowed {
			ks.Allowed++
		} else {
			ks.Denied++
		}
		summary.PerKey[rec.Key] = ks

		if cb != nil {
			cb(result)
		}
	}

	lastTime := filtered[len(filtered)-1].Timestamp
	summary.Duration = lastTime.Sub(baseTime)
	summary.WallDuration = time.Since(wallStart)

	return summary, nil
}
