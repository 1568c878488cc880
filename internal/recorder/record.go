package recorder

import (
	"time"

	"github.com/limitr/limitr/pkg/limiter"
)

// TrafficRecord is a single captured request.
type TrafficRecord struct {
	ID        string            `json:"id,omitempty"` // assigned on capture if empty
	Timestamp time.Time         `json:"timestamp"`
	Key       string            `json:"key"`      // user ID, API key, IP, ...
	Endpoint  string            `json:"endpoint"` // e.g. "GET /api/users"
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// DecisionEvent pairs a traffic record with the admission decision it
// produced. Streamed to websocket clients and emitted by replay.
type DecisionEvent struct {
	Record   TrafficRecord    `json:"record"`
	Decision limiter.Decision `json:"decision"`
	Time     time.Time        `json:"time"`
}
