package researchlog

import (
	"errors"
	"time"
)

// ErrBadRequest is returned for entries missing a mode.
var ErrBadRequest = errors.New("bad request")

const (
	// DefaultLimit is used when the caller asks for no specific page size.
	DefaultLimit = 20
	// MaxLimit caps a single listing.
	MaxLimit = 100
)

// Entry is one journaled pipeline run.
type Entry struct {
	ID        int64     `json:"id"`
	Mode      string    `json:"mode"`
	Term      string    `json:"term"`
	Provider  string    `json:"provider"`
	Fallback  bool      `json:"fallback"`
	Reason    string    `json:"reason,omitempty"`
	Cached    bool      `json:"cached"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
