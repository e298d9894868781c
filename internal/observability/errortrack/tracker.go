// Package errortrack keeps an in-memory record of application errors
// keyed by a fingerprint, for diagnostics endpoints and optional
// forwarding to an external error-reporting sink.
package errortrack

import (
	"fmt"
	"sync"
	"time"

	"github.com/dcallahan/interaction-management/internal/domain"
)

// Record is one tracked error fingerprint with occurrence data.
type Record struct {
	Fingerprint string           `json:"fingerprint"`
	Kind        domain.ErrorKind `json:"kind"`
	Message     string           `json:"message"`
	Location    string           `json:"location"`
	Count       int64            `json:"count"`
	FirstSeen   time.Time        `json:"first_seen"`
	LastSeen    time.Time        `json:"last_seen"`
	Unhandled   bool             `json:"unhandled"`
}

// Forwarder receives unhandled errors for delivery to an external
// error-tracking service.
type Forwarder interface {
	Forward(record Record)
}

// Tracker is a bounded, mutex-guarded error store. When maxItems is
// exceeded the fingerprint that was first seen longest ago is evicted.
type Tracker struct {
	mu        sync.Mutex
	records   map[string]*Record
	order     []string
	maxItems  int
	forwarder Forwarder
}

func New(maxItems int, forwarder Forwarder) *Tracker {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &Tracker{
		records:   make(map[string]*Record),
		maxItems:  maxItems,
		forwarder: forwarder,
	}
}

// Track records an error occurrence. Location identifies the source of
// the error (handler or service name); unhandled marks errors that
// escaped normal handling and should reach the external sink.
func (t *Tracker) Track(kind domain.ErrorKind, message, location string, unhandled bool) {
	fingerprint := fmt.Sprintf("%s|%s|%s", kind, message, location)
	now := time.Now()

	t.mu.Lock()
	rec, ok := t.records[fingerprint]
	if ok {
		rec.Count++
		rec.LastSeen = now
		if unhandled {
			rec.Unhandled = true
		}
	} else {
		for len(t.records) >= t.maxItems && len(t.order) > 0 {
			oldest := t.order[0]
			t.order = t.order[1:]
			delete(t.records, oldest)
		}
		rec = &Record{
			Fingerprint: fingerprint,
			Kind:        kind,
			Message:     message,
			Location:    location,
			Count:       1,
			FirstSeen:   now,
			LastSeen:    now,
			Unhandled:   unhandled,
		}
		t.records[fingerprint] = rec
		t.order = append(t.order, fingerprint)
	}
	snapshot := *rec
	t.mu.Unlock()

	if unhandled && t.forwarder != nil {
		t.forwarder.Forward(snapshot)
	}
}

// Snapshot returns a copy of all tracked records.
func (t *Tracker) Snapshot() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, 0, len(t.order))
	for _, fp := range t.order {
		if rec, ok := t.records[fp]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Len reports the number of distinct fingerprints currently tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}
