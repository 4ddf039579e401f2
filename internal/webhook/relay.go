package webhook

import (
	"encoding/json"
	"sync"
	"time"
)

// Slot holds the single most recent webhook payload. The relay is a demo
// convenience: there is exactly one global slot, and a new delivery replaces
// whatever was there.
type Slot struct {
	mu        sync.RWMutex
	payload   json.RawMessage
	updatedAt time.Time
}

func NewSlot() *Slot {
	return &Slot{}
}

// Set replaces the stored payload and stamps the server-side receive time.
func (s *Slot) Set(payload json.RawMessage) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = payload
	s.updatedAt = time.Now()
	return s.updatedAt
}

// Get returns the stored payload and its receive time. ok is false when no
// delivery has arrived yet.
func (s *Slot) Get() (json.RawMessage, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.payload == nil {
		return nil, time.Time{}, false
	}
	return s.payload, s.updatedAt, true
}

// SamplePayload is the canned delivery seeded by the test endpoint so the
// frontend can be exercised without a live sender.
func SamplePayload() json.RawMessage {
	sample := map[string]any{
		"event": "analysis.completed",
		"data": map[string]any{
			"vendors":   3,
			"pastSpend": 125000.0,
			"potentialSavings": map[string]any{
				"min": 12500.0,
				"max": 25000.0,
			},
		},
	}
	raw, _ := json.Marshal(sample)
	return raw
}
