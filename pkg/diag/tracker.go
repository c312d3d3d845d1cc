package diag

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

// KindStats is the per-kind view exposed by Tracker.Snapshot.
type KindStats struct {
	ID         protocol.PacketID `json:"id"`
	Kind       string            `json:"kind"`
	Decoded    uint64            `json:"decoded"`
	Dropped    uint64            `json:"dropped"`
	FirstSeen  time.Time         `json:"first_seen"`
	LastSeen   time.Time         `json:"last_seen"`
	LastReason string            `json:"last_reason,omitempty"`
	LastError  string            `json:"last_error,omitempty"`
}

// Tracker owns the set of packet kinds seen so far along with decode
// counters. It implements protocol.Diagnostics.
type Tracker struct {
	mu    sync.Mutex
	kinds map[protocol.PacketID]*KindStats
	log   *zap.Logger
	now   func() time.Time
}

type TrackerOption func(*Tracker)

func WithTrackerLogger(l *zap.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		kinds: make(map[protocol.PacketID]*KindStats),
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Decoded(id protocol.PacketID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.entry(id)
	s.Decoded++
}

func (t *Tracker) Dropped(id protocol.PacketID, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.entry(id)
	s.Dropped++
	s.LastReason = protocol.Reason(err)
	if err != nil {
		s.LastError = err.Error()
	}
}

// entry must be called with mu held.
func (t *Tracker) entry(id protocol.PacketID) *KindStats {
	now := t.now()
	s, ok := t.kinds[id]
	if !ok {
		s = &KindStats{ID: id, Kind: id.String(), FirstSeen: now}
		t.kinds[id] = s
		t.log.Info("new packet kind", zap.Stringer("kind", id), zap.Uint8("id", uint8(id)))
	}
	s.LastSeen = now
	return s
}

// Seen reports whether any datagram of kind id has been observed.
func (t *Tracker) Seen(id protocol.PacketID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.kinds[id]
	return ok
}

// Snapshot returns a copy of all stats ordered by packet id.
func (t *Tracker) Snapshot() []KindStats {
	t.mu.Lock()
	out := make([]KindStats, 0, len(t.kinds))
	for _, s := range t.kinds {
		out = append(out, *s)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
