// Package realtime fans row changes out to the streams of connected clients.
package realtime

import (
	"context"
	"sync"

	"todoshare/pkg/logger"
	"todoshare/pkg/models"
)

// Subscription receives the changes of one table that match its filter, in
// broadcast order. C is closed when the subscription ends.
type Subscription struct {
	C <-chan models.Change

	id     uint64
	hub    *Hub
	ch     chan models.Change
	table  string
	filter Filter
	userID string
	once   sync.Once
}

func (s *Subscription) Table() string  { return s.table }
func (s *Subscription) Filter() Filter { return s.filter }
func (s *Subscription) UserID() string { return s.userID }

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub is the per-process registry of live subscriptions.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
}

// NewHub creates a hub whose subscriptions buffer up to buffer changes.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[uint64]*Subscription), buffer: buffer}
}

// Subscribe registers interest in table changes matching f on behalf of userID.
func (h *Hub) Subscribe(userID, table string, f Filter) *Subscription {
	ch := make(chan models.Change, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	s := &Subscription{
		C:      ch,
		id:     h.nextID,
		hub:    h,
		ch:     ch,
		table:  table,
		filter: f,
		userID: userID,
	}
	h.subs[s.id] = s
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *Subscription) {
	s.once.Do(func() {
		delete(h.subs, s.id)
		close(s.ch)
	})
}

// Broadcast delivers c to every matching subscription. A subscriber whose
// buffer is full is closed rather than allowed to miss changes silently;
// its client reconnects and refetches.
func (h *Hub) Broadcast(ctx context.Context, c models.Change) int {
	var (
		rec     map[string]any
		recErr  error
		decoded bool
	)
	record := func() (map[string]any, error) {
		if !decoded {
			rec, recErr = c.Record()
			decoded = true
		}
		return rec, recErr
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for _, s := range h.subs {
		if s.table != c.Table || !s.filter.matchLazy(record) {
			continue
		}
		select {
		case s.ch <- c:
			delivered++
		default:
			logger.Warn(ctx, "Realtime subscriber too slow; closing", "table", s.table, "user_id", s.userID)
			h.removeLocked(s)
		}
	}
	return delivered
}

// CloseUser ends every subscription held by userID (sign-out) and returns
// how many were closed.
func (h *Hub) CloseUser(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, s := range h.subs {
		if s.userID == userID {
			h.removeLocked(s)
			n++
		}
	}
	return n
}

// CloseAll ends every subscription, e.g. at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		h.removeLocked(s)
	}
}

// Len is the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
