// Package reconcile merges realtime change events into a client-held list
// of rows ordered newest first.
//
// Events apply in delivery order. There is no timestamp check, so a late
// UPDATE can overwrite a newer row; there is no version token either, so
// concurrent edits to a shared item resolve as last write wins.
package reconcile

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"todoshare/pkg/models"
)

// Row is a list element addressable by id.
type Row interface {
	RowID() string
}

// Event is a typed change. New is set for inserts and updates; OldID names
// the row removed by a delete.
type Event[T Row] struct {
	Type  models.ChangeType
	New   T
	OldID string
}

// Decode turns a wire change into a typed event.
func Decode[T Row](c models.Change) (Event[T], error) {
	ev := Event[T]{Type: c.Type}
	switch c.Type {
	case models.Insert, models.Update:
		if err := json.Unmarshal(c.New, &ev.New); err != nil {
			return ev, fmt.Errorf("decode %s %s row: %w", c.Table, c.Type, err)
		}
	case models.Delete:
		var old struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(c.Old, &old); err != nil {
			return ev, fmt.Errorf("decode %s delete row: %w", c.Table, err)
		}
		ev.OldID = old.ID
	default:
		return ev, fmt.Errorf("unknown change type %q", c.Type)
	}
	return ev, nil
}

// Apply returns rows with ev merged in:
//   - INSERT prepends the row.
//   - UPDATE replaces the row with the same id; unknown ids are ignored.
//   - DELETE drops the row with the id; unknown ids are ignored.
//
// rows is never modified. When ev changes nothing the input slice is
// returned as is.
func Apply[T Row](rows []T, ev Event[T]) []T {
	switch ev.Type {
	case models.Insert:
		out := make([]T, 0, len(rows)+1)
		out = append(out, ev.New)
		return append(out, rows...)
	case models.Update:
		id := ev.New.RowID()
		i := slices.IndexFunc(rows, func(r T) bool { return r.RowID() == id })
		if i < 0 {
			return rows
		}
		out := slices.Clone(rows)
		out[i] = ev.New
		return out
	case models.Delete:
		if !slices.ContainsFunc(rows, func(r T) bool { return r.RowID() == ev.OldID }) {
			return rows
		}
		return slices.DeleteFunc(slices.Clone(rows), func(r T) bool { return r.RowID() == ev.OldID })
	default:
		return rows
	}
}

// LiveList is a concurrency-safe list kept current by applying events.
type LiveList[T Row] struct {
	mu       sync.RWMutex
	rows     []T
	onChange func([]T)
}

// NewLiveList seeds a list with rows fetched before subscribing.
func NewLiveList[T Row](seed []T) *LiveList[T] {
	return &LiveList[T]{rows: slices.Clone(seed)}
}

// OnChange registers fn to receive a snapshot after every effective change.
func (l *LiveList[T]) OnChange(fn func([]T)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Apply merges ev and reports whether the list changed.
func (l *LiveList[T]) Apply(ev Event[T]) bool {
	l.mu.Lock()
	before := l.rows
	l.rows = Apply(l.rows, ev)
	changed := !sameSlice(before, l.rows)
	fn, snap := l.onChange, l.rows
	l.mu.Unlock()
	if changed && fn != nil {
		fn(slices.Clone(snap))
	}
	return changed
}

// Replace swaps the whole list, e.g. after a refetch.
func (l *LiveList[T]) Replace(rows []T) {
	l.mu.Lock()
	l.rows = slices.Clone(rows)
	fn, snap := l.onChange, l.rows
	l.mu.Unlock()
	if fn != nil {
		fn(slices.Clone(snap))
	}
}

// Snapshot returns a copy of the current rows.
func (l *LiveList[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.rows)
}

func (l *LiveList[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// sameSlice reports whether a and b are the same backing array and length,
// which is how Apply signals a no-op.
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
