package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	TableTasks = "tasks"
	TableNotes = "notes"
)

// ChangeType is the kind of row mutation carried by a Change.
type ChangeType string

const (
	Insert ChangeType = "INSERT"
	Update ChangeType = "UPDATE"
	Delete ChangeType = "DELETE"
)

// Change is one row mutation published on the realtime feed. DELETE
// carries the removed row in Old; INSERT and UPDATE carry the row in New.
// Only a share UPDATE sets Old, to the row's previous audience.
type Change struct {
	Table           string          `json:"table"`
	Type            ChangeType      `json:"type"`
	New             json.RawMessage `json:"new,omitempty"`
	Old             json.RawMessage `json:"old,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
}

// RowRef identifies a row and who could see it before a mutation.
type RowRef struct {
	ID         string   `json:"id"`
	OwnerID    string   `json:"owner_id"`
	SharedWith []string `json:"shared_with"`
}

// NewChange encodes newRow and oldRow (either may be nil) into a Change.
func NewChange(table string, typ ChangeType, newRow, oldRow any, at time.Time) (Change, error) {
	c := Change{Table: table, Type: typ, CommitTimestamp: at.UTC()}
	var err error
	if newRow != nil {
		if c.New, err = json.Marshal(newRow); err != nil {
			return Change{}, fmt.Errorf("encode new row: %w", err)
		}
	}
	if oldRow != nil {
		if c.Old, err = json.Marshal(oldRow); err != nil {
			return Change{}, fmt.Errorf("encode old row: %w", err)
		}
	}
	return c, nil
}

// Record returns the row the change is about as a generic map: Old for
// deletes, New otherwise.
func (c Change) Record() (map[string]any, error) {
	raw := c.New
	if c.Type == Delete {
		raw = c.Old
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("change on %s has no %s row", c.Table, c.Type)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", c.Table, err)
	}
	return m, nil
}

// IsKnownTable reports whether table is one of the shared collections.
func IsKnownTable(table string) bool {
	return table == TableTasks || table == TableNotes
}
