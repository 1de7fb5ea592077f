package models

import (
	"bytes"
	"encoding/json"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task represents a todo item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	OwnerID     string     `json:"owner_id"`
	SharedWith  []string   `json:"shared_with"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Task) RowID() string        { return t.ID }
func (t Task) Owner() string        { return t.OwnerID }
func (t Task) Recipients() []string { return t.SharedWith }

// IsOverdue reports whether the task is past due and not completed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// TaskInput is the create payload. Status defaults to pending.
type TaskInput struct {
	Title       string     `json:"title" validate:"required,min=1,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitnil,max=1000"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    Priority   `json:"priority" validate:"required,oneof=low medium high"`
	SharedWith  []string   `json:"shared_with,omitempty"`
}

func (in TaskInput) Validate() error { return check(in) }

// WithDefaults fills in the status when the caller left it empty.
func (in TaskInput) WithDefaults() TaskInput {
	if in.Status == "" {
		in.Status = StatusPending
	}
	return in
}

// TaskPatch is a partial update. Nil fields are left untouched; the
// shared-with list is only changed by a share. Description and due date
// are nullable: ClearDescription and ClearDueDate set them to NULL and
// travel on the wire as an explicit JSON null. A clear wins over a value.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty" validate:"omitnil,min=1,max=255"`
	Description *string     `json:"description,omitempty" validate:"omitnil,max=1000"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	Status      *TaskStatus `json:"status,omitempty" validate:"omitnil,oneof=pending in_progress completed"`
	Priority    *Priority   `json:"priority,omitempty" validate:"omitnil,oneof=low medium high"`

	ClearDescription bool `json:"-"`
	ClearDueDate     bool `json:"-"`
}

// taskPatchFields has TaskPatch's fields without its JSON methods.
type taskPatchFields TaskPatch

func (p TaskPatch) Validate() error { return check(p) }

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Status == nil && p.Priority == nil &&
		!p.ClearDescription && !p.ClearDueDate
}

// UnmarshalJSON records an explicit null for description or due_date as a
// clear. An absent key leaves the field untouched.
func (p *TaskPatch) UnmarshalJSON(b []byte) error {
	var f taskPatchFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	*p = TaskPatch(f)
	p.ClearDescription = isNull(keys["description"])
	p.ClearDueDate = isNull(keys["due_date"])
	return nil
}

func (p TaskPatch) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(taskPatchFields(p))
	if err != nil || (!p.ClearDescription && !p.ClearDueDate) {
		return b, err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, err
	}
	if p.ClearDescription {
		keys["description"] = json.RawMessage("null")
	}
	if p.ClearDueDate {
		keys["due_date"] = json.RawMessage("null")
	}
	return json.Marshal(keys)
}

func isNull(raw json.RawMessage) bool {
	return raw != nil && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
