package models

import "time"

// Note is a free-text note.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OwnerID    string    `json:"owner_id"`
	SharedWith []string  `json:"shared_with"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (n Note) RowID() string        { return n.ID }
func (n Note) Owner() string        { return n.OwnerID }
func (n Note) Recipients() []string { return n.SharedWith }

type NoteInput struct {
	Title      string   `json:"title" validate:"required,min=1,max=255"`
	Content    string   `json:"content" validate:"max=10000"`
	SharedWith []string `json:"shared_with,omitempty"`
}

func (in NoteInput) Validate() error { return check(in) }

type NotePatch struct {
	Title   *string `json:"title,omitempty" validate:"omitnil,min=1,max=255"`
	Content *string `json:"content,omitempty" validate:"omitnil,max=10000"`
}

func (p NotePatch) Validate() error { return check(p) }

func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}
