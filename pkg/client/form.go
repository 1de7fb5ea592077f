package client

import (
	"context"
	"fmt"
)

// FormKind tells which operation a form submits.
type FormKind int

const (
	FormCreate FormKind = iota
	FormEdit
)

func (k FormKind) String() string {
	switch k {
	case FormCreate:
		return "create"
	case FormEdit:
		return "edit"
	default:
		return fmt.Sprintf("FormKind(%d)", int(k))
	}
}

// FormMode is the state of an item form: a create form carries the new
// item's input, an edit form the id and the patch. The zero value is an
// empty create form.
type FormMode[C, P any] struct {
	kind  FormKind
	id    string
	input C
	patch P
}

func CreateForm[C, P any](in C) FormMode[C, P] {
	return FormMode[C, P]{kind: FormCreate, input: in}
}

func EditForm[C, P any](id string, patch P) FormMode[C, P] {
	return FormMode[C, P]{kind: FormEdit, id: id, patch: patch}
}

func (m FormMode[C, P]) Kind() FormKind { return m.kind }

// ID is the edited item's id, empty for a create form.
func (m FormMode[C, P]) ID() string { return m.id }

func (m FormMode[C, P]) Input() (C, bool) { return m.input, m.kind == FormCreate }
func (m FormMode[C, P]) Patch() (P, bool) { return m.patch, m.kind == FormEdit }

// Submit creates or updates according to the form mode.
func (c *Collection[T, C, P]) Submit(ctx context.Context, m FormMode[C, P]) (T, error) {
	if m.kind == FormEdit {
		return c.Update(ctx, m.id, m.patch)
	}
	return c.Create(ctx, m.input)
}
