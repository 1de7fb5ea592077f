package testutil

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"todoshare/pkg/apperr"
	"todoshare/pkg/models"
	"todoshare/pkg/sharing"
)

// Row is what a Store keeps: an addressable, shareable item.
type Row interface {
	sharing.Item
	RowID() string
}

// Validator is implemented by create inputs and patches.
type Validator interface {
	Validate() error
}

// Store is an in-memory collection with repository semantics.
type Store[T Row, C, P Validator] struct {
	mu     sync.Mutex
	entity string
	rows   []T
	fail   map[apperr.Kind]error
	last   time.Time

	build   func(id, owner string, in C, now time.Time) T
	patch   func(row T, p P, now time.Time) T
	reshare func(row T, ids []string, now time.Time) T
	order   func(a, b T) int
}

// FailOn makes every later operation of kind fail with err. A nil err clears it.
func (s *Store[T, C, P]) FailOn(kind apperr.Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, kind)
		return
	}
	s.fail[kind] = err
}

// Rows returns every stored row regardless of visibility.
func (s *Store[T, C, P]) Rows() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

// now returns a timestamp strictly after the previous one.
func (s *Store[T, C, P]) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store[T, C, P]) failure(kind apperr.Kind) error {
	if err := s.fail[kind]; err != nil {
		return apperr.New(kind, s.entity, err)
	}
	return nil
}

func (s *Store[T, C, P]) index(id string) int {
	return slices.IndexFunc(s.rows, func(r T) bool { return r.RowID() == id })
}

func (s *Store[T, C, P]) List(_ context.Context, userID string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(apperr.Fetch); err != nil {
		return nil, err
	}
	out := sharing.Filter(s.rows, userID, sharing.Visible)
	slices.SortStableFunc(out, s.order)
	return out, nil
}

func (s *Store[T, C, P]) Create(_ context.Context, ownerID string, in C) (T, error) {
	var zero T
	if err := in.Validate(); err != nil {
		return zero, apperr.New(apperr.Create, s.entity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(apperr.Create); err != nil {
		return zero, err
	}
	row := s.build(uuid.NewString(), ownerID, in, s.now())
	s.rows = append([]T{row}, s.rows...)
	return row, nil
}

func (s *Store[T, C, P]) Update(_ context.Context, userID, id string, p P) (T, error) {
	var zero T
	if err := p.Validate(); err != nil {
		return zero, apperr.New(apperr.Update, s.entity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(apperr.Update); err != nil {
		return zero, err
	}
	i := s.index(id)
	if i < 0 || !sharing.Visible(s.rows[i], userID) {
		return zero, apperr.New(apperr.Update, s.entity, apperr.ErrNotFound)
	}
	s.rows[i] = s.patch(s.rows[i], p, s.now())
	return s.rows[i], nil
}

func (s *Store[T, C, P]) Delete(_ context.Context, userID, id string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(apperr.Delete); err != nil {
		return nil, err
	}
	i := s.index(id)
	if i < 0 || s.rows[i].Owner() != userID {
		return nil, nil
	}
	row := s.rows[i]
	s.rows = slices.Delete(s.rows, i, i+1)
	return &row, nil
}

func (s *Store[T, C, P]) Share(_ context.Context, ownerID, id string, userIDs []string) (T, []string, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(apperr.Share); err != nil {
		return zero, nil, err
	}
	i := s.index(id)
	if i < 0 || s.rows[i].Owner() != ownerID {
		return zero, nil, apperr.New(apperr.Share, s.entity, apperr.ErrNotFound)
	}
	prev := slices.Clone(s.rows[i].Recipients())
	s.rows[i] = s.reshare(s.rows[i], sharing.NormalizeRecipients(userIDs), s.now())
	return s.rows[i], prev, nil
}

// NewTasks returns an empty task store listing newest-created first.
func NewTasks() *Store[models.Task, models.TaskInput, models.TaskPatch] {
	return &Store[models.Task, models.TaskInput, models.TaskPatch]{
		entity: models.TableTasks,
		fail:   make(map[apperr.Kind]error),
		build: func(id, owner string, in models.TaskInput, now time.Time) models.Task {
			in = in.WithDefaults()
			return models.Task{
				ID:          id,
				Title:       in.Title,
				Description: in.Description,
				DueDate:     in.DueDate,
				Status:      in.Status,
				Priority:    in.Priority,
				OwnerID:     owner,
				SharedWith:  sharing.NormalizeRecipients(in.SharedWith),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
		},
		patch: func(t models.Task, p models.TaskPatch, now time.Time) models.Task {
			if p.Title != nil {
				t.Title = *p.Title
			}
			if p.Description != nil {
				t.Description = p.Description
			}
			if p.DueDate != nil {
				t.DueDate = p.DueDate
			}
			if p.ClearDescription {
				t.Description = nil
			}
			if p.ClearDueDate {
				t.DueDate = nil
			}
			if p.Status != nil {
				t.Status = *p.Status
			}
			if p.Priority != nil {
				t.Priority = *p.Priority
			}
			t.UpdatedAt = now
			return t
		},
		reshare: func(t models.Task, ids []string, now time.Time) models.Task {
			t.SharedWith = ids
			t.UpdatedAt = now
			return t
		},
		order: func(a, b models.Task) int { return b.CreatedAt.Compare(a.CreatedAt) },
	}
}

// NewNotes returns an empty note store listing most recently updated first.
func NewNotes() *Store[models.Note, models.NoteInput, models.NotePatch] {
	return &Store[models.Note, models.NoteInput, models.NotePatch]{
		entity: models.TableNotes,
		fail:   make(map[apperr.Kind]error),
		build: func(id, owner string, in models.NoteInput, now time.Time) models.Note {
			return models.Note{
				ID:         id,
				Title:      in.Title,
				Content:    in.Content,
				OwnerID:    owner,
				SharedWith: sharing.NormalizeRecipients(in.SharedWith),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
		},
		patch: func(n models.Note, p models.NotePatch, now time.Time) models.Note {
			if p.Title != nil {
				n.Title = *p.Title
			}
			if p.Content != nil {
				n.Content = *p.Content
			}
			n.UpdatedAt = now
			return n
		},
		reshare: func(n models.Note, ids []string, now time.Time) models.Note {
			n.SharedWith = ids
			n.UpdatedAt = now
			return n
		},
		order: func(a, b models.Note) int { return b.UpdatedAt.Compare(a.UpdatedAt) },
	}
}
