package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"todoshare/pkg/apperr"
	"todoshare/pkg/models"
	"todoshare/pkg/reconcile"
)

// Validator is implemented by create inputs and patches.
type Validator interface {
	Validate() error
}

// Collection is the accessor of one shared table, bound to a session.
type Collection[T reconcile.Row, C, P Validator] struct {
	s     *Session
	table string
}

type (
	TaskStore = Collection[models.Task, models.TaskInput, models.TaskPatch]
	NoteStore = Collection[models.Note, models.NoteInput, models.NotePatch]
)

func (c *Collection[T, C, P]) Table() string { return c.table }

func (c *Collection[T, C, P]) itemPath(id string) string {
	return "/" + c.table + "/" + url.PathEscape(id)
}

// List returns every row visible to the session user.
func (c *Collection[T, C, P]) List(ctx context.Context) ([]T, error) {
	var rows []T
	if err := c.s.do(ctx, http.MethodGet, "/"+c.table, nil, &rows); err != nil {
		return nil, apperr.New(apperr.Fetch, c.table, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// Create validates in locally and stores it owned by the session user.
func (c *Collection[T, C, P]) Create(ctx context.Context, in C) (T, error) {
	var row T
	if err := in.Validate(); err != nil {
		return row, apperr.New(apperr.Create, c.table, err)
	}
	if err := c.s.do(ctx, http.MethodPost, "/"+c.table, in, &row); err != nil {
		return row, apperr.New(apperr.Create, c.table, err)
	}
	return row, nil
}

// Update validates patch locally and applies it to a visible row.
func (c *Collection[T, C, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var row T
	if err := patch.Validate(); err != nil {
		return row, apperr.New(apperr.Update, c.table, err)
	}
	if err := c.s.do(ctx, http.MethodPatch, c.itemPath(id), patch, &row); err != nil {
		return row, apperr.New(apperr.Update, c.table, err)
	}
	return row, nil
}

// Delete removes an owned row. A row that is already gone is not an error.
func (c *Collection[T, C, P]) Delete(ctx context.Context, id string) error {
	err := c.s.do(ctx, http.MethodDelete, c.itemPath(id), nil, nil)
	if err == nil || errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return apperr.New(apperr.Delete, c.table, err)
}

// Share replaces the recipients of an owned row with exactly userIDs.
func (c *Collection[T, C, P]) Share(ctx context.Context, id string, userIDs []string) (T, error) {
	var row T
	if userIDs == nil {
		userIDs = []string{}
	}
	body := struct {
		SharedWith []string `json:"shared_with"`
	}{userIDs}
	if err := c.s.do(ctx, http.MethodPut, c.itemPath(id)+"/share", body, &row); err != nil {
		return row, apperr.New(apperr.Share, c.table, err)
	}
	return row, nil
}
