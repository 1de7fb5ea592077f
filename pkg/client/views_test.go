package client

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todoshare/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func TestFilterTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Title: "Buy milk", Status: models.StatusPending, Priority: models.PriorityMedium},
		{ID: "2", Title: "Call mom", Description: ptr("about the MILK order"), Status: models.StatusCompleted, Priority: models.PriorityHigh},
		{ID: "3", Title: "Taxes", Status: models.StatusInProgress, Priority: models.PriorityHigh},
	}
	ids := func(ts []models.Task) []string {
		out := []string{}
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterTasks(tasks, TaskFilter{})))
	assert.Equal(t, []string{"1", "2"}, ids(FilterTasks(tasks, TaskFilter{Query: " milk "})))
	assert.Equal(t, []string{"2", "3"}, ids(FilterTasks(tasks, TaskFilter{Priority: models.PriorityHigh})))
	assert.Equal(t, []string{"3"}, ids(FilterTasks(tasks, TaskFilter{Status: models.StatusInProgress})))
	assert.Empty(t, FilterTasks(tasks, TaskFilter{Status: models.StatusPending, Priority: models.PriorityHigh}))
}

func TestSearchNotes(t *testing.T) {
	notes := []models.Note{
		{ID: "1", Title: "Groceries", Content: "milk"},
		{ID: "2", Title: "Ideas", Content: "Lisbon"},
	}
	assert.Len(t, SearchNotes(notes, ""), 2)
	got := SearchNotes(notes, "LIS")
	assert.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestSharedWithMeExcludesOwn(t *testing.T) {
	notes := []models.Note{
		{ID: "mine", OwnerID: "b", SharedWith: []string{"c"}},
		{ID: "shared", OwnerID: "a", SharedWith: []string{"b"}},
		{ID: "other", OwnerID: "a", SharedWith: []string{"c"}},
	}
	got := SharedWithMe(notes, "b")
	assert.Len(t, got, 1)
	assert.Equal(t, "shared", got[0].ID)
}

func TestStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)
	tasks := []models.Task{
		{Status: models.StatusCompleted, DueDate: &yesterday},
		{Status: models.StatusPending, DueDate: &yesterday},
		{Status: models.StatusInProgress, DueDate: &tomorrow},
		{Status: models.StatusPending},
	}
	assert.Equal(t, TaskStats{Total: 4, Completed: 1, Pending: 3, Overdue: 1}, Stats(tasks, now))
	assert.Equal(t, TaskStats{}, Stats(nil, now))
}

func TestEventReader(t *testing.T) {
	r := newEventReader(strings.NewReader("event:ready\ndata:{}\n\n: comment\nevent: change\ndata: {\"a\":1}\n\ndata:x\ndata:y\n\n"))
	ev, err := r.next()
	assert.NoError(t, err)
	assert.Equal(t, sseEvent{name: "ready", data: "{}"}, ev)
	ev, err = r.next()
	assert.NoError(t, err)
	assert.Equal(t, sseEvent{name: "change", data: `{"a":1}`}, ev)
	ev, err = r.next()
	assert.NoError(t, err)
	assert.Equal(t, sseEvent{name: "message", data: "x\ny"}, ev)
	_, err = r.next()
	assert.ErrorIs(t, err, io.EOF)
}
