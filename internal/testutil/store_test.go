package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoshare/pkg/apperr"
	"todoshare/pkg/models"
)

func TestStoreVisibility(t *testing.T) {
	ctx := context.Background()
	s := NewTasks()
	task, err := s.Create(ctx, "a", models.TaskInput{Title: "Buy milk", Priority: models.PriorityMedium})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, []string{}, task.SharedWith)

	b, _ := s.List(ctx, "b")
	assert.Empty(t, b)

	_, prev, err := s.Share(ctx, "a", task.ID, []string{"b", "b"})
	require.NoError(t, err)
	assert.Empty(t, prev)
	b, _ = s.List(ctx, "b")
	require.Len(t, b, 1)
	assert.Equal(t, []string{"b"}, b[0].SharedWith)

	_, _, err = s.Share(ctx, "b", task.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	gone, err := s.Delete(ctx, "b", task.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	gone, err = s.Delete(ctx, "a", task.ID)
	require.NoError(t, err)
	require.NotNil(t, gone)
	gone, err = s.Delete(ctx, "a", task.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStoreUpdateAdvancesTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewNotes()
	n, err := s.Create(ctx, "a", models.NoteInput{Title: "x"})
	require.NoError(t, err)
	title := "y"
	u, err := s.Update(ctx, "a", n.ID, models.NotePatch{Title: &title})
	require.NoError(t, err)
	assert.True(t, u.UpdatedAt.After(n.UpdatedAt))
	assert.Equal(t, n.CreatedAt, u.CreatedAt)

	_, err = s.Update(ctx, "c", n.ID, models.NotePatch{Title: &title})
	assert.True(t, apperr.Is(err, apperr.Update))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStoreFailOn(t *testing.T) {
	s := NewTasks()
	s.FailOn(apperr.Fetch, errors.New("down"))
	_, err := s.List(context.Background(), "a")
	assert.True(t, apperr.Is(err, apperr.Fetch))
	s.FailOn(apperr.Fetch, nil)
	_, err = s.List(context.Background(), "a")
	assert.NoError(t, err)
}

func TestProfilesSearch(t *testing.T) {
	alice := "alice"
	p := NewProfiles(
		models.Profile{ID: "a", Email: "alice@example.com", Username: &alice},
		models.Profile{ID: "b", Email: "bob@example.com"},
	)
	got, err := p.Search(context.Background(), "ALI")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, err = p.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
