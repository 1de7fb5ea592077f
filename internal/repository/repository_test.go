package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoshare/pkg/apperr"
	"todoshare/pkg/models"
	"todoshare/pkg/sharing"
)

var (
	taskCols = []string{"id", "title", "description", "due_date", "status", "priority", "owner_id", "shared_with", "created_at", "updated_at"}
	noteCols = []string{"id", "title", "content", "owner_id", "shared_with", "created_at", "updated_at"}
	now      = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func ptr[T any](v T) *T { return &v }

func TestTasksListAppliesVisibility(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM tasks WHERE (owner_id = $1 OR $1 = ANY(shared_with)) ORDER BY created_at DESC")).
		WithArgs("b").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t2", "Shared", "desc", nil, "in_progress", "high", "a", "{b}", now, now).
			AddRow("t1", "Mine", nil, now, "pending", "low", "b", "{}", now, now))

	tasks, err := NewTasks(db).List(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "t2", tasks[0].ID)
	assert.Equal(t, []string{"b"}, tasks[0].SharedWith)
	assert.True(t, sharing.SharedWithMe(tasks[0], "b"))
	require.NotNil(t, tasks[0].Description)
	assert.Equal(t, "desc", *tasks[0].Description)

	assert.Equal(t, []string{}, tasks[1].SharedWith)
	assert.Nil(t, tasks[1].Description)
	require.NotNil(t, tasks[1].DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksListFailureIsFetchError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM tasks").WillReturnError(errors.New("connection reset"))

	_, err := NewTasks(db).List(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Fetch))
	assert.Equal(t, "Failed to fetch tasks", apperr.Message(err))
}

func TestTasksCreateRejectsEmptyTitleWithoutQuery(t *testing.T) {
	db, mock := newMock(t)

	_, err := NewTasks(db).Create(context.Background(), "a", models.TaskInput{Priority: models.PriorityMedium})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Create))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksCreateDefaultsStatusAndShareList(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("INSERT INTO tasks (id, title, description, due_date, status, priority, owner_id, shared_with)")).
		WithArgs(sqlmock.AnyArg(), "Buy milk", nil, nil, "pending", "medium", "a", pq.Array([]string{})).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "Buy milk", nil, nil, "pending", "medium", "a", "{}", now, now))

	task, err := NewTasks(db).Create(context.Background(), "a", models.TaskInput{Title: "Buy milk", Priority: models.PriorityMedium})
	require.NoError(t, err)
	assert.Equal(t, "a", task.OwnerID)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Empty(t, task.SharedWith)
	assert.NotNil(t, task.SharedWith)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksUpdateIsScopedAndPartial(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("WHERE id = $1 AND (owner_id = $2 OR $2 = ANY(shared_with))")).
		WithArgs("t1", "b", nil, nil, nil, "completed", nil, false, false).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "Buy milk", nil, nil, "completed", "medium", "a", "{b}", now, now.Add(time.Second)))

	status := models.StatusCompleted
	task, err := NewTasks(db).Update(context.Background(), "b", "t1", models.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, task.Status)
	assert.Equal(t, []string{"b"}, task.SharedWith)
	assert.True(t, task.UpdatedAt.After(task.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksUpdateClearsNullableFields(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("due_date = CASE WHEN $9 THEN NULL ELSE COALESCE($5, due_date) END")).
		WithArgs("t1", "a", nil, nil, nil, nil, nil, true, true).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "Buy milk", nil, nil, "pending", "medium", "a", "{}", now, now.Add(time.Second)))

	task, err := NewTasks(db).Update(context.Background(), "a", "t1",
		models.TaskPatch{ClearDescription: true, ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksUpdateStatementNeverWritesSharingOrOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("updated_at = GREATEST(clock_timestamp(), updated_at + INTERVAL '1 microsecond')")).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "New", nil, nil, "pending", "medium", "a", "{}", now, now))

	_, err := NewTasks(db).Update(context.Background(), "a", "t1", models.TaskPatch{Title: ptr("New")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksUpdateMissingRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("UPDATE tasks SET").WillReturnRows(sqlmock.NewRows(taskCols))

	_, err := NewTasks(db).Update(context.Background(), "c", "t1", models.TaskPatch{Title: ptr("x")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Update))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTasksDeleteIsIdempotent(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("DELETE FROM tasks WHERE id = $1 AND owner_id = $2")).
		WithArgs("t1", "a").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "Buy milk", nil, nil, "pending", "medium", "a", "{b}", now, now))
	mock.ExpectQuery(q("DELETE FROM tasks WHERE id = $1 AND owner_id = $2")).
		WithArgs("t1", "a").
		WillReturnRows(sqlmock.NewRows(taskCols))

	repo := NewTasks(db)
	deleted, err := repo.Delete(context.Background(), "a", "t1")
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, []string{"b"}, deleted.SharedWith)

	deleted, err = repo.Delete(context.Background(), "a", "t1")
	require.NoError(t, err)
	assert.Nil(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksDeleteBackendFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("DELETE FROM tasks").WillReturnError(errors.New("timeout"))

	_, err := NewTasks(db).Delete(context.Background(), "a", "t1")
	assert.True(t, apperr.Is(err, apperr.Delete))
}

func TestTasksShareReplacesList(t *testing.T) {
	db, mock := newMock(t)
	cols := append(append([]string{}, taskCols...), "previous_shared_with")
	mock.ExpectQuery(q("SELECT id, shared_with FROM tasks WHERE id = $1 AND owner_id = $2 FOR UPDATE")).
		WithArgs("t1", "a", pq.Array([]string{"c"})).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t1", "Buy milk", nil, nil, "pending", "medium", "a", "{c}", now, now, "{b}"))

	task, prev, err := NewTasks(db).Share(context.Background(), "a", "t1", []string{"c", "c", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, task.SharedWith)
	assert.Equal(t, []string{"b"}, prev)
	assert.False(t, sharing.Visible(task, "b"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksShareWithNobody(t *testing.T) {
	db, mock := newMock(t)
	cols := append(append([]string{}, taskCols...), "previous_shared_with")
	mock.ExpectQuery("UPDATE tasks t SET").
		WithArgs("t1", "a", pq.Array([]string{})).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t1", "Buy milk", nil, nil, "pending", "medium", "a", "{}", now, now, "{b}"))

	task, prev, err := NewTasks(db).Share(context.Background(), "a", "t1", nil)
	require.NoError(t, err)
	assert.Empty(t, task.SharedWith)
	assert.False(t, sharing.Visible(task, "b"))
	assert.Equal(t, []string{"b"}, prev)
}

func TestTasksShareNotOwner(t *testing.T) {
	db, mock := newMock(t)
	cols := append(append([]string{}, taskCols...), "previous_shared_with")
	mock.ExpectQuery("UPDATE tasks t SET").WillReturnRows(sqlmock.NewRows(cols))

	_, _, err := NewTasks(db).Share(context.Background(), "b", "t1", []string{"c"})
	assert.True(t, apperr.Is(err, apperr.Share))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNotesListOrdersByUpdate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM notes WHERE (owner_id = $1 OR $1 = ANY(shared_with)) ORDER BY updated_at DESC")).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows(noteCols).AddRow("n1", "Ideas", "", "a", "{}", now, now))

	notes, err := NewNotes(db).List(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Ideas", notes[0].Title)
	assert.Equal(t, []string{}, notes[0].SharedWith)
}

func TestNotesCreateUpdateShareDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotes(db)
	ctx := context.Background()

	mock.ExpectQuery(q("INSERT INTO notes (id, title, content, owner_id, shared_with)")).
		WithArgs(sqlmock.AnyArg(), "Ideas", "draft", "a", pq.Array([]string{})).
		WillReturnRows(sqlmock.NewRows(noteCols).AddRow("n1", "Ideas", "draft", "a", "{}", now, now))
	note, err := repo.Create(ctx, "a", models.NoteInput{Title: "Ideas", Content: "draft"})
	require.NoError(t, err)
	assert.Equal(t, "n1", note.ID)

	mock.ExpectQuery(q("UPDATE notes SET")).
		WithArgs("n1", "a", nil, "final").
		WillReturnRows(sqlmock.NewRows(noteCols).AddRow("n1", "Ideas", "final", "a", "{}", now, now.Add(time.Minute)))
	note, err = repo.Update(ctx, "a", "n1", models.NotePatch{Content: ptr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", note.Content)

	cols := append(append([]string{}, noteCols...), "previous_shared_with")
	mock.ExpectQuery(q("UPDATE notes n SET")).
		WithArgs("n1", "a", pq.Array([]string{"b"})).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("n1", "Ideas", "final", "a", "{b}", now, now.Add(2*time.Minute), "{}"))
	note, prev, err := repo.Share(ctx, "a", "n1", []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, note.SharedWith)
	assert.Empty(t, prev)

	mock.ExpectQuery(q("DELETE FROM notes WHERE id = $1 AND owner_id = $2")).
		WithArgs("n1", "a").
		WillReturnRows(sqlmock.NewRows(noteCols))
	deleted, err := repo.Delete(ctx, "a", "n1")
	require.NoError(t, err)
	assert.Nil(t, deleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotesCreateRejectsEmptyTitle(t *testing.T) {
	db, mock := newMock(t)
	_, err := NewNotes(db).Create(context.Background(), "a", models.NoteInput{Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
