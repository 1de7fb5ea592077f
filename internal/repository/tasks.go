package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"todoshare/pkg/apperr"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
	"todoshare/pkg/sharing"
)

const taskColumns = `id, title, description, due_date, status, priority, owner_id, shared_with, created_at, updated_at`

type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	DueDate     sql.NullTime   `db:"due_date"`
	Status      string         `db:"status"`
	Priority    string         `db:"priority"`
	OwnerID     string         `db:"owner_id"`
	SharedWith  pq.StringArray `db:"shared_with"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r taskRow) model() models.Task {
	return models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: nullString(r.Description),
		DueDate:     nullTime(r.DueDate),
		Status:      models.TaskStatus(r.Status),
		Priority:    models.Priority(r.Priority),
		OwnerID:     r.OwnerID,
		SharedWith:  recipients(r.SharedWith),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Tasks stores todo items.
type Tasks struct {
	db *sqlx.DB
}

func NewTasks(db *sqlx.DB) *Tasks {
	return &Tasks{db: db}
}

// List returns every task visible to userID, newest first.
func (r *Tasks) List(ctx context.Context, userID string) ([]models.Task, error) {
	var rows []taskRow
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + fmt.Sprintf(visibleTo, 1, 1) + ` ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		logger.Error(ctx, "Repository list tasks failed", "error", err)
		return nil, apperr.New(apperr.Fetch, models.TableTasks, err)
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.model())
	}
	return tasks, nil
}

// Create inserts a task owned by ownerID. Invalid input never reaches the database.
func (r *Tasks) Create(ctx context.Context, ownerID string, in models.TaskInput) (models.Task, error) {
	if err := in.Validate(); err != nil {
		return models.Task{}, apperr.New(apperr.Create, models.TableTasks, err)
	}
	in = in.WithDefaults()
	var row taskRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO tasks (id, title, description, due_date, status, priority, owner_id, shared_with)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+taskColumns,
		uuid.New().String(), in.Title, in.Description, in.DueDate, in.Status, in.Priority, ownerID,
		pq.Array(sharing.NormalizeRecipients(in.SharedWith)))
	if err != nil {
		logger.Error(ctx, "Repository create task failed", "error", err)
		return models.Task{}, apperr.New(apperr.Create, models.TableTasks, err)
	}
	return row.model(), nil
}

// Update applies a partial update to a task visible to userID. The
// shared-with list and the owner are never touched here.
func (r *Tasks) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Validate(); err != nil {
		return models.Task{}, apperr.New(apperr.Update, models.TableTasks, err)
	}
	var row taskRow
	err := r.db.GetContext(ctx, &row,
		`UPDATE tasks SET
			title = COALESCE($3, title),
			description = CASE WHEN $8 THEN NULL ELSE COALESCE($4, description) END,
			due_date = CASE WHEN $9 THEN NULL ELSE COALESCE($5, due_date) END,
			status = COALESCE($6, status),
			priority = COALESCE($7, priority),
			`+bumpUpdatedAt+`
		 WHERE id = $1 AND `+fmt.Sprintf(visibleTo, 2, 2)+`
		 RETURNING `+taskColumns,
		id, userID, patch.Title, patch.Description, patch.DueDate, patch.Status, patch.Priority,
		patch.ClearDescription, patch.ClearDueDate)
	if isNoRows(err) {
		return models.Task{}, apperr.New(apperr.Update, models.TableTasks, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Error(ctx, "Repository update task failed", "error", err, "id", id)
		return models.Task{}, apperr.New(apperr.Update, models.TableTasks, err)
	}
	return row.model(), nil
}

// Delete removes a task owned by userID and returns it. Deleting a task that
// is already gone, or that the caller does not own, returns (nil, nil).
func (r *Tasks) Delete(ctx context.Context, userID, id string) (*models.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING `+taskColumns, id, userID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository delete task failed", "error", err, "id", id)
		return nil, apperr.New(apperr.Delete, models.TableTasks, err)
	}
	t := row.model()
	return &t, nil
}

type sharedTaskRow struct {
	taskRow
	Previous pq.StringArray `db:"previous_shared_with"`
}

// Share replaces the shared-with list of a task owned by ownerID with
// exactly userIDs. It returns the updated task and the list it replaced.
func (r *Tasks) Share(ctx context.Context, ownerID, id string, userIDs []string) (models.Task, []string, error) {
	var row sharedTaskRow
	err := r.db.GetContext(ctx, &row,
		`WITH prev AS (
			SELECT id, shared_with FROM tasks WHERE id = $1 AND owner_id = $2 FOR UPDATE
		 )
		 UPDATE tasks t SET
			shared_with = $3,
			updated_at = GREATEST(clock_timestamp(), t.updated_at + INTERVAL '1 microsecond')
		 FROM prev
		 WHERE t.id = prev.id
		 RETURNING t.id, t.title, t.description, t.due_date, t.status, t.priority, t.owner_id,
			t.shared_with, t.created_at, t.updated_at, prev.shared_with AS previous_shared_with`,
		id, ownerID, pq.Array(sharing.NormalizeRecipients(userIDs)))
	if isNoRows(err) {
		return models.Task{}, nil, apperr.New(apperr.Share, models.TableTasks, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Error(ctx, "Repository share task failed", "error", err, "id", id)
		return models.Task{}, nil, apperr.New(apperr.Share, models.TableTasks, err)
	}
	return row.model(), recipients(row.Previous), nil
}
