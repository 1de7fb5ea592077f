package repository

import (
	"context"
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

const noteColumns = `id, title, content, owner_id, shared_with, created_at, updated_at`

type noteRow struct {
	ID         string         `db:"id"`
	Title      string         `db:"title"`
	Content    string         `db:"content"`
	OwnerID    string         `db:"owner_id"`
	SharedWith pq.StringArray `db:"shared_with"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r noteRow) model() models.Note {
	return models.Note{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		OwnerID:    r.OwnerID,
		SharedWith: recipients(r.SharedWith),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Notes stores free-text notes.
type Notes struct {
	db *sqlx.DB
}

func NewNotes(db *sqlx.DB) *Notes {
	return &Notes{db: db}
}

// List returns every note visible to userID, most recently updated first.
func (r *Notes) List(ctx context.Context, userID string) ([]models.Note, error) {
	var rows []noteRow
	q := `SELECT ` + noteColumns + ` FROM notes WHERE ` + fmt.Sprintf(visibleTo, 1, 1) + ` ORDER BY updated_at DESC`
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		logger.Error(ctx, "Repository list notes failed", "error", err)
		return nil, apperr.New(apperr.Fetch, models.TableNotes, err)
	}
	notes := make([]models.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, row.model())
	}
	return notes, nil
}

func (r *Notes) Create(ctx context.Context, ownerID string, in models.NoteInput) (models.Note, error) {
	if err := in.Validate(); err != nil {
		return models.Note{}, apperr.New(apperr.Create, models.TableNotes, err)
	}
	var row noteRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO notes (id, title, content, owner_id, shared_with)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+noteColumns,
		uuid.New().String(), in.Title, in.Content, ownerID, pq.Array(sharing.NormalizeRecipients(in.SharedWith)))
	if err != nil {
		logger.Error(ctx, "Repository create note failed", "error", err)
		return models.Note{}, apperr.New(apperr.Create, models.TableNotes, err)
	}
	return row.model(), nil
}

func (r *Notes) Update(ctx context.Context, userID, id string, patch models.NotePatch) (models.Note, error) {
	if err := patch.Validate(); err != nil {
		return models.Note{}, apperr.New(apperr.Update, models.TableNotes, err)
	}
	var row noteRow
	err := r.db.GetContext(ctx, &row,
		`UPDATE notes SET
			title = COALESCE($3, title),
			content = COALESCE($4, content),
			`+bumpUpdatedAt+`
		 WHERE id = $1 AND `+fmt.Sprintf(visibleTo, 2, 2)+`
		 RETURNING `+noteColumns,
		id, userID, patch.Title, patch.Content)
	if isNoRows(err) {
		return models.Note{}, apperr.New(apperr.Update, models.TableNotes, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Error(ctx, "Repository update note failed", "error", err, "id", id)
		return models.Note{}, apperr.New(apperr.Update, models.TableNotes, err)
	}
	return row.model(), nil
}

func (r *Notes) Delete(ctx context.Context, userID, id string) (*models.Note, error) {
	var row noteRow
	err := r.db.GetContext(ctx, &row,
		`DELETE FROM notes WHERE id = $1 AND owner_id = $2 RETURNING `+noteColumns, id, userID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository delete note failed", "error", err, "id", id)
		return nil, apperr.New(apperr.Delete, models.TableNotes, err)
	}
	n := row.model()
	return &n, nil
}

type sharedNoteRow struct {
	noteRow
	Previous pq.StringArray `db:"previous_shared_with"`
}

func (r *Notes) Share(ctx context.Context, ownerID, id string, userIDs []string) (models.Note, []string, error) {
	var row sharedNoteRow
	err := r.db.GetContext(ctx, &row,
		`WITH prev AS (
			SELECT id, shared_with FROM notes WHERE id = $1 AND owner_id = $2 FOR UPDATE
		 )
		 UPDATE notes n SET
			shared_with = $3,
			updated_at = GREATEST(clock_timestamp(), n.updated_at + INTERVAL '1 microsecond')
		 FROM prev
		 WHERE n.id = prev.id
		 RETURNING n.id, n.title, n.content, n.owner_id, n.shared_with, n.created_at, n.updated_at,
			prev.shared_with AS previous_shared_with`,
		id, ownerID, pq.Array(sharing.NormalizeRecipients(userIDs)))
	if isNoRows(err) {
		return models.Note{}, nil, apperr.New(apperr.Share, models.TableNotes, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Error(ctx, "Repository share note failed", "error", err, "id", id)
		return models.Note{}, nil, apperr.New(apperr.Share, models.TableNotes, err)
	}
	return row.model(), recipients(row.Previous), nil
}
