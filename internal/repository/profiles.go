package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"todoshare/pkg/apperr"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
)

const (
	profileColumns = `id, email, username, full_name, avatar_url, created_at, updated_at`
	entityUsers    = "users"
	entityProfile  = "profile"
)

type profileRow struct {
	ID        string         `db:"id"`
	Email     string         `db:"email"`
	Username  sql.NullString `db:"username"`
	FullName  sql.NullString `db:"full_name"`
	AvatarURL sql.NullString `db:"avatar_url"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r profileRow) model() models.Profile {
	return models.Profile{
		ID:        r.ID,
		Email:     r.Email,
		Username:  nullString(r.Username),
		FullName:  nullString(r.FullName),
		AvatarURL: nullString(r.AvatarURL),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Profiles stores public identities.
type Profiles struct {
	db *sqlx.DB
}

func NewProfiles(db *sqlx.DB) *Profiles {
	return &Profiles{db: db}
}

// Get returns the profile with id, or nil when there is none.
func (r *Profiles) Get(ctx context.Context, id string) (*models.Profile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository get profile failed", "error", err, "id", id)
		return nil, apperr.New(apperr.Fetch, entityProfile, err)
	}
	p := row.model()
	return &p, nil
}

// Upsert records the identity presented at sign-in. A username chosen later
// through Update is kept over the one carried by the token. An email held by
// another profile is a validation error.
func (r *Profiles) Upsert(ctx context.Context, id, email string, username *string) (models.Profile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO profiles (id, email, username) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			username = COALESCE(profiles.username, EXCLUDED.username),
			updated_at = NOW()
		 RETURNING `+profileColumns,
		id, email, username)
	if isUniqueViolation(err) {
		return models.Profile{}, apperr.New(apperr.Update, entityProfile, apperr.Validation("email is already in use"))
	}
	if err != nil {
		logger.Error(ctx, "Repository upsert profile failed", "error", err, "id", id)
		return models.Profile{}, apperr.New(apperr.Update, entityProfile, err)
	}
	return row.model(), nil
}

// Update applies a partial update to the caller's own profile.
func (r *Profiles) Update(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error) {
	if err := patch.Validate(); err != nil {
		return models.Profile{}, apperr.New(apperr.Update, entityProfile, err)
	}
	var row profileRow
	err := r.db.GetContext(ctx, &row,
		`UPDATE profiles SET
			username = COALESCE($2, username),
			full_name = COALESCE($3, full_name),
			avatar_url = COALESCE($4, avatar_url),
			`+bumpUpdatedAt+`
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, patch.Username, patch.FullName, patch.AvatarURL)
	if isNoRows(err) {
		return models.Profile{}, apperr.New(apperr.Update, entityProfile, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Error(ctx, "Repository update profile failed", "error", err, "id", id)
		return models.Profile{}, apperr.New(apperr.Update, entityProfile, err)
	}
	return row.model(), nil
}

// Search finds identities whose email or username contains query, ignoring
// case, through the search_users database function. A blank query matches
// nobody.
func (r *Profiles) Search(ctx context.Context, query string) ([]models.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Profile{}, nil
	}
	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+profileColumns+` FROM search_users($1)`, query); err != nil {
		logger.Error(ctx, "Repository search users failed", "error", err)
		return nil, apperr.New(apperr.Fetch, entityUsers, err)
	}
	out := make([]models.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}
