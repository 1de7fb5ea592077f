// Package controller holds the gin handlers of the HTTP API.
package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"todoshare/internal/cache"
	"todoshare/internal/middleware"
	"todoshare/internal/realtime"
	"todoshare/pkg/apperr"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
	"todoshare/pkg/sharing"
)

// Row is a stored item the API can list, address and share.
type Row interface {
	sharing.Item
	RowID() string
}

// Store is the contract of a shared collection (see repository.Tasks).
type Store[T Row, C, P any] interface {
	List(ctx context.Context, userID string) ([]T, error)
	Create(ctx context.Context, ownerID string, in C) (T, error)
	Update(ctx context.Context, userID, id string, patch P) (T, error)
	Delete(ctx context.Context, userID, id string) (*T, error)
	Share(ctx context.Context, ownerID, id string, userIDs []string) (T, []string, error)
}

type (
	TaskStore = Store[models.Task, models.TaskInput, models.TaskPatch]
	NoteStore = Store[models.Note, models.NoteInput, models.NotePatch]
)

// ProfileStore is the identity directory (see repository.Profiles).
type ProfileStore interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	Upsert(ctx context.Context, id, email string, username *string) (models.Profile, error)
	Update(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error)
	Search(ctx context.Context, query string) ([]models.Profile, error)
}

// Publisher puts a committed change on the realtime feed.
type Publisher interface {
	Publish(ctx context.Context, c models.Change) error
}

// Check is one readiness dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Tasks     TaskStore
	Notes     NoteStore
	Profiles  ProfileStore
	Lists     *cache.Lists
	Publisher Publisher
	Hub       *realtime.Hub
	Checks    []Check
}

// Handler serves the API over its Deps.
type Handler struct {
	profiles  ProfileStore
	lists     *cache.Lists
	publisher Publisher
	hub       *realtime.Hub
	checks    []Check
	flight    singleflight.Group

	resources map[string]Resource
}

func New(d Deps) *Handler {
	h := &Handler{
		profiles:  d.Profiles,
		lists:     d.Lists,
		publisher: d.Publisher,
		hub:       d.Hub,
		checks:    d.Checks,
	}
	h.resources = map[string]Resource{
		models.TableTasks: newResource(h, models.TableTasks, d.Tasks),
		models.TableNotes: newResource(h, models.TableNotes, d.Notes),
	}
	return h
}

// Resource returns the CRUD handlers of a table, or nil for an unknown one.
func (h *Handler) Resource(table string) Resource {
	return h.resources[table]
}

func userID(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return uid, true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail answers with the user-facing message of err.
func fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Request failed", "error", err, "path", c.FullPath())
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func badBody(c *gin.Context, kind apperr.Kind, entity string, err error) {
	logger.Debug(c.Request.Context(), "Invalid request body", "error", err)
	fail(c, apperr.New(kind, entity, apperr.Validation("invalid request body")))
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// publish emits a committed change. The write already succeeded, so a
// feed failure is logged and not reported to the caller.
func (h *Handler) publish(ctx context.Context, table string, typ models.ChangeType, newRow, oldRow any) {
	if h.publisher == nil {
		return
	}
	change, err := models.NewChange(table, typ, newRow, oldRow, time.Now())
	if err != nil {
		logger.Error(ctx, "Encode change failed", "error", err, "table", table)
		return
	}
	if err := h.publisher.Publish(ctx, change); err != nil {
		logger.Warn(ctx, "Publish change failed", "error", err, "table", table, "type", typ)
	}
}
