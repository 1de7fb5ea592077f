package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"todoshare/pkg/apperr"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
	"todoshare/pkg/sharing"
)

// Resource is the handler set of one shared collection.
type Resource interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Share(c *gin.Context)
}

type resource[T Row, C, P any] struct {
	h     *Handler
	table string
	store Store[T, C, P]
}

func newResource[T Row, C, P any](h *Handler, table string, store Store[T, C, P]) *resource[T, C, P] {
	return &resource[T, C, P]{h: h, table: table, store: store}
}

// ShareRequest replaces the recipients of an item. An empty list unshares it.
type ShareRequest struct {
	SharedWith []string `json:"shared_with"`
}

func ref(row Row) models.RowRef {
	return models.RowRef{ID: row.RowID(), OwnerID: row.Owner(), SharedWith: row.Recipients()}
}

// List returns the rows visible to the caller (cache-first as raw bytes).
func (r *resource[T, C, P]) List(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	b, gen, hit := r.h.lists.Get(ctx, r.table, uid)
	if hit {
		c.Data(http.StatusOK, "application/json", b)
		return
	}
	key := r.table + ":" + uid + ":" + strconv.FormatInt(gen, 10)
	v, err, _ := r.h.flight.Do(key, func() (interface{}, error) {
		rows, err := r.store.List(context.WithoutCancel(ctx), uid)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
	if err != nil {
		if ctx.Err() != nil || isContextErr(err) {
			return
		}
		fail(c, apperr.New(apperr.Fetch, r.table, err))
		return
	}
	b = v.([]byte)
	c.Data(http.StatusOK, "application/json", b)
	go r.h.lists.SetAsync(r.table, uid, gen, b)
}

func (r *resource[T, C, P]) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var in C
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, apperr.Create, r.table, err)
		return
	}
	row, err := r.store.Create(ctx, uid, in)
	if err != nil {
		fail(c, err)
		return
	}
	r.h.lists.Invalidate(ctx, r.table, sharing.Audience(row.Owner(), row.Recipients())...)
	r.h.publish(ctx, r.table, models.Insert, row, nil)
	logger.Info(ctx, "Item created", "table", r.table, "id", row.RowID())
	c.JSON(http.StatusCreated, row)
}

func (r *resource[T, C, P]) Update(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var patch P
	if err := c.ShouldBindJSON(&patch); err != nil {
		badBody(c, apperr.Update, r.table, err)
		return
	}
	row, err := r.store.Update(ctx, uid, c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	r.h.lists.Invalidate(ctx, r.table, sharing.Audience(row.Owner(), row.Recipients())...)
	r.h.publish(ctx, r.table, models.Update, row, nil)
	c.JSON(http.StatusOK, row)
}

// Delete answers 204 whether or not there was anything to delete.
func (r *resource[T, C, P]) Delete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	row, err := r.store.Delete(ctx, uid, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if row != nil {
		r.h.lists.Invalidate(ctx, r.table, sharing.Audience((*row).Owner(), (*row).Recipients())...)
		r.h.publish(ctx, r.table, models.Delete, nil, *row)
		logger.Info(ctx, "Item deleted", "table", r.table, "id", (*row).RowID())
	}
	c.Status(http.StatusNoContent)
}

func (r *resource[T, C, P]) Share(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, apperr.Share, r.table, err)
		return
	}
	row, prev, err := r.store.Share(ctx, uid, c.Param("id"), req.SharedWith)
	if err != nil {
		fail(c, err)
		return
	}
	// Former recipients lose the item and must drop their cached lists too.
	r.h.lists.Invalidate(ctx, r.table, sharing.Audience(row.Owner(), prev, row.Recipients())...)
	old := ref(row)
	old.SharedWith = prev
	r.h.publish(ctx, r.table, models.Update, row, old)
	logger.Info(ctx, "Item shared", "table", r.table, "id", row.RowID(), "recipients", len(row.Recipients()))
	c.JSON(http.StatusOK, row)
}
