package controller

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todoshare/internal/realtime"
	"todoshare/pkg/apperr"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
)

const heartbeatInterval = 25 * time.Second

// Stream sends the caller's changes on a table as server-sent events until
// the client goes away, the caller signs out or the stream falls behind.
// Only rows the caller owns are streamed.
func (h *Handler) Stream(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	table := c.Param("table")
	if !models.IsKnownTable(table) {
		fail(c, apperr.New(apperr.Fetch, table, apperr.ErrNotFound))
		return
	}
	ctx := c.Request.Context()
	sub := h.hub.Subscribe(uid, table, realtime.OwnerFilter(uid))
	defer sub.Close()

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("ready", gin.H{"table": table, "filter": sub.Filter().String()})
	c.Writer.Flush()
	logger.Debug(ctx, "Realtime stream opened", "table", table)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case change, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("change", change)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", "")
			return true
		case <-ctx.Done():
			return false
		}
	})
	logger.Debug(ctx, "Realtime stream closed", "table", table)
}
