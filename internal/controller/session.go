package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"todoshare/internal/middleware"
	"todoshare/pkg/apperr"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
)

const entityProfile = "profile"

// SignIn records the identity carried by the verified token and returns the
// caller's session.
func (h *Handler) SignIn(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	claims := middleware.Claims(c)
	if claims == nil || claims.Email == "" {
		fail(c, apperr.New(apperr.Update, entityProfile, apperr.Validation("email claim is required")))
		return
	}
	var username *string
	if claims.Username != "" {
		username = &claims.Username
	}
	profile, err := h.profiles.Upsert(ctx, uid, claims.Email, username)
	if err != nil {
		fail(c, err)
		return
	}
	logger.Info(ctx, "Signed in")
	c.JSON(http.StatusOK, models.Session{UserID: uid, Profile: profile})
}

// SignOut ends every realtime stream the caller holds on this replica.
func (h *Handler) SignOut(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	n := 0
	if h.hub != nil {
		n = h.hub.CloseUser(uid)
	}
	logger.Info(c.Request.Context(), "Signed out", "streams_closed", n)
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	p, err := h.profiles.Get(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	if p == nil {
		fail(c, apperr.New(apperr.Fetch, entityProfile, apperr.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badBody(c, apperr.Update, entityProfile, err)
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), uid, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SearchUsers looks identities up by email or username. No match is an
// empty list.
func (h *Handler) SearchUsers(c *gin.Context) {
	if _, ok := userID(c); !ok {
		return
	}
	found, err := h.profiles.Search(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		fail(c, apperr.New(apperr.Fetch, "users", err))
		return
	}
	if found == nil {
		found = []models.Profile{}
	}
	c.JSON(http.StatusOK, found)
}
