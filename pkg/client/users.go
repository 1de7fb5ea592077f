package client

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"todoshare/pkg/apperr"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
)

const entityUsers = "users"

// Users looks identities up for sharing.
type Users struct {
	s *Session
}

// Search finds users whose email or username contains query, ignoring
// case. No match is an empty list, not an error.
func (u *Users) Search(ctx context.Context, query string) ([]models.Profile, error) {
	var found []models.Profile
	path := "/users/search?q=" + url.QueryEscape(query)
	if err := u.s.do(ctx, http.MethodGet, path, nil, &found); err != nil {
		return nil, apperr.New(apperr.Fetch, entityUsers, err)
	}
	if found == nil {
		found = []models.Profile{}
	}
	return found, nil
}

// MinQueryLen is the shortest query the share picker sends.
const MinQueryLen = 2

// SharePicker holds the recipient selection of a share dialog.
type SharePicker struct {
	users *Users

	mu       sync.Mutex
	selected []models.Profile
}

// NewSharePicker starts a selection, typically with the item's current
// recipients.
func NewSharePicker(users *Users, selected ...models.Profile) *SharePicker {
	p := &SharePicker{users: users}
	for _, prof := range selected {
		p.Select(prof)
	}
	return p
}

// Search returns candidates for query, leaving out users already selected.
// Short queries return nothing. Lookup failures are logged and yield an
// empty list.
func (p *SharePicker) Search(ctx context.Context, query string) []models.Profile {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLen {
		return []models.Profile{}
	}
	found, err := p.users.Search(ctx, query)
	if err != nil {
		logger.Warn(ctx, "User search failed", "error", err)
		return []models.Profile{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.DeleteFunc(found, func(prof models.Profile) bool {
		return p.isSelectedLocked(prof.ID)
	})
}

func (p *SharePicker) isSelectedLocked(id string) bool {
	return slices.ContainsFunc(p.selected, func(s models.Profile) bool { return s.ID == id })
}

// Select adds prof to the selection. Selecting twice is a no-op.
func (p *SharePicker) Select(prof models.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prof.ID == "" || p.isSelectedLocked(prof.ID) {
		return
	}
	p.selected = append(p.selected, prof)
}

func (p *SharePicker) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = slices.DeleteFunc(p.selected, func(s models.Profile) bool { return s.ID == id })
}

func (p *SharePicker) Selected() []models.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.selected)
}

// SelectedIDs is the share list to submit, in selection order.
func (p *SharePicker) SelectedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.selected))
	for _, s := range p.selected {
		ids = append(ids, s.ID)
	}
	return ids
}
