package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"todoshare/pkg/apperr"
	"todoshare/pkg/models"
)

// Profiles is an in-memory identity directory.
type Profiles struct {
	mu      sync.Mutex
	byID    map[string]models.Profile
	failing error
}

func NewProfiles(seed ...models.Profile) *Profiles {
	p := &Profiles{byID: make(map[string]models.Profile)}
	for _, prof := range seed {
		p.byID[prof.ID] = prof
	}
	return p
}

// FailSearch makes Search fail with err until cleared with nil.
func (p *Profiles) FailSearch(err error) {
	p.mu.Lock()
	p.failing = err
	p.mu.Unlock()
}

func (p *Profiles) Get(_ context.Context, id string) (*models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prof, ok := p.byID[id]
	if !ok {
		return nil, nil
	}
	return &prof, nil
}

func (p *Profiles) Upsert(_ context.Context, id, email string, username *string) (models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for other, held := range p.byID {
		if other != id && held.Email == email {
			return models.Profile{}, apperr.New(apperr.Update, "profile", apperr.Validation("email is already in use"))
		}
	}
	now := time.Now().UTC()
	prof, ok := p.byID[id]
	if !ok {
		prof = models.Profile{ID: id, CreatedAt: now}
	}
	prof.Email = email
	if prof.Username == nil {
		prof.Username = username
	}
	prof.UpdatedAt = now
	p.byID[id] = prof
	return prof, nil
}

func (p *Profiles) Update(_ context.Context, id string, patch models.ProfilePatch) (models.Profile, error) {
	if err := patch.Validate(); err != nil {
		return models.Profile{}, apperr.New(apperr.Update, "profile", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	prof, ok := p.byID[id]
	if !ok {
		return models.Profile{}, apperr.New(apperr.Update, "profile", apperr.ErrNotFound)
	}
	if patch.Username != nil {
		prof.Username = patch.Username
	}
	if patch.FullName != nil {
		prof.FullName = patch.FullName
	}
	if patch.AvatarURL != nil {
		prof.AvatarURL = patch.AvatarURL
	}
	prof.UpdatedAt = time.Now().UTC()
	p.byID[id] = prof
	return prof, nil
}

// Search matches email or username by case-insensitive substring, at most 20
// results ordered by email.
func (p *Profiles) Search(_ context.Context, query string) ([]models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing != nil {
		return nil, apperr.New(apperr.Fetch, "users", p.failing)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Profile{}
	if q == "" {
		return out, nil
	}
	for _, prof := range p.byID {
		name := ""
		if prof.Username != nil {
			name = *prof.Username
		}
		if strings.Contains(strings.ToLower(prof.Email), q) || strings.Contains(strings.ToLower(name), q) {
			out = append(out, prof)
		}
	}
	slices.SortFunc(out, func(a, b models.Profile) int { return strings.Compare(a.Email, b.Email) })
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}
