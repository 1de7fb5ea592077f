package client

import (
	"context"
	"net/http"
	"sync"

	"todoshare/pkg/models"
)

// Session is the signed-in context every store is obtained from.
type Session struct {
	client *Client
	token  string
	info   models.Session

	mu     sync.Mutex
	closed bool
	nextID uint64
	subs   map[uint64]func()
}

func (s *Session) UserID() string          { return s.info.UserID }
func (s *Session) Profile() models.Profile { return s.info.Profile }

func (s *Session) Tasks() *TaskStore {
	return &TaskStore{s: s, table: models.TableTasks}
}

func (s *Session) Notes() *NoteStore {
	return &NoteStore{s: s, table: models.TableNotes}
}

func (s *Session) Users() *Users {
	return &Users{s: s}
}

func (s *Session) SignedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	if s.SignedOut() {
		return ErrSignedOut
	}
	return s.client.do(ctx, method, path, s.token, body, out)
}

// track registers a subscription teardown; it returns the untrack func.
func (s *Session) track(closeFn func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSignedOut
	}
	s.nextID++
	id := s.nextID
	s.subs[id] = closeFn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// SignOut closes every subscription of the session and tells the backend
// to end the caller's streams. The session is unusable afterwards, even if
// the backend call fails.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subs
	s.subs = make(map[uint64]func())
	s.mu.Unlock()

	for _, closeFn := range subs {
		closeFn()
	}
	return s.client.do(ctx, http.MethodDelete, "/auth/session", s.token, nil, nil)
}
