package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"todoshare/pkg/apperr"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
	"todoshare/pkg/reconcile"
)

// ErrStreamEnded means the backend closed a realtime stream, e.g. because
// the client fell behind. The list should be refetched and resubscribed.
var ErrStreamEnded = errors.New("client: realtime stream ended")

// Subscription keeps a LiveList current from the realtime stream of a table.
type Subscription[T reconcile.Row] struct {
	List *reconcile.LiveList[T]

	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	err     error
	closing bool
}

// Done is closed when the stream has ended.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Err is why the stream ended: nil after Close, ErrStreamEnded when the
// backend hung up, or the read error.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the stream and waits for it to stop. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		s.cancel()
	})
	<-s.done
}

// Subscribe seeds a LiveList with seed (usually the result of List) and
// keeps it current from the table's change stream. It returns once the
// backend has confirmed the subscription.
func (c *Collection[T, C, P]) Subscribe(ctx context.Context, seed []T) (*Subscription[T], error) {
	if c.s.SignedOut() {
		return nil, ErrSignedOut
	}
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req, err := c.s.client.newRequest(streamCtx, http.MethodGet, "/realtime/"+c.table, c.s.token, nil)
	if err != nil {
		cancel()
		return nil, apperr.New(apperr.Fetch, c.table, err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The caller's ctx bounds the handshake only.
	stop := context.AfterFunc(ctx, cancel)
	resp, err := c.s.client.stream.Do(req)
	if err != nil {
		stop()
		cancel()
		return nil, apperr.New(apperr.Fetch, c.table, err)
	}
	if resp.StatusCode != http.StatusOK {
		stop()
		err := readStatusError(resp)
		resp.Body.Close()
		cancel()
		return nil, apperr.New(apperr.Fetch, c.table, err)
	}
	events := newEventReader(resp.Body)
	ev, err := events.next()
	if !stop() || err != nil || ev.name != "ready" {
		resp.Body.Close()
		cancel()
		if err == nil {
			err = fmt.Errorf("unexpected %q event before ready", ev.name)
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, apperr.New(apperr.Fetch, c.table, err)
	}

	sub := &Subscription[T]{
		List:   reconcile.NewLiveList(seed),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	untrack, err := c.s.track(func() { sub.Close() })
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	go func() {
		defer close(sub.done)
		defer resp.Body.Close()
		err := sub.consume(streamCtx, c.table, events)
		sub.mu.Lock()
		if !sub.closing {
			sub.err = err
		}
		sub.mu.Unlock()
		untrack()
	}()
	return sub, nil
}

func (s *Subscription[T]) consume(ctx context.Context, table string, events *eventReader) error {
	for {
		ev, err := events.next()
		if errors.Is(err, io.EOF) {
			return ErrStreamEnded
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ev.name != "change" {
			continue
		}
		var change models.Change
		if err := json.Unmarshal([]byte(ev.data), &change); err != nil {
			logger.Warn(ctx, "Realtime change undecodable; skipped", "table", table, "error", err)
			continue
		}
		typed, err := reconcile.Decode[T](change)
		if err != nil {
			logger.Warn(ctx, "Realtime row undecodable; skipped", "table", table, "error", err)
			continue
		}
		s.List.Apply(typed)
	}
}

type sseEvent struct {
	name string
	data string
}

// eventReader splits a text/event-stream body into events.
type eventReader struct {
	r *bufio.Reader
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReader(r)}
}

func (e *eventReader) next() (sseEvent, error) {
	var (
		ev   sseEvent
		data []string
	)
	for {
		line, err := e.r.ReadString('\n')
		if err != nil {
			return sseEvent{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if ev.name == "" && len(data) == 0 {
				continue
			}
			ev.data = strings.Join(data, "\n")
			if ev.name == "" {
				ev.name = "message"
			}
			return ev, nil
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.name = value
		case "data":
			data = append(data, value)
		}
	}
}
