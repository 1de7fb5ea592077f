package client

import (
	"errors"
	"fmt"
	"sync"
)

// CardState is the one dialog an item card may have open.
type CardState string

const (
	CardIdle             CardState = "idle"
	CardEditing          CardState = "editing"
	CardSharing          CardState = "sharing"
	CardConfirmingDelete CardState = "confirming-delete"
)

var ErrInvalidTransition = errors.New("client: invalid card transition")

// Card is the dialog state of one item card. Dialogs open only from idle,
// so at most one is ever active.
type Card struct {
	ItemID string

	mu    sync.Mutex
	state CardState
}

func NewCard(itemID string) *Card {
	return &Card{ItemID: itemID, state: CardIdle}
}

func (c *Card) State() CardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Card) open(next CardState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CardIdle {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, next)
	}
	c.state = next
	return nil
}

func (c *Card) OpenEdit() error      { return c.open(CardEditing) }
func (c *Card) OpenShare() error     { return c.open(CardSharing) }
func (c *Card) ConfirmDelete() error { return c.open(CardConfirmingDelete) }

// Close returns the card to idle from any state.
func (c *Card) Close() {
	c.mu.Lock()
	c.state = CardIdle
	c.mu.Unlock()
}
