package client

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type wishlistAPI interface {
	ToggleWishlist(ctx context.Context, productID uuid.UUID) (bool, error)
}

// WishlistToggle is the optimistic heart button. Execute flips the local
// state first, then confirms with the server; a failure restores exactly the
// state held before the call.
type WishlistToggle struct {
	api       wishlistAPI
	productID uuid.UUID

	mu         sync.Mutex
	wishlisted bool
	pending    bool
}

func NewWishlistToggle(api wishlistAPI, productID uuid.UUID, initial bool) *WishlistToggle {
	return &WishlistToggle{api: api, productID: productID, wishlisted: initial}
}

func (t *WishlistToggle) Wishlisted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wishlisted
}

func (t *WishlistToggle) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Execute returns the settled state. A second call while one is in flight is
// ignored and reports the current optimistic state.
func (t *WishlistToggle) Execute(ctx context.Context) (bool, error) {
	t.mu.Lock()
	if t.pending {
		state := t.wishlisted
		t.mu.Unlock()
		return state, nil
	}
	previous := t.wishlisted
	t.wishlisted = !previous
	t.pending = true
	t.mu.Unlock()

	confirmed, err := t.api.ToggleWishlist(ctx, t.productID)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = false
	if err != nil {
		t.wishlisted = previous
		return previous, err
	}
	t.wishlisted = confirmed
	return confirmed, nil
}
