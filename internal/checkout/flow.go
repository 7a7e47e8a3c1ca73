package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// State is a checkout step. Steps only move forward until the flow is reset.
type State string

const (
	StateShipping     State = "shipping"
	StatePayment      State = "payment"
	StateConfirmation State = "confirmation"
)

// Flow is the persisted checkout progress of one cart session.
type Flow struct {
	State   State                  `json:"state"`
	Email   string                 `json:"email,omitempty"`
	Address *types.ShippingAddress `json:"address,omitempty"`
	OrderID *uuid.UUID             `json:"order_id,omitempty"`
	// PendingOrderID is reserved before the order is created and cleared on
	// confirmation.
	PendingOrderID *uuid.UUID `json:"pending_order_id,omitempty"`
}

// NewFlow starts at the shipping step.
func NewFlow() *Flow {
	return &Flow{State: StateShipping}
}

// CanSubmitShipping allows editing the address until the order is placed.
func (f *Flow) CanSubmitShipping() bool {
	return f.State == StateShipping || f.State == StatePayment
}

// CanPlaceOrder is only true on the payment step.
func (f *Flow) CanPlaceOrder() bool {
	return f.State == StatePayment && f.Address != nil
}

// SubmitShipping stores the address and advances to payment.
func (f *Flow) SubmitShipping(email string, address types.ShippingAddress) {
	f.Email = email
	f.Address = &address
	f.State = StatePayment
}

// Reserve returns the id the next order will be created with, keeping an
// earlier reservation if one exists.
func (f *Flow) Reserve() uuid.UUID {
	if f.PendingOrderID == nil {
		id := uuid.New()
		f.PendingOrderID = &id
	}
	return *f.PendingOrderID
}

// Confirm records the placed order. Confirmation is terminal.
func (f *Flow) Confirm(orderID uuid.UUID) {
	f.OrderID = &orderID
	f.PendingOrderID = nil
	f.State = StateConfirmation
}
