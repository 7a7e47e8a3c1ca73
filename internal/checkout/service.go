package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/settings"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type flowStore interface {
	Load(ctx context.Context, token string) (*Flow, error)
	Save(ctx context.Context, token string, flow *Flow) error
	Delete(ctx context.Context, token string) error
}

type orderCreator interface {
	Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*orders.OrderDTO, error)
}

type settingsReader interface {
	Commerce(ctx context.Context) (*settings.Commerce, error)
}

// ShippingInput is submitted on the shipping step. Email is only required
// for guests; signed-in shoppers fall back to AccountEmail.
type ShippingInput struct {
	Email        string                `json:"email" validate:"omitempty,email"`
	AccountEmail string                `json:"-"`
	Address      types.ShippingAddress `json:"address"`
}

// PlaceOrderInput is submitted on the payment step.
type PlaceOrderInput struct {
	UserID        *uuid.UUID          `json:"-"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CouponCode    *string             `json:"coupon_code,omitempty"`
}

// View is what the checkout page renders.
type View struct {
	State       State                  `json:"state"`
	Empty       bool                   `json:"empty"`
	OrderID     *uuid.UUID             `json:"order_id,omitempty"`
	OrderRef    string                 `json:"order_ref,omitempty"`
	Email       string                 `json:"email,omitempty"`
	Address     *types.ShippingAddress `json:"address,omitempty"`
	Subtotal    decimal.Decimal        `json:"subtotal"`
	ShippingFee decimal.Decimal        `json:"shipping_fee"`
	Total       decimal.Decimal        `json:"total"`
}

// Service drives the shipping, payment and confirmation steps.
type Service interface {
	View(ctx context.Context, token string) (*View, error)
	SubmitShipping(ctx context.Context, token string, input ShippingInput) (*View, error)
	PlaceOrder(ctx context.Context, token string, input PlaceOrderInput) (*View, error)
	Reset(ctx context.Context, token string) error
}

// ServiceParams groups the checkout collaborators.
type ServiceParams struct {
	Flows    flowStore
	Carts    cart.Sessions
	Orders   orderCreator
	Settings settingsReader
	Logger   *logger.Logger
}

type service struct {
	flows    flowStore
	carts    cart.Sessions
	orders   orderCreator
	settings settingsReader
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Flows == nil {
		return nil, fmt.Errorf("flow store required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	return &service{
		flows:    params.Flows,
		carts:    params.Carts,
		orders:   params.Orders,
		settings: params.Settings,
		logg:     params.Logger,
	}, nil
}

func (s *service) View(ctx context.Context, token string) (*View, error) {
	flow, store, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, flow, store)
}

func (s *service) SubmitShipping(ctx context.Context, token string, input ShippingInput) (*View, error) {
	flow, store, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if !flow.CanSubmitShipping() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already placed; start a new checkout")
	}
	if store.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		email = strings.ToLower(strings.TrimSpace(input.AccountEmail))
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required for guest checkout")
	}
	address := input.Address.Normalized()
	if missing := address.Missing(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if !address.ValidPincode() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Pincode must be 6 digits")
	}

	flow.SubmitShipping(email, address)
	if err := s.flows.Save(ctx, token, flow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout")
	}
	return s.render(ctx, flow, store)
}

// PlaceOrder creates the order from the cart snapshot. On failure the flow
// stays on the payment step. The order id is reserved in the flow first, so a
// retry after a partial failure finishes the existing order instead of
// placing a second one.
func (s *service) PlaceOrder(ctx context.Context, token string, input PlaceOrderInput) (*View, error) {
	flow, store, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if !flow.CanPlaceOrder() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping details must be submitted before placing the order")
	}

	order, err := s.reservedOrder(ctx, flow)
	if err != nil {
		return nil, err
	}
	if order == nil {
		if store.Empty() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty")
		}
		orderID := flow.Reserve()
		if err := s.flows.Save(ctx, token, flow); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout")
		}
		order, err = s.orders.Create(ctx, s.orderInput(flow, store, input, orderID))
		if err != nil {
			return nil, err
		}
	}

	if err := s.carts.Delete(ctx, token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	flow.Confirm(order.ID)
	if err := s.flows.Save(ctx, token, flow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout")
	}
	return s.render(ctx, flow, cart.NewStore(nil))
}

// reservedOrder returns the order already created under the flow's reserved
// id, or nil when there is none yet.
func (s *service) reservedOrder(ctx context.Context, flow *Flow) (*orders.OrderDTO, error) {
	if flow.PendingOrderID == nil {
		return nil, nil
	}
	order, err := s.orders.Get(ctx, *flow.PendingOrderID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "checkout.resume_placed_order")
	}
	return order, nil
}

func (s *service) orderInput(flow *Flow, store *cart.Store, input PlaceOrderInput, orderID uuid.UUID) orders.CreateOrderInput {
	method := input.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodCOD
	}
	items := make([]orders.ItemInput, 0, len(store.Items()))
	for _, item := range store.Items() {
		items = append(items, orders.ItemInput{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity})
	}
	return orders.CreateOrderInput{
		OrderID:         &orderID,
		UserID:          input.UserID,
		CustomerName:    flow.Address.FullName,
		CustomerEmail:   flow.Email,
		CustomerPhone:   flow.Address.Phone,
		ShippingAddress: *flow.Address,
		PaymentMethod:   method,
		CouponCode:      input.CouponCode,
		Items:           items,
	}
}

// Reset starts a fresh flow, e.g. when leaving the confirmation page.
func (s *service) Reset(ctx context.Context, token string) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if err := s.flows.Delete(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset checkout")
	}
	return nil
}

func (s *service) load(ctx context.Context, token string) (*Flow, *cart.Store, error) {
	if token == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	flow, err := s.flows.Load(ctx, token)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout")
	}
	store, err := s.carts.Load(ctx, token)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return flow, store, nil
}

func (s *service) render(ctx context.Context, flow *Flow, store *cart.Store) (*View, error) {
	view := &View{
		State:   flow.State,
		Empty:   store.Empty() && flow.State != StateConfirmation,
		OrderID: flow.OrderID,
		Email:   flow.Email,
		Address: flow.Address,
	}
	if flow.OrderID != nil {
		view.OrderRef = orders.Ref(*flow.OrderID)
	}
	if store.Empty() {
		return view, nil
	}
	commerce, err := s.settings.Commerce(ctx)
	if err != nil {
		return nil, err
	}
	view.Subtotal = store.Subtotal()
	view.ShippingFee = commerce.ShippingFor(view.Subtotal)
	view.Total = view.Subtotal.Add(view.ShippingFee)
	return view, nil
}
