package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/settings"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const notFoundMessage = "order not found"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type couponFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type settingsReader interface {
	Commerce(ctx context.Context) (*settings.Commerce, error)
}

type placementRecorder interface {
	IncOrdersPlaced(paymentMethod string)
}

// Service covers order placement, customer order history and admin order management.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetMine(ctx context.Context, userID, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, input ListInput) (*pagination.PageResult[OrderDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups the order service collaborators.
type ServiceParams struct {
	Repo     *Repository
	Tx       txRunner
	Catalog  catalog
	Coupons  couponFinder
	Settings settingsReader
	Metrics  placementRecorder
}

type service struct {
	repo     *Repository
	tx       txRunner
	catalog  catalog
	coupons  couponFinder
	settings settingsReader
	metrics  placementRecorder
	now      func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon finder required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		catalog:  params.Catalog,
		coupons:  params.Coupons,
		settings: params.Settings,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Create prices the request from the catalog, applies shipping and the
// coupon, and stores the order with snapshotted items.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if err := validateContact(input); err != nil {
		return nil, err
	}
	commerce, err := s.settings.Commerce(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkPayment(input.PaymentMethod, commerce); err != nil {
		return nil, err
	}

	items, subtotal, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	var couponCode *string
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		coupon, err := s.coupons.FindByCode(ctx, *input.CouponCode)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid coupon code")
			}
			return nil, db.Translate(err, "load coupon", "", "")
		}
		discount, err = coupons.Apply(coupon, subtotal, s.now())
		if err != nil {
			return nil, err
		}
		code := coupon.Code
		couponCode = &code
	}

	shipping := commerce.ShippingFor(subtotal)
	order := &models.Order{
		UserID:          input.UserID,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		ShippingAddress: input.ShippingAddress.Normalized(),
		Status:          enums.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		CouponCode:      couponCode,
		Subtotal:        subtotal,
		DiscountAmount:  discount,
		ShippingFee:     shipping,
		TotalAmount:     subtotal.Sub(discount).Add(shipping),
		Items:           items,
	}
	if input.OrderID != nil {
		order.ID = *input.OrderID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, db.Translate(err, "create order", "", "")
	}
	if s.metrics != nil {
		s.metrics.IncOrdersPlaced(string(order.PaymentMethod))
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) priceItems(ctx context.Context, inputs []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty")
	}
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity < 1 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		p, err := s.catalog.FindByID(ctx, in.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "a product in your cart no longer exists")
			}
			return nil, decimal.Zero, db.Translate(err, "load product", "", "")
		}
		if !p.IsActive {
			return nil, decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is no longer available", p.Title)
		}

		productID := p.ID
		item := models.OrderItem{
			ProductID:    &productID,
			ProductTitle: p.Title,
			ImageURL:     product.PrimaryImage(p),
			Quantity:     in.Quantity,
			UnitPrice:    p.BasePrice,
		}
		if in.VariantID != nil {
			found := false
			for _, v := range p.Variants {
				if v.ID == *in.VariantID {
					variantID := v.ID
					name := v.VariantName
					item.VariantID = &variantID
					item.VariantName = &name
					item.UnitPrice = v.Price
					found = true
					break
				}
			}
			if !found {
				return nil, decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "the selected option of %s is no longer available", p.Title)
			}
		}
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		subtotal = subtotal.Add(item.TotalPrice)
		items = append(items, item)
	}
	return items, subtotal, nil
}

func validateContact(input CreateOrderInput) error {
	if strings.TrimSpace(input.CustomerName) == "" ||
		strings.TrimSpace(input.CustomerEmail) == "" ||
		strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name, email and phone are required")
	}
	addr := input.ShippingAddress.Normalized()
	if missing := addr.Missing(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if !addr.ValidPincode() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Pincode must be 6 digits")
	}
	return nil
}

func checkPayment(method enums.PaymentMethod, commerce *settings.Commerce) error {
	switch method {
	case enums.PaymentMethodCOD:
		if !commerce.CODEnabled {
			return pkgerrors.New(pkgerrors.CodeValidation, "Cash on delivery is not available")
		}
		return nil
	case enums.PaymentMethodRazorpay:
		return pkgerrors.New(pkgerrors.CodeValidation, "Online payment is not available yet")
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", method)
	}
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, db.Translate(err, "list orders", "", "")
	}
	return toDTOs(rows), nil
}

func (s *service) GetMine(ctx context.Context, userID, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		return nil, db.Translate(err, "load order", notFoundMessage, "")
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*pagination.PageResult[OrderDTO], error) {
	input.Page = pagination.NewPage(input.Page.Number, input.Page.Limit)
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *input.Status)
	}
	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, db.Translate(err, "list orders", "", "")
	}
	return &pagination.PageResult[OrderDTO]{
		Items: toDTOs(rows),
		Page:  input.Page.Number,
		Limit: input.Page.Limit,
		Total: total,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load order", notFoundMessage, "")
	}
	dto := FromModel(order)
	return &dto, nil
}

// UpdateStatus accepts any known status; concurrent edits are last write wins.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, db.Translate(err, "update order", notFoundMessage, "")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	return db.Translate(err, "delete order", notFoundMessage, "")
}

func toDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
