package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ItemInput is one requested line. Prices are never accepted from clients.
type ItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"gte=1"`
}

// CreateOrderInput is the order placement payload.
type CreateOrderInput struct {
	// OrderID lets checkout reserve the id before placement so a retry can
	// find the order instead of creating another one.
	OrderID         *uuid.UUID            `json:"-"`
	UserID          *uuid.UUID            `json:"-"`
	CustomerName    string                `json:"customer_name" validate:"required"`
	CustomerEmail   string                `json:"customer_email" validate:"required,email"`
	CustomerPhone   string                `json:"customer_phone" validate:"required"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method" validate:"required"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	Items           []ItemInput           `json:"items" validate:"required,min=1,dive"`
}

// ListInput filters the admin orders table.
type ListInput struct {
	Page   pagination.Page
	Status *enums.OrderStatus
	Search string
}

// OrderItemDTO is a snapshotted order line.
type OrderItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    *uuid.UUID      `json:"product_id,omitempty"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	ProductTitle string          `json:"product_title"`
	VariantName  *string         `json:"variant_name,omitempty"`
	ImageURL     *string         `json:"image_url,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// OrderDTO is returned to customers and admins.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	Ref             string                `json:"ref"`
	UserID          *uuid.UUID            `json:"user_id,omitempty"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	CustomerPhone   string                `json:"customer_phone"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	Status          enums.OrderStatus     `json:"status"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	ShippingFee     decimal.Decimal       `json:"shipping_fee"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	Items           []OrderItemDTO        `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Ref is the short customer-facing order reference.
func Ref(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

// FromModel maps an order and its preloaded items.
func FromModel(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		Ref:             Ref(o.ID),
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: o.ShippingAddress,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		CouponCode:      o.CouponCode,
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		ShippingFee:     o.ShippingFee,
		TotalAmount:     o.TotalAmount,
		Items:           make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:           item.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			ProductTitle: item.ProductTitle,
			VariantName:  item.VariantName,
			ImageURL:     item.ImageURL,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			TotalPrice:   item.TotalPrice,
		})
	}
	return dto
}
