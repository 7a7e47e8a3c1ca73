package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is a placed checkout. Items are snapshots and never follow later
// catalog edits.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid;index"`
	CustomerName    string                `gorm:"column:customer_name;not null"`
	CustomerEmail   string                `gorm:"column:customer_email;not null"`
	CustomerPhone   string                `gorm:"column:customer_phone;not null"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'Pending'"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;not null"`
	CouponCode      *string               `gorm:"column:coupon_code"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	ShippingFee     decimal.Decimal       `gorm:"column:shipping_fee;type:numeric(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem captures the purchased line at order time.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VariantID    *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	ProductTitle string          `gorm:"column:product_title;not null"`
	VariantName  *string         `gorm:"column:variant_name"`
	ImageURL     *string         `gorm:"column:image_url"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice   decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
