package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Coupon is an admin authored discount code. MaxDiscountAmount only applies
// to percentage coupons.
type Coupon struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code              string             `gorm:"column:code;not null;uniqueIndex"`
	DiscountType      enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue     decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinOrderAmount    decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,2);not null;default:0"`
	MaxDiscountAmount *decimal.Decimal   `gorm:"column:max_discount_amount;type:numeric(12,2)"`
	IsActive          bool               `gorm:"column:is_active;not null"`
	ExpiresAt         *time.Time         `gorm:"column:expires_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
