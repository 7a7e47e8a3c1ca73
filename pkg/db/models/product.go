package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog listing.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Title       string           `gorm:"column:title;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex"`
	Description *string          `gorm:"column:description"`
	BasePrice   decimal.Decimal  `gorm:"column:base_price;type:numeric(12,2);not null"`
	CategoryID  *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Category    *Category        `gorm:"foreignKey:CategoryID"`
	HasVariants bool             `gorm:"column:has_variants;not null;default:false"`
	IsActive    bool             `gorm:"column:is_active;not null"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images      []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductVariant is a purchasable option of a product with its own price.
type ProductVariant struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	VariantName   string          `gorm:"column:variant_name;not null"`
	SKU           *string         `gorm:"column:sku"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// ProductImage is an ordered gallery entry.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	ImageURL  string    `gorm:"column:image_url;not null"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
