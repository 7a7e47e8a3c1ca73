package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO is the catalog shape shared by the admin and storefront reads.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Slug        string           `json:"slug"`
	Description *string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal  `json:"base_price"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Category    *CategorySummary `json:"category,omitempty"`
	HasVariants bool             `json:"has_variants"`
	IsActive    bool             `json:"is_active"`
	Variants    []VariantDTO     `json:"variants"`
	Images      []ImageDTO       `json:"images"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CategorySummary is the embedded category reference.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// VariantDTO exposes a purchasable option.
type VariantDTO struct {
	ID            uuid.UUID       `json:"id"`
	VariantName   string          `json:"variant_name"`
	SKU           *string         `json:"sku,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// ImageDTO is a gallery entry; Order is its position.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	ImageURL string    `json:"image_url"`
	Order    int       `json:"order"`
}

// ReviewSummary aggregates approved reviews only.
type ReviewSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// ProductDetailDTO is returned by the storefront product page.
type ProductDetailDTO struct {
	ProductDTO
	Reviews ReviewSummary `json:"reviews"`
}

// FromModel maps a product and its preloaded associations.
func FromModel(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		BasePrice:   p.BasePrice,
		CategoryID:  p.CategoryID,
		HasVariants: p.HasVariants,
		IsActive:    p.IsActive,
		Variants:    make([]VariantDTO, 0, len(p.Variants)),
		Images:      make([]ImageDTO, 0, len(p.Images)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategorySummary{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	}
	for _, v := range p.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:            v.ID,
			VariantName:   v.VariantName,
			SKU:           v.SKU,
			Price:         v.Price,
			StockQuantity: v.StockQuantity,
		})
	}
	for _, img := range p.Images {
		dto.Images = append(dto.Images, ImageDTO{ID: img.ID, ImageURL: img.ImageURL, Order: img.SortOrder})
	}
	return dto
}

// PrimaryImage returns the first gallery image URL, if any.
func PrimaryImage(p *models.Product) *string {
	if len(p.Images) == 0 {
		return nil
	}
	url := p.Images[0].ImageURL
	return &url
}
