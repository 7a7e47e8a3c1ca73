package product

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
)

// AdminListInput filters the back-office product table.
type AdminListInput struct {
	Page       pagination.Page
	Search     string
	CategoryID *uuid.UUID
	Active     *bool
}

// StorefrontListInput captures the shop page knobs. Only active products are returned.
type StorefrontListInput struct {
	Pagination   pagination.Params
	CategorySlug string
	Search       string
	Sort         enums.ProductSort
}
