package wishlist

import (
	"time"

	product "github.com/angelmondragon/storefront-backend/internal/products"
)

// ItemDTO is one liked product in the wishlist page.
type ItemDTO struct {
	Product   product.ProductDTO `json:"product"`
	CreatedAt time.Time          `json:"created_at"`
}

// ToggleResult reports the state after a toggle or check.
type ToggleResult struct {
	Wishlisted bool `json:"wishlisted"`
}
