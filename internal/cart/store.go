package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const baseVariantKey = "base"

// ProductRef is the catalog snapshot captured when an item is added.
type ProductRef struct {
	ID        uuid.UUID
	Title     string
	Slug      string
	BasePrice decimal.Decimal
}

// VariantRef is the selected variant snapshot.
type VariantRef struct {
	ID    uuid.UUID
	Name  string
	Price decimal.Decimal
}

// Item is one cart line keyed by (product, variant).
type Item struct {
	ProductID    uuid.UUID        `json:"product_id"`
	VariantID    *uuid.UUID       `json:"variant_id,omitempty"`
	Title        string           `json:"title"`
	Slug         string           `json:"slug"`
	VariantName  *string          `json:"variant_name,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
	BasePrice    decimal.Decimal  `json:"base_price"`
	VariantPrice *decimal.Decimal `json:"variant_price,omitempty"`
	Quantity     int              `json:"quantity"`
}

// UnitPrice is the variant price when a variant is selected, else the base price.
func (i Item) UnitPrice() decimal.Decimal {
	if i.VariantPrice != nil {
		return *i.VariantPrice
	}
	return i.BasePrice
}

// LineTotal is UnitPrice times Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) key() string {
	return itemKey(i.ProductID, i.VariantID)
}

func itemKey(productID uuid.UUID, variantID *uuid.UUID) string {
	variant := baseVariantKey
	if variantID != nil {
		variant = variantID.String()
	}
	return productID.String() + ":" + variant
}

// Store is the session cart. It performs no I/O; callers load and save it.
type Store struct {
	items []Item
}

// NewStore seeds a store, dropping lines with a non-positive quantity.
func NewStore(items []Item) *Store {
	s := &Store{}
	for _, item := range items {
		if item.Quantity > 0 {
			s.items = append(s.items, item)
		}
	}
	return s
}

// AddItem increments an existing line or appends a new one with quantity 1.
func (s *Store) AddItem(product ProductRef, variant *VariantRef, image *string) {
	var variantID *uuid.UUID
	if variant != nil {
		id := variant.ID
		variantID = &id
	}
	key := itemKey(product.ID, variantID)
	for i := range s.items {
		if s.items[i].key() == key {
			s.items[i].Quantity++
			return
		}
	}

	item := Item{
		ProductID: product.ID,
		VariantID: variantID,
		Title:     product.Title,
		Slug:      product.Slug,
		ImageURL:  image,
		BasePrice: product.BasePrice,
		Quantity:  1,
	}
	if variant != nil {
		name := variant.Name
		price := variant.Price
		item.VariantName = &name
		item.VariantPrice = &price
	}
	s.items = append(s.items, item)
}

// UpdateQuantity sets the quantity exactly; zero or below removes the line.
func (s *Store) UpdateQuantity(productID uuid.UUID, variantID *uuid.UUID, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID, variantID)
		return
	}
	key := itemKey(productID, variantID)
	for i := range s.items {
		if s.items[i].key() == key {
			s.items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem drops the matching line, if any.
func (s *Store) RemoveItem(productID uuid.UUID, variantID *uuid.UUID) {
	key := itemKey(productID, variantID)
	kept := s.items[:0]
	for _, item := range s.items {
		if item.key() != key {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

// Subtotal sums unit price times quantity over every line.
func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount sums the quantities.
func (s *Store) ItemCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.items = nil
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool {
	return len(s.items) == 0
}
