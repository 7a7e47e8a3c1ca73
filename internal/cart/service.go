package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Sessions loads and saves carts by session token.
type Sessions interface {
	Load(ctx context.Context, token string) (*Store, error)
	Save(ctx context.Context, token string, store *Store) error
	Delete(ctx context.Context, token string) error
}

// ItemRef identifies a cart line.
type ItemRef struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
}

// QuantityInput sets a line quantity.
type QuantityInput struct {
	ItemRef
	Quantity int `json:"quantity"`
}

// View is the cart as returned to the storefront.
type View struct {
	Items     []Item          `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

// Service manages the session cart. Prices always come from the catalog.
type Service interface {
	Get(ctx context.Context, token string) (*View, error)
	AddItem(ctx context.Context, token string, ref ItemRef) (*View, error)
	UpdateQuantity(ctx context.Context, token string, input QuantityInput) (*View, error)
	RemoveItem(ctx context.Context, token string, ref ItemRef) (*View, error)
	Clear(ctx context.Context, token string) error
}

type service struct {
	sessions Sessions
	catalog  catalog
}

// NewService builds the cart service.
func NewService(sessions Sessions, catalog catalog) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &service{sessions: sessions, catalog: catalog}, nil
}

// NewView renders a store.
func NewView(store *Store) *View {
	return &View{Items: store.Items(), Subtotal: store.Subtotal(), ItemCount: store.ItemCount()}
}

func (s *service) Get(ctx context.Context, token string) (*View, error) {
	store, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return NewView(store), nil
}

func (s *service) AddItem(ctx context.Context, token string, ref ItemRef) (*View, error) {
	p, err := s.catalog.FindByID(ctx, ref.ProductID)
	if err != nil {
		return nil, db.Translate(err, "load product", "product not found", "")
	}
	if !p.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	var variant *VariantRef
	if ref.VariantID != nil {
		for _, v := range p.Variants {
			if v.ID == *ref.VariantID {
				variant = &VariantRef{ID: v.ID, Name: v.VariantName, Price: v.Price}
				break
			}
		}
		if variant == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
		}
	}

	store, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	store.AddItem(ProductRef{ID: p.ID, Title: p.Title, Slug: p.Slug, BasePrice: p.BasePrice}, variant, product.PrimaryImage(p))
	return s.save(ctx, token, store)
}

func (s *service) UpdateQuantity(ctx context.Context, token string, input QuantityInput) (*View, error) {
	store, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	store.UpdateQuantity(input.ProductID, input.VariantID, input.Quantity)
	return s.save(ctx, token, store)
}

func (s *service) RemoveItem(ctx context.Context, token string, ref ItemRef) (*View, error) {
	store, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	store.RemoveItem(ref.ProductID, ref.VariantID)
	return s.save(ctx, token, store)
}

func (s *service) Clear(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) load(ctx context.Context, token string) (*Store, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	store, err := s.sessions.Load(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return store, nil
}

func (s *service) save(ctx context.Context, token string, store *Store) (*View, error) {
	if err := s.sessions.Save(ctx, token, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return NewView(store), nil
}
