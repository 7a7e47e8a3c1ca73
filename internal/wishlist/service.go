package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
	ProductRepo  catalog
}

// Service exposes business rules for wishlist management.
type Service interface {
	Toggle(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error)
	Check(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.CursorResult[ItemDTO], error)
}

type service struct {
	wishlistRepo *Repository
	productRepo  catalog
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repo is required")
	}
	return &service{
		wishlistRepo: params.WishlistRepo,
		productRepo:  params.ProductRepo,
	}, nil
}

// Toggle removes the product when present and adds it otherwise.
func (s *service) Toggle(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error) {
	if err := requireIDs(userID, productID); err != nil {
		return ToggleResult{}, err
	}
	removed, err := s.wishlistRepo.RemoveItem(ctx, userID, productID)
	if err != nil {
		return ToggleResult{}, db.Translate(err, "update wishlist", "", "")
	}
	if removed {
		return ToggleResult{Wishlisted: false}, nil
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return ToggleResult{}, db.Translate(err, "load product", "product not found", "")
	}
	if err := s.wishlistRepo.AddItem(ctx, userID, productID); err != nil {
		return ToggleResult{}, db.Translate(err, "update wishlist", "", "")
	}
	return ToggleResult{Wishlisted: true}, nil
}

func (s *service) Check(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error) {
	if err := requireIDs(userID, productID); err != nil {
		return ToggleResult{}, err
	}
	ok, err := s.wishlistRepo.Exists(ctx, userID, productID)
	if err != nil {
		return ToggleResult{}, db.Translate(err, "check wishlist", "", "")
	}
	return ToggleResult{Wishlisted: ok}, nil
}

// List pages the wishlist newest first and attaches the product of each row.
func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.CursorResult[ItemDTO], error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.wishlistRepo.ListItems(ctx, userID, params.Cursor, params.Limit)
	if err != nil {
		return nil, db.Translate(err, "list wishlist", "", "")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, db.Translate(err, "load wishlist products", "", "")
	}
	byID := make(map[uuid.UUID]*models.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		p, ok := byID[row.ProductID]
		if !ok {
			continue
		}
		items = append(items, ItemDTO{Product: product.FromModel(p), CreatedAt: row.CreatedAt})
	}
	return &pagination.CursorResult[ItemDTO]{Items: items, NextCursor: next}, nil
}

func requireIDs(userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	return nil
}
