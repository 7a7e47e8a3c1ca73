package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const (
	requiredMessage = "Title and slug are required"
	conflictMessage = "a product with this slug already exists"
	notFoundMessage = "product not found"
)

// Input carries the editable product fields. Variants without an ID are
// created; variants missing from the list are removed.
type Input struct {
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description *string         `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	IsActive    bool            `json:"is_active"`
	Variants    []VariantInput  `json:"variants"`
	Images      []string        `json:"images"`
}

// VariantInput is one purchasable option in an Input.
type VariantInput struct {
	ID            *uuid.UUID      `json:"id,omitempty"`
	VariantName   string          `json:"variant_name"`
	SKU           *string         `json:"sku,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// Service manages the catalog for the admin console and the storefront.
type Service interface {
	AdminList(ctx context.Context, input AdminListInput) (*pagination.PageResult[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input Input) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context, input StorefrontListInput) (*pagination.CursorResult[ProductDTO], error)
	GetBySlug(ctx context.Context, slug string) (*ProductDetailDTO, error)
}

type service struct {
	repo *Repository
	db   *db.Client
}

// NewService wires the product service.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, db: dbClient}, nil
}

func (s *service) AdminList(ctx context.Context, input AdminListInput) (*pagination.PageResult[ProductDTO], error) {
	input.Page = pagination.NewPage(input.Page.Number, input.Page.Limit)
	rows, total, err := s.repo.AdminList(ctx, input)
	if err != nil {
		return nil, db.Translate(err, "list products", "", "")
	}
	return &pagination.PageResult[ProductDTO]{
		Items: toDTOs(rows),
		Page:  input.Page.Number,
		Limit: input.Page.Limit,
		Total: total,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load product", notFoundMessage, "")
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input Input) (*ProductDTO, error) {
	if strings.TrimSpace(input.Slug) == "" {
		input.Slug = slug.Make(input.Title)
	}
	product, variants, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.CreateProduct(ctx, product); err != nil {
			return err
		}
		if err := txRepo.ReplaceVariants(ctx, product.ID, variants); err != nil {
			return err
		}
		return txRepo.ReplaceImages(ctx, product.ID, cleanImages(input.Images))
	})
	if err != nil {
		return nil, db.Translate(err, "create product", "", conflictMessage)
	}
	return s.Get(ctx, product.ID)
}

// Update overwrites the product; an empty slug is rejected rather than re-derived.
func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*ProductDTO, error) {
	product, variants, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}
	product.ID = id

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateProduct(ctx, product); err != nil {
			return err
		}
		if err := txRepo.ReplaceVariants(ctx, id, variants); err != nil {
			return err
		}
		return txRepo.ReplaceImages(ctx, id, cleanImages(input.Images))
	})
	if err != nil {
		return nil, db.Translate(err, "update product", notFoundMessage, conflictMessage)
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteProduct(ctx, id)
	})
	return db.Translate(err, "delete product", notFoundMessage, "")
}

func (s *service) ListActive(ctx context.Context, input StorefrontListInput) (*pagination.CursorResult[ProductDTO], error) {
	if input.Sort == "" {
		input.Sort = enums.ProductSortNewest
	}
	if !input.Sort.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid sort %q", input.Sort)
	}
	var cursorErr error
	if input.Sort == enums.ProductSortNewest {
		_, cursorErr = pagination.ParseCursor(input.Pagination.Cursor)
	} else {
		_, cursorErr = pagination.ParseOffsetCursor(input.Pagination.Cursor)
	}
	if cursorErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, cursorErr, "invalid cursor")
	}

	rows, next, err := s.repo.ListActive(ctx, input)
	if err != nil {
		return nil, db.Translate(err, "list products", "", "")
	}
	return &pagination.CursorResult[ProductDTO]{Items: toDTOs(rows), NextCursor: next}, nil
}

// GetBySlug loads the product page and its approved review summary concurrently.
func (s *service) GetBySlug(ctx context.Context, value string) (*ProductDetailDTO, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}

	var (
		product *models.Product
		summary ReviewSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.FindActiveBySlug(gctx, value)
		product = p
		return err
	})
	g.Go(func() error {
		sum, err := s.repo.ReviewSummaryBySlug(gctx, value)
		summary = sum
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, db.Translate(err, "load product", notFoundMessage, "")
	}

	return &ProductDetailDTO{ProductDTO: FromModel(product), Reviews: summary}, nil
}

func (s *service) validate(ctx context.Context, input Input) (*models.Product, []models.ProductVariant, error) {
	title := strings.TrimSpace(input.Title)
	value := strings.TrimSpace(input.Slug)
	if title == "" || value == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, requiredMessage)
	}
	if input.BasePrice.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	if input.CategoryID != nil {
		ok, err := s.repo.CategoryExists(ctx, *input.CategoryID)
		if err != nil {
			return nil, nil, db.Translate(err, "load category", "", "")
		}
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "category not found")
		}
	}

	variants := make([]models.ProductVariant, 0, len(input.Variants))
	for _, v := range input.Variants {
		name := strings.TrimSpace(v.VariantName)
		if name == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name is required")
		}
		if v.Price.IsNegative() {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "variant price cannot be negative")
		}
		if v.StockQuantity < 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		variant := models.ProductVariant{
			VariantName:   name,
			SKU:           v.SKU,
			Price:         v.Price,
			StockQuantity: v.StockQuantity,
		}
		if v.ID != nil {
			variant.ID = *v.ID
		}
		variants = append(variants, variant)
	}

	description := input.Description
	if description != nil && strings.TrimSpace(*description) == "" {
		description = nil
	}

	return &models.Product{
		Title:       title,
		Slug:        value,
		Description: description,
		BasePrice:   input.BasePrice,
		CategoryID:  input.CategoryID,
		HasVariants: len(variants) > 0,
		IsActive:    input.IsActive,
	}, variants, nil
}

func cleanImages(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
