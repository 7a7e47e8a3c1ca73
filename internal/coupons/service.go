package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	conflictMessage = "a coupon with this code already exists"
	notFoundMessage = "coupon not found"
	invalidCode     = "Invalid coupon code"
)

// CouponDTO is the admin coupon shape.
type CouponDTO struct {
	ID                uuid.UUID          `json:"id"`
	Code              string             `json:"code"`
	DiscountType      enums.DiscountType `json:"discount_type"`
	DiscountValue     decimal.Decimal    `json:"discount_value"`
	MinOrderAmount    decimal.Decimal    `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount,omitempty"`
	IsActive          bool               `json:"is_active"`
	ExpiresAt         *time.Time         `json:"expires_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// Input carries the editable coupon fields.
type Input struct {
	Code              string             `json:"code"`
	DiscountType      enums.DiscountType `json:"discount_type"`
	DiscountValue     decimal.Decimal    `json:"discount_value"`
	MinOrderAmount    decimal.Decimal    `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount,omitempty"`
	IsActive          bool               `json:"is_active"`
	ExpiresAt         *time.Time         `json:"expires_at,omitempty"`
}

// ValidationResult is returned to the storefront when a code is checked.
type ValidationResult struct {
	Code               string          `json:"code"`
	Discount           decimal.Decimal `json:"discount"`
	TotalAfterDiscount decimal.Decimal `json:"total_after_discount"`
}

// Service manages coupons.
type Service interface {
	List(ctx context.Context) ([]CouponDTO, error)
	Create(ctx context.Context, input Input) (*CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*CouponDTO, error)
	Toggle(ctx context.Context, id uuid.UUID) (*CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*ValidationResult, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds the coupon service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, db.Translate(err, "list coupons", "", "")
	}
	out := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input Input) (*CouponDTO, error) {
	coupon, err := normalize(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, coupon); err != nil {
		return nil, db.Translate(err, "create coupon", "", conflictMessage)
	}
	dto := fromModel(coupon)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*CouponDTO, error) {
	coupon, err := normalize(input)
	if err != nil {
		return nil, err
	}
	coupon.ID = id
	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, db.Translate(err, "update coupon", notFoundMessage, conflictMessage)
	}
	return s.get(ctx, id)
}

func (s *service) Toggle(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load coupon", notFoundMessage, "")
	}
	if err := s.repo.SetActive(ctx, id, !coupon.IsActive); err != nil {
		return nil, db.Translate(err, "toggle coupon", notFoundMessage, "")
	}
	return s.get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return db.Translate(s.repo.Delete(ctx, id), "delete coupon", notFoundMessage, "")
}

func (s *service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*ValidationResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coupon code is required")
	}
	if subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, db.Translate(err, "load coupon", invalidCode, "")
	}
	discount, err := Apply(coupon, subtotal, s.now())
	if err != nil {
		return nil, err
	}
	return &ValidationResult{
		Code:               coupon.Code,
		Discount:           discount,
		TotalAfterDiscount: subtotal.Sub(discount),
	}, nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load coupon", notFoundMessage, "")
	}
	dto := fromModel(coupon)
	return &dto, nil
}

func normalize(input Input) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coupon code is required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid discount type %q", input.DiscountType)
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be greater than zero")
	}
	if input.MinOrderAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order amount cannot be negative")
	}

	maxDiscount := input.MaxDiscountAmount
	if input.DiscountType == enums.DiscountTypePercentage {
		if input.DiscountValue.GreaterThan(hundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount must be between 0 and 100")
		}
		if maxDiscount != nil && maxDiscount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "maximum discount cannot be negative")
		}
	} else {
		maxDiscount = nil
	}

	return &models.Coupon{
		Code:              code,
		DiscountType:      input.DiscountType,
		DiscountValue:     input.DiscountValue,
		MinOrderAmount:    input.MinOrderAmount,
		MaxDiscountAmount: maxDiscount,
		IsActive:          input.IsActive,
		ExpiresAt:         input.ExpiresAt,
	}, nil
}

func fromModel(c *models.Coupon) CouponDTO {
	return CouponDTO{
		ID:                c.ID,
		Code:              c.Code,
		DiscountType:      c.DiscountType,
		DiscountValue:     c.DiscountValue,
		MinOrderAmount:    c.MinOrderAmount,
		MaxDiscountAmount: c.MaxDiscountAmount,
		IsActive:          c.IsActive,
		ExpiresAt:         c.ExpiresAt,
		CreatedAt:         c.CreatedAt,
	}
}
