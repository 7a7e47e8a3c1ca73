package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const notFoundMessage = "review not found"

type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ReviewSummaryBySlug(ctx context.Context, slug string) (product.ReviewSummary, error)
}

type profileFinder interface {
	FindProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

// ReviewDTO is the review shape; ProductTitle is only set for admins.
type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductTitle string    `json:"product_title,omitempty"`
	Rating       int       `json:"rating"`
	ReviewText   *string   `json:"review_text,omitempty"`
	ReviewerName string    `json:"reviewer_name"`
	IsApproved   bool      `json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubmitInput is a customer review.
type SubmitInput struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	Rating     int       `json:"rating" validate:"min=1,max=5"`
	ReviewText *string   `json:"review_text,omitempty"`
}

// ProductReviews is the public review listing of a product.
type ProductReviews struct {
	Items   []ReviewDTO           `json:"items"`
	Summary product.ReviewSummary `json:"summary"`
}

// Service covers submission, public listing and moderation.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*ReviewDTO, error)
	ListForProduct(ctx context.Context, slug string) (*ProductReviews, error)
	ListAdmin(ctx context.Context, filter enums.ReviewFilter) ([]ReviewDTO, error)
	Approve(ctx context.Context, id uuid.UUID) (*ReviewDTO, error)
	Reject(ctx context.Context, id uuid.UUID) (*ReviewDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	catalog  catalog
	profiles profileFinder
}

func NewService(repo *Repository, catalog catalog, profiles profileFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile finder required")
	}
	return &service{repo: repo, catalog: catalog, profiles: profiles}, nil
}

// Submit stores an unapproved review; it stays hidden until moderated.
func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*ReviewDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	p, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, db.Translate(err, "load product", "product not found", "")
	}
	if !p.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	name := ""
	profile, err := s.profiles.FindProfile(ctx, userID)
	switch {
	case err == nil:
		name = strings.TrimSpace(profile.FullName)
		if name == "" {
			name = profile.Email
		}
	case db.IsNotFound(err):
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile not found")
	default:
		return nil, db.Translate(err, "load profile", "", "")
	}

	var text *string
	if input.ReviewText != nil {
		if trimmed := strings.TrimSpace(*input.ReviewText); trimmed != "" {
			text = &trimmed
		}
	}
	review := &models.Review{
		ProductID:    p.ID,
		UserID:       userID,
		Rating:       input.Rating,
		ReviewText:   text,
		ReviewerName: name,
		IsApproved:   false,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, db.Translate(err, "create review", "", "")
	}
	dto := fromModel(review, "")
	return &dto, nil
}

func (s *service) ListForProduct(ctx context.Context, slug string) (*ProductReviews, error) {
	rows, err := s.repo.ListApprovedBySlug(ctx, slug)
	if err != nil {
		return nil, db.Translate(err, "list reviews", "", "")
	}
	summary, err := s.catalog.ReviewSummaryBySlug(ctx, slug)
	if err != nil {
		return nil, db.Translate(err, "summarize reviews", "", "")
	}
	out := &ProductReviews{Items: make([]ReviewDTO, 0, len(rows)), Summary: summary}
	for i := range rows {
		out.Items = append(out.Items, fromModel(&rows[i], ""))
	}
	return out, nil
}

func (s *service) ListAdmin(ctx context.Context, filter enums.ReviewFilter) ([]ReviewDTO, error) {
	if filter == "" {
		filter = enums.ReviewFilterAll
	}
	if !filter.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid review filter %q", filter)
	}
	rows, err := s.repo.ListAdmin(ctx, filter)
	if err != nil {
		return nil, db.Translate(err, "list reviews", "", "")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i].Review, rows[i].ProductTitle))
	}
	return out, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	return s.setApproved(ctx, id, true)
}

func (s *service) Reject(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	return s.setApproved(ctx, id, false)
}

// setApproved is idempotent: re-applying the current state succeeds.
func (s *service) setApproved(ctx context.Context, id uuid.UUID, approved bool) (*ReviewDTO, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load review", notFoundMessage, "")
	}
	if review.IsApproved != approved {
		if err := s.repo.SetApproved(ctx, id, approved); err != nil {
			return nil, db.Translate(err, "moderate review", notFoundMessage, "")
		}
		review.IsApproved = approved
	}
	dto := fromModel(review, "")
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return db.Translate(s.repo.Delete(ctx, id), "delete review", notFoundMessage, "")
}

func fromModel(r *models.Review, productTitle string) ReviewDTO {
	return ReviewDTO{
		ID:           r.ID,
		ProductID:    r.ProductID,
		ProductTitle: productTitle,
		Rating:       r.Rating,
		ReviewText:   r.ReviewText,
		ReviewerName: r.ReviewerName,
		IsApproved:   r.IsApproved,
		CreatedAt:    r.CreatedAt,
	}
}
