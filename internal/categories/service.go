package categories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	requiredMessage = "Name and slug are required"
	conflictMessage = "a category with this slug already exists"
)

// CategoryDTO is the public category shape.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input carries the editable category fields.
type Input struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
}

// Service manages categories for the admin console and the storefront.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	Create(ctx context.Context, input Input) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService constructs the category service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, db.Translate(err, "list categories", "", "")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

// Create derives the slug from the name when none is supplied.
func (s *service) Create(ctx context.Context, input Input) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	value := strings.TrimSpace(input.Slug)
	if value == "" {
		value = slug.Make(name)
	}
	if name == "" || value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, requiredMessage)
	}

	category := &models.Category{
		Name:        name,
		Slug:        value,
		Description: trimmedOrNil(input.Description),
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, db.Translate(err, "create category", "", conflictMessage)
	}
	dto := fromModel(category)
	return &dto, nil
}

// Update never re-derives the slug.
func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	value := strings.TrimSpace(input.Slug)
	if name == "" || value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, requiredMessage)
	}

	category := &models.Category{
		ID:          id,
		Name:        name,
		Slug:        value,
		Description: trimmedOrNil(input.Description),
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, db.Translate(err, "update category", "category not found", conflictMessage)
	}
	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load category", "category not found", "")
	}
	dto := fromModel(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return db.Translate(s.repo.Delete(ctx, id), "delete category", "category not found", "")
}

func fromModel(c *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
