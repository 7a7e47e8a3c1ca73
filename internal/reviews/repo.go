package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AdminRow is a review joined with its product title.
type AdminRow struct {
	models.Review
	ProductTitle string `gorm:"column:product_title"`
}

// Repository persists reviews.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListApprovedBySlug returns the public reviews of an active product.
func (r *Repository) ListApprovedBySlug(ctx context.Context, slug string) ([]models.Review, error) {
	var rows []models.Review
	if err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = reviews.product_id").
		Where("products.slug = ? AND products.is_active = ? AND reviews.is_approved = ?", slug, true, true).
		Order("reviews.created_at DESC").
		Order("reviews.id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListAdmin(ctx context.Context, filter enums.ReviewFilter) ([]AdminRow, error) {
	query := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, COALESCE(products.title, '') AS product_title").
		Joins("LEFT JOIN products ON products.id = reviews.product_id")
	switch filter {
	case enums.ReviewFilterApproved:
		query = query.Where("reviews.is_approved = ?", true)
	case enums.ReviewFilterPending:
		query = query.Where("reviews.is_approved = ?", false)
	}
	var rows []AdminRow
	if err := query.Order("reviews.created_at DESC").Order("reviews.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Update("is_approved", approved).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
