package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository runs the aggregate queries behind the admin overview.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) count(ctx context.Context, model any, where string, args ...any) (int64, error) {
	var n int64
	query := r.db.WithContext(ctx).Model(model)
	if where != "" {
		query = query.Where(where, args...)
	}
	err := query.Count(&n).Error
	return n, err
}

func (r *Repository) CountProducts(ctx context.Context) (total, active int64, err error) {
	if total, err = r.count(ctx, &models.Product{}, ""); err != nil {
		return 0, 0, err
	}
	active, err = r.count(ctx, &models.Product{}, "is_active = ?", true)
	return total, active, err
}

func (r *Repository) OrdersByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// DeliveredRevenue sums totals of delivered orders only.
func (r *Repository) DeliveredRevenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status = ?", enums.OrderStatusDelivered).
		Row()
	if err := row.Scan(&revenue); err != nil {
		return decimal.Zero, err
	}
	return revenue, nil
}

func (r *Repository) PendingReviews(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Review{}, "is_approved = ?", false)
}

func (r *Repository) NewMessages(ctx context.Context) (contact, faq int64, err error) {
	if contact, err = r.count(ctx, &models.ContactMessage{}, "status = ?", enums.MessageStatusNew); err != nil {
		return 0, 0, err
	}
	faq, err = r.count(ctx, &models.FaqQuestion{}, "status = ?", enums.MessageStatusNew)
	return contact, faq, err
}

func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.UserProfile{}, "")
}
