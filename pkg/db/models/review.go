package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a customer rating of a product. Only approved reviews are public.
type Review struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Rating       int       `gorm:"column:rating;not null"`
	ReviewText   *string   `gorm:"column:review_text"`
	ReviewerName string    `gorm:"column:reviewer_name;not null"`
	IsApproved   bool      `gorm:"column:is_approved;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
