package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ContactMessage is a storefront contact form submission.
type ContactMessage struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID    *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	Name      string              `gorm:"column:name;not null"`
	Email     string              `gorm:"column:email;not null"`
	Phone     *string             `gorm:"column:phone"`
	Message   string              `gorm:"column:message;not null"`
	Status    enums.MessageStatus `gorm:"column:status;not null;default:'new'"`
	Reply     *string             `gorm:"column:reply"`
	RepliedAt *time.Time          `gorm:"column:replied_at"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *ContactMessage) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// FaqQuestion is a question asked from the FAQ page.
type FaqQuestion struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID     *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	Name       string              `gorm:"column:name;not null"`
	Email      string              `gorm:"column:email;not null"`
	Question   string              `gorm:"column:question;not null"`
	Status     enums.MessageStatus `gorm:"column:status;not null;default:'new'"`
	Answer     *string             `gorm:"column:answer"`
	AnsweredAt *time.Time          `gorm:"column:answered_at"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (q *FaqQuestion) BeforeCreate(*gorm.DB) error {
	assignID(&q.ID)
	return nil
}
