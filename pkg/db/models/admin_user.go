package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AdminUser grants back-office access to an identity. Membership in this
// table is the only source of admin rights.
type AdminUser struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Email     string          `gorm:"column:email;not null"`
	Role      enums.AdminRole `gorm:"column:role;not null;default:'admin'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
