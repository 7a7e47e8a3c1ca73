package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Phone       *string    `json:"phone,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ProfileDTO is the customer profile returned by /api/profile and the admin user list.
type ProfileDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminDTO describes a back-office member.
type AdminDTO struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Role      enums.AdminRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	IsActive     *bool
}

// FromModel maps the identity row plus its optional profile.
func FromModel(u *models.User, profile *models.UserProfile) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if profile != nil {
		dto.FullName = profile.FullName
		dto.Phone = profile.Phone
	}
	return dto
}

func ProfileFromModel(p *models.UserProfile) ProfileDTO {
	return ProfileDTO{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
	}
}

func AdminFromModel(a *models.AdminUser) AdminDTO {
	return AdminDTO{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	return &models.User{
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		IsActive:     isActive,
	}
}

// NormalizeEmail lower-cases and trims an address before it is stored or compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
