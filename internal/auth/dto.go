package auth

import (
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoints.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest creates a storefront customer.
type SignUpRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName string  `json:"full_name" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// UpdateProfileRequest edits the customer profile.
type UpdateProfileRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginResponse contains the token pair and the signed-in user.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Role         enums.UserRole `json:"role"`
	User         *users.UserDTO `json:"user"`
}
