package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"gorm.io/gorm"
)

// RegisterService handles the customer sign up transaction.
type RegisterService interface {
	SignUp(ctx context.Context, req SignUpRequest) error
}

// RegisterServiceParams packages the dependencies for the sign up flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a sign up service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// SignUp creates the identity and the profile in one transaction.
func (s *registerService) SignUp(ctx context.Context, req SignUpRequest) error {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var phone *string
	if req.Phone != nil {
		if trimmed := strings.TrimSpace(*req.Phone); trimmed != "" {
			phone = &trimmed
		}
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		exists, err := repo.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		user, err := repo.Create(ctx, users.CreateUserDTO{Email: email, PasswordHash: passwordHash})
		if err != nil {
			return err
		}
		return repo.CreateProfile(ctx, &models.UserProfile{
			ID:       user.ID,
			Email:    email,
			FullName: fullName,
			Phone:    phone,
		})
	})
	return db.Translate(err, "sign up", "", "email already registered")
}
