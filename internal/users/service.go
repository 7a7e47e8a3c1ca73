package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes the admin user management operations.
type Service interface {
	List(ctx context.Context, input ListInput) (*pagination.PageResult[ProfileDTO], error)
	Delete(ctx context.Context, actorID, userID uuid.UUID) error
	CreateAdmin(ctx context.Context, input CreateAdminInput) (*AdminDTO, error)
	ListAdmins(ctx context.Context) ([]AdminDTO, error)
}

// ListInput filters the admin user listing.
type ListInput struct {
	Page   pagination.Page
	Search string
}

// CreateAdminInput promotes an existing identity or creates a new one.
type CreateAdminInput struct {
	Email    string
	Password string
	FullName string
	Role     enums.AdminRole
}

type service struct {
	repo        *Repository
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewService builds the admin users service.
func NewService(repo *Repository, dbClient *db.Client, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, db: dbClient, passwordCfg: passwordCfg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*pagination.PageResult[ProfileDTO], error) {
	page := pagination.NewPage(input.Page.Number, input.Page.Limit)
	rows, total, err := s.repo.ListProfiles(ctx, page, input.Search)
	if err != nil {
		return nil, db.Translate(err, "list users", "", "")
	}
	items := make([]ProfileDTO, 0, len(rows))
	for i := range rows {
		items = append(items, ProfileFromModel(&rows[i]))
	}
	return &pagination.PageResult[ProfileDTO]{
		Items: items,
		Page:  page.Number,
		Limit: page.Limit,
		Total: total,
	}, nil
}

func (s *service) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return pkgerrors.New(pkgerrors.CodeValidation, "you cannot delete your own account")
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return NewRepository(tx).Delete(ctx, userID)
	})
	return db.Translate(err, "delete user", "user not found", "")
}

func (s *service) CreateAdmin(ctx context.Context, input CreateAdminInput) (*AdminDTO, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	role := input.Role
	if role == "" {
		role = enums.AdminRoleAdmin
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid admin role")
	}

	var created *models.AdminUser
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		user, err := repo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			isAdmin, err := repo.IsAdmin(ctx, user.ID)
			if err != nil {
				return err
			}
			if isAdmin {
				return pkgerrors.New(pkgerrors.CodeConflict, "user is already an admin")
			}
		case db.IsNotFound(err):
			user, err = s.createIdentity(ctx, repo, email, input.Password, input.FullName)
			if err != nil {
				return err
			}
		default:
			return err
		}

		created = &models.AdminUser{ID: user.ID, Email: user.Email, Role: role}
		return repo.CreateAdmin(ctx, created)
	})
	if err != nil {
		return nil, db.Translate(err, "create admin", "user not found", "user is already an admin")
	}
	dto := AdminFromModel(created)
	return &dto, nil
}

func (s *service) createIdentity(ctx context.Context, repo *Repository, email, password, fullName string) (*models.User, error) {
	if err := security.ValidatePassword(password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user, err := repo.Create(ctx, CreateUserDTO{Email: email, PasswordHash: hash})
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(fullName)
	if name == "" {
		name = email
	}
	if err := repo.CreateProfile(ctx, &models.UserProfile{ID: user.ID, Email: email, FullName: name}); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) ListAdmins(ctx context.Context) ([]AdminDTO, error) {
	rows, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return nil, db.Translate(err, "list admins", "", "")
	}
	out := make([]AdminDTO, 0, len(rows))
	for i := range rows {
		out = append(out, AdminFromModel(&rows[i]))
	}
	return out, nil
}
