package users

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes identity, profile, and admin membership persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether any identity already uses the address.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdateEmail rewrites the identity and profile email together. Callers run it inside a transaction.
func (r *Repository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	email = NormalizeEmail(email)
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"email": email, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("id = ?", id).
		Updates(map[string]any{"email": email, "updated_at": time.Now().UTC()}).Error
}

// CreateProfile inserts the customer profile keyed by the identity id.
func (r *Repository) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// FindProfile loads the profile for the identity.
func (r *Repository) FindProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile overwrites the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, phone *string) (*models.UserProfile, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"full_name":  fullName,
			"phone":      phone,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindProfile(ctx, id)
}

// ListProfiles pages through customer profiles, newest first.
func (r *Repository) ListProfiles(ctx context.Context, page pagination.Page, search string) ([]models.UserProfile, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserProfile{})
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("(LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserProfile
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Delete removes the identity with its profile, admin membership, wishlist, and reviews.
// Callers run it inside a transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	for _, child := range []any{&models.WishlistItem{}, &models.Review{}} {
		if err := tx.Where("user_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("id = ?", id).Delete(&models.AdminUser{}).Error; err != nil {
		return err
	}
	if err := tx.Where("id = ?", id).Delete(&models.UserProfile{}).Error; err != nil {
		return err
	}
	res := tx.Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindAdmin loads the admin membership row for the identity.
func (r *Repository) FindAdmin(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.WithContext(ctx).First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// IsAdmin reports whether the identity has an admin_users row.
func (r *Repository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AdminUser{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateAdmin inserts the admin membership row.
func (r *Repository) CreateAdmin(ctx context.Context, admin *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

// ListAdmins returns every admin member ordered by creation.
func (r *Repository) ListAdmins(ctx context.Context) ([]models.AdminUser, error) {
	var rows []models.AdminUser
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
