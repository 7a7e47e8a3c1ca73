package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// ProfileService reads and edits the signed-in customer's profile.
type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*users.ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*users.ProfileDTO, error)
}

type profileRepository interface {
	FindProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, phone *string) (*models.UserProfile, error)
}

type profileService struct {
	repo profileRepository
}

// NewProfileService builds the profile service.
func NewProfileService(repo profileRepository) (ProfileService, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	return &profileService{repo: repo}, nil
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*users.ProfileDTO, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return nil, db.Translate(err, "load profile", "profile not found", "")
	}
	dto := users.ProfileFromModel(profile)
	return &dto, nil
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*users.ProfileDTO, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	var phone *string
	if req.Phone != nil {
		if trimmed := strings.TrimSpace(*req.Phone); trimmed != "" {
			phone = &trimmed
		}
	}
	profile, err := s.repo.UpdateProfile(ctx, userID, fullName, phone)
	if err != nil {
		return nil, db.Translate(err, "update profile", "profile not found", "")
	}
	dto := users.ProfileFromModel(profile)
	return &dto, nil
}
