package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func seedUser(t *testing.T, repo *Repository, email, name string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := repo.Create(ctx, CreateUserDTO{Email: email, PasswordHash: "hash"})
	require.NoError(t, err)
	require.NoError(t, repo.CreateProfile(ctx, &models.UserProfile{ID: user.ID, Email: user.Email, FullName: name}))
	return user
}

func TestRepositoryIdentityAndProfile(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user := seedUser(t, repo, " Asha@Example.com ", "Asha")
	assert.Equal(t, "asha@example.com", user.Email)
	assert.True(t, user.IsActive)

	found, err := repo.FindByEmail(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	exists, err := repo.EmailExists(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	now := time.Now().UTC()
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, now))
	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)

	phone := "9876543210"
	profile, err := repo.UpdateProfile(ctx, user.ID, "Asha Rao", &phone)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", profile.FullName)
	require.NotNil(t, profile.Phone)
	assert.Equal(t, phone, *profile.Phone)

	require.NoError(t, repo.UpdateEmail(ctx, user.ID, "new@example.com"))
	reloaded, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", reloaded.Email)
	profile, err = repo.FindProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", profile.Email)

	_, err = repo.UpdateProfile(ctx, uuid.New(), "ghost", nil)
	assert.True(t, db.IsNotFound(err))
}

func TestRepositoryDuplicateEmail(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	repo := NewRepository(conn)

	seedUser(t, repo, "dup@example.com", "First")
	_, err := repo.Create(context.Background(), CreateUserDTO{Email: "DUP@example.com", PasswordHash: "hash"})
	require.Error(t, err)

	translated := db.Translate(err, "create user", "", "email already registered")
	assert.True(t, pkgerrors.IsCode(translated, pkgerrors.CodeConflict))
}

func TestRepositoryListProfilesSearchAndPaging(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedUser(t, repo, "meera@example.com", "Meera")
	seedUser(t, repo, "ravi@example.com", "Ravi Kumar")
	seedUser(t, repo, "kumar@example.com", "Anil")

	rows, total, err := repo.ListProfiles(ctx, pagination.NewPage(1, 10), "kumar")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)

	rows, total, err = repo.ListProfiles(ctx, pagination.NewPage(2, 2), "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 1)
}

func TestRepositoryDeleteRemovesDependents(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user := seedUser(t, repo, "gone@example.com", "Gone")
	require.NoError(t, repo.CreateAdmin(ctx, &models.AdminUser{ID: user.ID, Email: user.Email, Role: enums.AdminRoleAdmin}))
	require.NoError(t, conn.Create(&models.WishlistItem{UserID: user.ID, ProductID: uuid.New()}).Error)
	require.NoError(t, conn.Create(&models.Review{ProductID: uuid.New(), UserID: user.ID, Rating: 4, ReviewerName: "Gone"}).Error)

	require.NoError(t, repo.Delete(ctx, user.ID))

	for _, model := range []any{&models.WishlistItem{}, &models.Review{}} {
		var count int64
		require.NoError(t, conn.Model(model).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Zero(t, count)
	}
	isAdmin, err := repo.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)
	_, err = repo.FindProfile(ctx, user.ID)
	assert.True(t, db.IsNotFound(err))

	assert.True(t, db.IsNotFound(repo.Delete(ctx, user.ID)))
}
