package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "storefront",
	ExpirationMinutes: 30,
}

func TestServiceLoginIssuesCustomerToken(t *testing.T) {
	user := newTestUser(t, "shopper@example.com", "hunter2hunter2")
	repo := &stubUserRepo{user: user, profile: &models.UserProfile{ID: user.ID, Email: user.Email, FullName: "Shopper"}}
	sessions := newStubSessionManager()

	svc := mustService(t, repo, sessions)
	resp, err := svc.Login(context.Background(), LoginRequest{Email: "  SHOPPER@example.com ", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", claims.Role)
	}
	if _, ok := sessions.active[claims.ID]; !ok {
		t.Fatalf("expected session %s to be stored", claims.ID)
	}
	if resp.User.FullName != "Shopper" {
		t.Fatalf("expected profile name, got %q", resp.User.FullName)
	}
	if repo.lastLogin.IsZero() {
		t.Fatal("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadPassword(t *testing.T) {
	user := newTestUser(t, "shopper@example.com", "hunter2hunter2")
	svc := mustService(t, &stubUserRepo{user: user}, newStubSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong-password"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginRejectsUnknownEmail(t *testing.T) {
	svc := mustService(t, &stubUserRepo{}, newStubSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceAdminLoginRequiresAdminRow(t *testing.T) {
	user := newTestUser(t, "shopper@example.com", "hunter2hunter2")
	sessions := newStubSessionManager()
	svc := mustService(t, &stubUserRepo{user: user, isAdmin: false}, sessions)

	_, err := svc.AdminLogin(context.Background(), LoginRequest{Email: user.Email, Password: "hunter2hunter2"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if typed.Message() != "Access denied" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	if len(sessions.active) != 0 {
		t.Fatalf("expected no residual session, found %d", len(sessions.active))
	}
	if sessions.revoked != 1 {
		t.Fatalf("expected one revoke, got %d", sessions.revoked)
	}
}

func TestServiceAdminLoginSucceedsForAdmin(t *testing.T) {
	user := newTestUser(t, "admin@example.com", "hunter2hunter2")
	sessions := newStubSessionManager()
	svc := mustService(t, &stubUserRepo{user: user, isAdmin: true}, sessions)

	resp, err := svc.AdminLogin(context.Background(), LoginRequest{Email: user.Email, Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.IsAdmin() {
		t.Fatalf("expected admin claim, got %s", claims.Role)
	}
	if len(sessions.active) != 1 {
		t.Fatalf("expected active session, got %d", len(sessions.active))
	}
}

func TestServiceAdminLoginLookupFailureRevokes(t *testing.T) {
	user := newTestUser(t, "admin@example.com", "hunter2hunter2")
	sessions := newStubSessionManager()
	svc := mustService(t, &stubUserRepo{user: user, adminErr: errors.New("db down")}, sessions)

	_, err := svc.AdminLogin(context.Background(), LoginRequest{Email: user.Email, Password: "hunter2hunter2"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(sessions.active) != 0 {
		t.Fatal("expected session to be revoked")
	}
}

func mustService(t *testing.T, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, JWTConfig: testJWT})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func newTestUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{ID: uuid.New(), Email: email, PasswordHash: hash, IsActive: true}
}

type stubUserRepo struct {
	user      *models.User
	profile   *models.UserProfile
	isAdmin   bool
	adminErr  error
	lastLogin time.Time
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	if s.profile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.profile, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = at
	return nil
}

func (s *stubUserRepo) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.isAdmin, s.adminErr
}

type stubSessionManager struct {
	active  map[string]string
	revoked int
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{active: map[string]string{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.active[accessID] = "refresh-" + accessID
	return s.active[accessID], nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(s.active, accessID)
	s.revoked++
	return nil
}
