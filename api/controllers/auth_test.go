package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubAuthService struct {
	resp      *auth.LoginResponse
	err       error
	adminErr  error
	lastLogin auth.LoginRequest
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.lastLogin = req
	return s.resp, s.err
}

func (s *stubAuthService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.adminErr != nil {
		return nil, s.adminErr
	}
	return s.resp, s.err
}

type stubRegisterService struct {
	err    error
	called bool
}

func (s *stubRegisterService) SignUp(ctx context.Context, req auth.SignUpRequest) error {
	s.called = true
	return s.err
}

func loginResponse(role enums.UserRole) *auth.LoginResponse {
	return &auth.LoginResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Role:         role,
		User:         &users.UserDTO{ID: uuid.New(), Email: "shopper@example.com", FullName: "Asha Rao"},
	}
}

func TestAuthLogin(t *testing.T) {
	svc := &stubAuthService{resp: loginResponse(enums.UserRoleCustomer)}
	body := `{"email":"shopper@example.com","password":"hunter22"}`
	rec := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(AccessTokenHeader) != "access-token" {
		t.Fatalf("expected access token header")
	}
	var envelope struct {
		Data auth.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.RefreshToken != "refresh-token" || envelope.Data.User.Email != "shopper@example.com" {
		t.Fatalf("unexpected body: %+v", envelope.Data)
	}
}

func TestAuthLoginRejectsBadPayload(t *testing.T) {
	svc := &stubAuthService{resp: loginResponse(enums.UserRoleCustomer)}
	for _, body := range []string{`{"email":"not-an-email","password":"x"}`, `{"email":"a@b.co"}`, `{"email":"a@b.co","password":"x","extra":1}`} {
		rec := httptest.NewRecorder()
		AuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, rec.Code)
		}
	}
}

func TestAdminAuthLoginDeniedForCustomers(t *testing.T) {
	svc := &stubAuthService{adminErr: pkgerrors.New(pkgerrors.CodeForbidden, "Access denied")}
	body := `{"email":"shopper@example.com","password":"hunter22"}`
	rec := httptest.NewRecorder()
	AdminAuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString(body)))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error != "Access denied" {
		t.Fatalf("expected Access denied got %q", payload.Error)
	}
	if rec.Header().Get(AccessTokenHeader) != "" {
		t.Fatal("expected no token header on denial")
	}
}

func TestAuthSignUpSignsIn(t *testing.T) {
	reg := &stubRegisterService{}
	svc := &stubAuthService{resp: loginResponse(enums.UserRoleCustomer)}
	body := `{"email":"new@example.com","password":"longenough","full_name":"New Shopper"}`
	rec := httptest.NewRecorder()
	AuthSignUp(reg, svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if !reg.called || svc.lastLogin.Email != "new@example.com" || svc.lastLogin.Password != "longenough" {
		t.Fatalf("expected sign up then login, got %+v", svc.lastLogin)
	}
}

func TestAuthSignUpPropagatesConflict(t *testing.T) {
	reg := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	svc := &stubAuthService{resp: loginResponse(enums.UserRoleCustomer)}
	body := `{"email":"dup@example.com","password":"longenough","full_name":"Dup"}`
	rec := httptest.NewRecorder()
	AuthSignUp(reg, svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(body)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if svc.lastLogin.Email != "" {
		t.Fatal("expected no login after failed sign up")
	}
}

func TestAdminSession(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminSession(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), id.String()))
	rec = httptest.NewRecorder()
	AdminSession(nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
