package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAdmins struct {
	ids map[uuid.UUID]bool
}

func (s stubAdmins) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.ids[id], nil
}

type stubAuthService struct {
	calls int
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.calls++
	return &auth.LoginResponse{}, nil
}

func (s *stubAuthService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

type stubCartService struct {
	cart.Service
	token string
}

func (s *stubCartService) Get(ctx context.Context, token string) (*cart.View, error) {
	s.token = token
	return &cart.View{Items: []cart.Item{}}, nil
}

type memoryRateStore struct {
	counts map[string]int64
}

func (m *memoryRateStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryRateStore) RateLimitKey(scope string) string {
	return "test:rl:" + scope
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    2,
			LoginEmailLimit: 10,
		},
		Media: config.MediaConfig{MaxUploadBytes: 5 << 20},
	}
}

func testDeps(cfg *config.Config) Deps {
	return Deps{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard}),
		Ready:    map[string]controllers.Pinger{"db": stubPinger{}, "redis": stubPinger{}},
		Sessions: stubSessionManager{},
		Admins:   stubAdmins{},
	}
}

func buildToken(t *testing.T, cfg *config.Config, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "someone@example.com",
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := NewRouter(testDeps(testConfig()))
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	deps := testDeps(testConfig())
	deps.Ready["redis"] = stubPinger{err: fmt.Errorf("down")}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAdminRoutesRejectMissingJWT(t *testing.T) {
	router := NewRouter(testDeps(testConfig()))
	for _, path := range []string{"/api/admin/session", "/api/admin/stats", "/api/admin/products"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", path, resp.Code)
		}
	}
}

func TestAdminRoutesCheckAdminTable(t *testing.T) {
	cfg := testConfig()
	adminID := uuid.New()
	deps := testDeps(cfg)
	deps.Admins = stubAdmins{ids: map[uuid.UUID]bool{adminID: true}}
	router := NewRouter(deps)

	// A customer holding an admin role claim is still refused.
	outsider := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	outsider.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, outsider)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, adminID, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminLoginIsPublic(t *testing.T) {
	deps := testDeps(testConfig())
	deps.Auth = &stubAuthService{}
	router := NewRouter(deps)

	body := `{"email":"admin@example.com","password":"secret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestLoginRateLimitedPerIP(t *testing.T) {
	authSvc := &stubAuthService{}
	deps := testDeps(testConfig())
	deps.Auth = authSvc
	deps.RateStore = &memoryRateStore{}
	router := NewRouter(deps)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{"email":"user%d@example.com","password":"secret-pass"}`, i)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third attempt got %d", last.Code)
	}
	if authSvc.calls != 2 {
		t.Fatalf("expected 2 logins to reach the service, got %d", authSvc.calls)
	}
}

func TestCartEchoesSessionHeader(t *testing.T) {
	cartSvc := &stubCartService{}
	deps := testDeps(testConfig())
	deps.Cart = cartSvc
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	minted := resp.Header().Get(middleware.CartSessionHeader)
	if minted == "" || minted != cartSvc.token {
		t.Fatalf("expected minted token to reach the service, header=%q svc=%q", minted, cartSvc.token)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(middleware.CartSessionHeader, minted)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get(middleware.CartSessionHeader); got != minted {
		t.Fatalf("expected token %q to be kept, got %q", minted, got)
	}
}

func TestWishlistRequiresAuth(t *testing.T) {
	router := NewRouter(testDeps(testConfig()))
	req := httptest.NewRequest(http.MethodGet, "/api/wishlist/check", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMissingServiceAnswersInternal(t *testing.T) {
	router := NewRouter(testDeps(testConfig()))
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["code"] != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR code, got %v", payload["code"])
	}
}

func TestMetricsEndpointExposesRequestCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	deps := testDeps(testConfig())
	deps.HTTPMetrics = metrics.NewHTTPMetrics(reg)
	deps.Gatherer = reg
	router := NewRouter(deps)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "storefront_http_requests_total") {
		t.Fatalf("expected request counter in exposition")
	}
}
