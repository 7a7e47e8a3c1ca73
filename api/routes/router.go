package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/dashboard"
	"github.com/angelmondragon/storefront-backend/internal/emailchange"
	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/internal/messages"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/settings"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// SessionManager is the Redis-backed session surface used by auth middleware
// and the logout/refresh handlers.
type SessionManager interface {
	session.AccessSessionChecker
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Deps carries everything the HTTP surface needs. Nil services produce
// handlers that answer with an INTERNAL error instead of panicking.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Ready       map[string]controllers.Pinger
	RateStore   middleware.RateLimitStore
	Sessions    SessionManager
	Admins      middleware.AdminChecker
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth        auth.Service
	Register    auth.RegisterService
	Profile     auth.ProfileService
	EmailChange emailchange.Service
	Products    product.Service
	Categories  categories.Service
	Cart        cart.Service
	Checkout    checkout.Service
	Orders      orders.Service
	Coupons     coupons.Service
	Reviews     reviews.Service
	Messages    messages.Service
	Wishlist    wishlist.Service
	Settings    settings.Service
	Users       users.Service
	Media       media.Service
	Dashboard   dashboard.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if d.HTTPMetrics != nil {
		r.Use(middleware.Metrics(d.HTTPMetrics))
	}
	r.Use(middleware.CORS(cfg.CORS))

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)
	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp",
		cfg.AuthRateLimit.OTPWindow,
		cfg.AuthRateLimit.OTPIPLimit,
		cfg.AuthRateLimit.OTPEmailLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Sessions, logg)
	cartSession := middleware.CartSession(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Ready))
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.RateStore, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(middleware.AuthRateLimit(signupPolicy, d.RateStore, logg)).Post("/signup", controllers.AuthSignUp(d.Register, d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Sessions, cfg.JWT, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Sessions, cfg.JWT, logg))

			r.Route("/otp", func(r chi.Router) {
				r.Use(requireAuth)
				limited := r.With(middleware.AuthRateLimit(otpPolicy, d.RateStore, logg))
				limited.Post("/send-old", controllers.EmailChangeSendOld(d.EmailChange, logg))
				limited.Post("/send-new", controllers.EmailChangeSendNew(d.EmailChange, logg))
				r.Post("/verify-old", controllers.EmailChangeVerifyOld(d.EmailChange, logg))
				r.Post("/verify-new", controllers.EmailChangeVerifyNew(d.EmailChange, logg))
				r.Delete("/", controllers.EmailChangeCancel(d.EmailChange, logg))
			})
		})

		r.With(requireAuth).Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(d.Profile, logg))
			r.Put("/", controllers.ProfileUpdate(d.Profile, logg))
		})

		r.Get("/products", controllers.StorefrontProducts(d.Products, logg))
		r.Get("/products/{slug}", controllers.StorefrontProduct(d.Products, logg))
		r.Get("/products/{slug}/reviews", controllers.ProductReviews(d.Reviews, logg))
		r.Get("/categories", controllers.CategoriesList(d.Categories, logg))
		r.Get("/settings", controllers.SettingsGet(d.Settings, logg))
		r.Post("/coupons/validate", controllers.CouponsValidate(d.Coupons, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(cartSession)
			r.Get("/", controllers.CartGet(d.Cart, logg))
			r.Delete("/", controllers.CartClear(d.Cart, logg))
			r.Post("/items", controllers.CartAddItem(d.Cart, logg))
			r.Patch("/items", controllers.CartUpdateQuantity(d.Cart, logg))
			r.Delete("/items", controllers.CartRemoveItem(d.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(cartSession)
			r.Get("/", controllers.CheckoutView(d.Checkout, logg))
			r.With(optionalAuth).Post("/shipping", controllers.CheckoutShipping(d.Checkout, logg))
			r.With(optionalAuth).Post("/place-order", controllers.CheckoutPlaceOrder(d.Checkout, logg))
			r.Post("/reset", controllers.CheckoutReset(d.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(optionalAuth).Post("/", controllers.OrdersCreate(d.Orders, logg))
			r.With(requireAuth).Get("/mine", controllers.OrdersMine(d.Orders, logg))
			r.With(requireAuth).Get("/mine/{id}", controllers.OrdersMineDetail(d.Orders, logg))
		})

		r.With(requireAuth).Post("/reviews", controllers.ReviewsSubmit(d.Reviews, logg))

		r.With(optionalAuth).Post("/contact", controllers.ContactSubmit(d.Messages, logg))
		r.With(optionalAuth).Post("/faq/question", controllers.FAQAsk(d.Messages, logg))
		r.With(requireAuth).Get("/contact/mine", controllers.MessagesMine(d.Messages, messages.KindContact, logg))
		r.With(requireAuth).Get("/faq/mine", controllers.MessagesMine(d.Messages, messages.KindFAQ, logg))

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.WishlistList(d.Wishlist, logg))
			r.Post("/", controllers.WishlistToggle(d.Wishlist, logg))
			r.Get("/check", controllers.WishlistCheck(d.Wishlist, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.RateStore, logg)).Post("/login", controllers.AdminAuthLogin(d.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Use(middleware.AdminGuard(d.Admins, logg))
				mountAdmin(r, d)
			})
		})
	})

	return r
}

func mountAdmin(r chi.Router, d Deps) {
	cfg := d.Config
	logg := d.Logger

	r.Get("/session", controllers.AdminSession(logg))
	r.Post("/logout", controllers.AuthLogout(d.Sessions, cfg.JWT, logg))
	r.Get("/stats", controllers.AdminStats(d.Dashboard, logg))
	r.Post("/upload", controllers.MediaUpload(d.Media, cfg.Media.MaxUploadBytes, logg))

	r.Get("/settings", controllers.SettingsGet(d.Settings, logg))
	r.Put("/settings", controllers.AdminUpdateSettings(d.Settings, logg))

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", controllers.CategoriesList(d.Categories, logg))
		r.Post("/", controllers.AdminCreateCategory(d.Categories, logg))
		r.Put("/{id}", controllers.AdminUpdateCategory(d.Categories, logg))
		r.Delete("/{id}", controllers.AdminDeleteCategory(d.Categories, logg))
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Get("/", controllers.AdminListCoupons(d.Coupons, logg))
		r.Post("/", controllers.AdminCreateCoupon(d.Coupons, logg))
		r.Put("/{id}", controllers.AdminUpdateCoupon(d.Coupons, logg))
		r.Post("/{id}/toggle", controllers.AdminToggleCoupon(d.Coupons, logg))
		r.Delete("/{id}", controllers.AdminDeleteCoupon(d.Coupons, logg))
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", controllers.AdminListProducts(d.Products, logg))
		r.Post("/", controllers.AdminCreateProduct(d.Products, logg))
		r.Get("/{id}", controllers.AdminGetProduct(d.Products, logg))
		r.Put("/{id}", controllers.AdminUpdateProduct(d.Products, logg))
		r.Delete("/{id}", controllers.AdminDeleteProduct(d.Products, logg))
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", controllers.AdminListOrders(d.Orders, logg))
		r.Get("/{id}", controllers.AdminGetOrder(d.Orders, logg))
		r.Put("/{id}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
		r.Delete("/{id}", controllers.AdminDeleteOrder(d.Orders, logg))
	})

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", controllers.AdminListReviews(d.Reviews, logg))
		r.Post("/{id}/approve", controllers.AdminApproveReview(d.Reviews, logg))
		r.Post("/{id}/reject", controllers.AdminRejectReview(d.Reviews, logg))
		r.Delete("/{id}", controllers.AdminDeleteReview(d.Reviews, logg))
	})

	for path, kind := range map[string]messages.Kind{
		"/messages": messages.KindContact,
		"/faq":      messages.KindFAQ,
	} {
		r.Route(path, func(r chi.Router) {
			r.Get("/", controllers.AdminListMessages(d.Messages, kind, logg))
			r.Post("/{id}/open", controllers.AdminOpenMessage(d.Messages, kind, logg))
			r.Post("/{id}/reply", controllers.AdminReplyMessage(d.Messages, kind, logg))
			r.Delete("/{id}", controllers.AdminDeleteMessage(d.Messages, kind, logg))
		})
	}

	r.Route("/users", func(r chi.Router) {
		r.Get("/", controllers.AdminListUsers(d.Users, logg))
		r.Delete("/{id}", controllers.AdminDeleteUser(d.Users, logg))
	})

	r.Route("/admins", func(r chi.Router) {
		r.Get("/", controllers.AdminListAdmins(d.Users, logg))
		r.Post("/", controllers.AdminCreateAdmin(d.Users, logg))
	})
}
