package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
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
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/email"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/otp"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ready := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}

	var bucket *gcs.Client
	if cfg.GCS.Enabled() {
		bucket, err = gcs.NewClient(ctx, cfg.GCS, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		defer func() {
			if err := bucket.Close(); err != nil {
				logg.Error(context.Background(), "error closing gcs", err)
			}
		}()
		ready["gcs"] = bucket
	} else {
		logg.Warn(ctx, "gcs bucket not configured, uploads disabled")
	}

	deps, err := buildDeps(ctx, cfg, logg, dbClient, redisClient, bucket, registry)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}
	deps.Ready = ready

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func buildDeps(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	bucket *gcs.Client,
	registry *prometheus.Registry,
) (routes.Deps, error) {
	gdb := dbClient.DB()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return routes.Deps{}, err
	}

	renderer, err := email.NewRenderer(cfg.Sendgrid.FromName)
	if err != nil {
		return routes.Deps{}, err
	}
	sender := email.New(cfg.Sendgrid, logg)

	usersRepo := users.NewRepository(gdb)
	productsRepo := product.NewRepository(gdb)
	couponsRepo := coupons.NewRepository(gdb)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	profileService, err := auth.NewProfileService(usersRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	flowStore, err := emailchange.NewFlowStore(redisClient, redisClient, cfg.OTP.FlowTTL)
	if err != nil {
		return routes.Deps{}, err
	}
	emailChangeService, err := emailchange.NewService(emailchange.ServiceParams{
		Flows:    flowStore,
		Users:    usersRepo,
		Tx:       dbClient,
		Codes:    otp.NewGenerator(cfg.OTP.Length),
		Renderer: renderer,
		Sender:   sender,
		Config:   cfg.OTP,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	productService, err := product.NewService(productsRepo, dbClient)
	if err != nil {
		return routes.Deps{}, err
	}
	categoryService, err := categories.NewService(categories.NewRepository(gdb))
	if err != nil {
		return routes.Deps{}, err
	}
	settingsService, err := settings.NewService(settings.NewRepository(gdb))
	if err != nil {
		return routes.Deps{}, err
	}
	couponService, err := coupons.NewService(couponsRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	cartSessions, err := cart.NewSessionRepository(redisClient, redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return routes.Deps{}, err
	}
	cartService, err := cart.NewService(cartSessions, productsRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(gdb),
		Tx:       dbClient,
		Catalog:  productsRepo,
		Coupons:  couponsRepo,
		Settings: settingsService,
		Metrics:  metrics.NewCommerceMetrics(registry),
	})
	if err != nil {
		return routes.Deps{}, err
	}

	checkoutFlows, err := checkout.NewRepository(redisClient, redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return routes.Deps{}, err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Flows:    checkoutFlows,
		Carts:    cartSessions,
		Orders:   orderService,
		Settings: settingsService,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	reviewService, err := reviews.NewService(reviews.NewRepository(gdb), productsRepo, usersRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	messageService, err := messages.NewService(messages.ServiceParams{
		Repo:     messages.NewRepository(gdb),
		Renderer: renderer,
		Sender:   sender,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(gdb),
		ProductRepo:  productsRepo,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	userService, err := users.NewService(usersRepo, dbClient, cfg.Password)
	if err != nil {
		return routes.Deps{}, err
	}
	dashboardService, err := dashboard.NewService(dashboard.NewRepository(gdb))
	if err != nil {
		return routes.Deps{}, err
	}

	var mediaService media.Service
	if bucket != nil {
		mediaService, err = media.NewService(bucket, cfg.Media.MaxUploadBytes, logg)
		if err != nil {
			return routes.Deps{}, err
		}
	}

	logg.Info(ctx, "services wired")

	return routes.Deps{
		Config:      cfg,
		Logger:      logg,
		RateStore:   redisClient,
		Sessions:    sessionManager,
		Admins:      usersRepo,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Gatherer:    registry,

		Auth:        authService,
		Register:    registerService,
		Profile:     profileService,
		EmailChange: emailChangeService,
		Products:    productService,
		Categories:  categoryService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      orderService,
		Coupons:     couponService,
		Reviews:     reviewService,
		Messages:    messageService,
		Wishlist:    wishlistService,
		Settings:    settingsService,
		Users:       userService,
		Media:       mediaService,
		Dashboard:   dashboardService,
	}, nil
}
