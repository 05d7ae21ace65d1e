package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/idempotency"
	"storefront/internal/imagestore"
	"storefront/internal/logging"
	"storefront/internal/payment"
	brandrepo "storefront/internal/repository/brand"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	profilerepo "storefront/internal/repository/profile"
	adminsvc "storefront/internal/service/admin"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.Component(logging.New(cfg.LogLevel, cfg.LogPretty), "api")

	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is required")
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.OptionsFromConfig(cfg, logging.Component(logger, "db")))
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logging.Component(logger, "products"))
	brandRepo := brandrepo.NewPostgres(dbpool)
	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool)
	profileRepo := profilerepo.NewPostgres(dbpool)

	verifier := auth.NewVerifier(cfg.JWTSecret)

	if cfg.StripeSecretKey == "" {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, payment sessions will fail")
	}
	stripe := payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.Currency, logging.Component(logger, "payment"))

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		k := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logging.Component(logger, "events"))
		defer func() {
			if err := k.Close(); err != nil {
				logger.Warn().Err(err).Msg("close kafka writer")
			}
		}()
		publisher = k
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaOrderTopic).Msg("order events enabled")
	}

	catalogService := catalogsvc.New(productRepo, brandRepo)
	cartService := cartsvc.New(cartRepo, productRepo, logging.Component(logger, "cart"))
	checkoutService := checkoutsvc.New(verifier, productRepo, orderRepo, stripe, cartService, publisher, logging.Component(logger, "checkout"))
	adminService := adminsvc.New(productRepo, brandRepo, orderRepo, profileRepo, logging.Component(logger, "admin"))

	images := imagestore.New(cfg.UploadDir, cfg.FileURLHost, logging.Component(logger, "images"))

	deps := httpserver.Deps{
		Catalog:               catalogService,
		Cart:                  cartService,
		Checkout:              checkoutService,
		Admin:                 adminService,
		Orders:                orderRepo,
		Profiles:              profileRepo,
		Auth:                  verifier,
		Images:                images,
		AdminUserIDs:          cfg.AdminUserIDs,
		CheckoutRatePerMinute: cfg.CheckoutRatePerMinute,
		UploadDir:             images.Dir(),
	}
	if cfg.StripeWebhookSecret != "" {
		deps.Payments = stripe
	} else {
		logger.Warn().Msg("STRIPE_WEBHOOK_SECRET not set, payment webhook disabled")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("connect to redis")
		}
		deps.Idempotency = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
		deps.ReadyChecks = append(deps.ReadyChecks, httpserver.ReadyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		logger.Info().Str("addr", cfg.RedisAddr).Msg("idempotency keys enabled")
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logging.Component(logger, "http"), dbpool, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}
