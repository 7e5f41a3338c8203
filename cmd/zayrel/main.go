package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/MayderC/zayrel-be/config"
	"github.com/MayderC/zayrel-be/internal/auth"
	"github.com/MayderC/zayrel-be/internal/gateway"
	handler "github.com/MayderC/zayrel-be/internal/handler/http"
	"github.com/MayderC/zayrel-be/internal/middleware"
	"github.com/MayderC/zayrel-be/internal/notify"
	"github.com/MayderC/zayrel-be/internal/repository"
	"github.com/MayderC/zayrel-be/internal/repository/postgres"
	"github.com/MayderC/zayrel-be/internal/service"
	"github.com/MayderC/zayrel-be/internal/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const authTokenTTL = 12 * time.Hour

// newLogger creates logger with log level
func newLogger(level string) (*zap.Logger, error) {

	loggerLvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	loggerCfg := zap.NewProductionConfig()
	loggerCfg.Level = loggerLvl

	return loggerCfg.Build()
}

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKey, err := hex.DecodeString(cfg.AuthTokenKey)
	if err != nil {
		logger.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey, authTokenTTL)

	// proof storage
	proofStore, err := storage.NewLocalProofStore(cfg.ProofDir)
	if err != nil {
		logger.Fatal("Error initializing proof storage", zap.Error(err))
	}

	// notification dispatch
	dispatcher := notify.NewAsyncDispatcher(notify.NewLogSink(logger), logger, 64)
	go dispatcher.Run(ctx)

	// payment gateways
	gateways := gateway.NewRegistry(
		gateway.NewCardGateway(cfg.StripeAPIKey, cfg.StripeWebhookSecret, cfg.StripeSuccessURL, cfg.StripeCancelURL),
		gateway.NewWalletGateway(cfg.WalletBaseURL, cfg.WalletSecret, cfg.WalletCurrency),
		gateway.NewManualGateway(cfg.ManualRedirectURL),
	)

	// dependency injection
	// user
	userRepo := repository.NewUserRepository(db)

	if cfg.AdminLogin != "" && cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("Error hashing admin password", zap.Error(err))
		}
		if err := userRepo.EnsureAdmin(ctx, cfg.AdminLogin, string(hash)); err != nil {
			logger.Fatal("Error creating admin account", zap.Error(err))
		}
	}

	// auth
	authService := service.NewAuthService(userRepo, token)
	authHandler := handler.NewAuthHandler(authService)

	// order
	orderRepo := repository.NewOrderRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)
	orderService := service.NewOrderService(orderRepo, variantRepo, loyaltyRepo, dispatcher, logger, cfg.Currency, cfg.LoyaltyGrant)
	orderHandler := handler.NewOrderHandler(orderService)

	// payment
	paymentService := service.NewPaymentService(orderRepo, variantRepo, gateways, proofStore, dispatcher, logger,
		service.ShippingPolicy{FreeThreshold: cfg.FreeShippingThreshold, FlatFee: cfg.ShippingFlatFee},
		map[string]float64{cfg.WalletCurrency: cfg.WalletFXRate},
		cfg.GatewayTimeout)
	paymentHandler := handler.NewPaymentHandler(paymentService, gateways)

	// admin
	adminHandler := handler.NewAdminHandler(orderService, paymentService)

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger))

	router.Post("/api/admin/login", authHandler.LoginUser())
	router.Post("/api/webhooks/{gateway}", paymentHandler.Webhook())

	router.Group(func(group chi.Router) {
		group.Use(middleware.OptionalAuth(token))
		group.Post("/api/orders", orderHandler.CreateOrder())
		group.Get("/api/orders/{orderID}", orderHandler.GetOrder())
		group.Post("/api/orders/{orderID}/payment", paymentHandler.InitiatePayment())
		group.Post("/api/orders/{orderID}/proof", paymentHandler.SubmitProof())
	})

	// routes that require admin authentication
	router.Group(func(group chi.Router) {
		group.Use(middleware.Auth(token))
		group.Use(middleware.AdminOnly())
		group.Post("/api/admin/orders", adminHandler.CreateManualSale())
		group.Get("/api/admin/orders", adminHandler.ListOrders())
		group.Post("/api/admin/orders/{orderID}/review", adminHandler.ReviewProof())
		group.Post("/api/admin/orders/{orderID}/status", adminHandler.AdvanceStatus())
		group.Post("/api/admin/orders/{orderID}/cancel", adminHandler.CancelOrder())
		group.Post("/api/admin/orders/{orderID}/archive", adminHandler.ArchiveOrder())
		group.Post("/api/admin/orders/{orderID}/unarchive", adminHandler.UnarchiveOrder())
	})

	logger.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		logger.Fatal("Error starting server", zap.Error(err))
	}
}
