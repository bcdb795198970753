package api

import (
	"github.com/auragold/trading-api/internal/api/handler"
	"github.com/auragold/trading-api/internal/api/middleware"
	"github.com/auragold/trading-api/internal/api/spec"
	"github.com/auragold/trading-api/internal/config"
	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/gateway"
	"github.com/auragold/trading-api/internal/idempotency"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/auragold/trading-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Router assembles middleware, services and handlers into the HTTP API.
type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	pool      *pgxpool.Pool
	store     *repository.Store
	idemStore *idempotency.Store
	redis     redis.Cmdable
	auth      *middleware.Authenticator
	objects   gateway.ObjectStorage
}

func NewRouter(cfg *config.Config, logger *zap.Logger, pool *pgxpool.Pool, store *repository.Store,
	idemStore *idempotency.Store, redisClient redis.Cmdable, auth *middleware.Authenticator,
	objects gateway.ObjectStorage) *Router {
	return &Router{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		store:     store,
		idemStore: idemStore,
		redis:     redisClient,
		auth:      auth,
		objects:   objects,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))

	// Services
	referralSvc := service.NewReferralService(api.store)
	accountSvc := service.NewAccountService(api.store, referralSvc)
	predictionSvc := service.NewPredictionService(api.store, referralSvc)
	depositSvc := service.NewFixedDepositService(api.store)
	kycSvc := service.NewKYCService(api.store, api.objects)
	webhookSvc := service.NewWebhookService(api.store, api.cfg.WebhookHMACKey, api.cfg.WebhookSkipSignature)
	reconciliationSvc := service.NewReconciliationService(api.store)

	// Handlers
	authHandler := handler.NewAuthHandler(accountSvc, api.auth)
	accountHandler := handler.NewAccountHandler(accountSvc)
	predictionHandler := handler.NewPredictionHandler(predictionSvc)
	referralHandler := handler.NewReferralHandler(referralSvc)
	depositHandler := handler.NewDepositHandler(depositSvc)
	kycHandler := handler.NewKYCHandler(kycSvc)
	webhookHandler := handler.NewWebhookHandler(webhookSvc)
	adminHandler := handler.NewAdminHandler(predictionSvc, reconciliationSvc)
	healthHandler := handler.NewHealthHandler(api.pool, api.redis)

	// Operational endpoints
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Post("/v1/auth/register", authHandler.Register)
		r.Post("/v1/auth/login", authHandler.Login)
		r.Get("/v1/questions", predictionHandler.ListQuestions)
		r.Post("/v1/webhooks/deposit", webhookHandler.HandleDeposit)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(api.auth.Middleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/accounts/me", accountHandler.Me)
		r.Get("/v1/accounts/{id}", accountHandler.Get)
		r.Get("/v1/accounts/{id}/statement", accountHandler.Statement)

		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/questions/{id}/predictions", predictionHandler.Place)
		r.Get("/v1/predictions", predictionHandler.Mine)

		r.Get("/v1/referrals", referralHandler.Mine)
		r.Get("/v1/referrals/stats", referralHandler.Stats)

		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/fixed-deposits", depositHandler.Open)
		r.Get("/v1/fixed-deposits", depositHandler.List)
		r.Get("/v1/fixed-deposits/{id}", depositHandler.Get)

		r.Post("/v1/kyc/documents", kycHandler.Submit)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(api.auth.Middleware)
		r.Use(middleware.RequireRole(domain.RoleAdmin))

		r.Get("/v1/admin/questions", adminHandler.ListQuestions)
		r.Post("/v1/admin/questions", adminHandler.CreateQuestion)
		r.Post("/v1/admin/questions/{id}/close", adminHandler.CloseQuestion)
		r.Post("/v1/admin/questions/{id}/resolve", adminHandler.ResolveQuestion)

		r.Get("/v1/admin/kyc/documents", kycHandler.ListPending)
		r.Post("/v1/admin/kyc/documents/{id}/review", kycHandler.Review)
		r.Get("/v1/admin/kyc/documents/{id}/content", kycHandler.Download)

		r.Post("/v1/admin/reconciliation/run", adminHandler.Reconcile)
	})

	return r
}
