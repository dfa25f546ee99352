package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"kisanrakshak/app"
	"kisanrakshak/internal/notify"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UsageReader reports a user's LLM consumption
type UsageReader interface {
	GetUserUsageSummary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.UserUsageSummary, error)
	GetUserUsage(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.LLMUsage, error)
}

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker func(ctx context.Context) error

// Deps are the services the API serves
type Deps struct {
	Users     *app.UserService
	Flows     *app.FlowService
	Community *app.CommunityService
	Insurance *app.InsuranceService
	Crops     *app.CropMonitorService
	Blobs     ports.BlobStore
	Usage     UsageReader
	Events    *notify.Hub
	Health    HealthChecker
	Logger    *zap.Logger
}

// Config holds API server configuration
type Config struct {
	Port           string
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

// App is the HTTP API
type App struct {
	router *chi.Mux
	config Config
	logger *zap.Logger

	users     *app.UserService
	flows     *app.FlowService
	community *app.CommunityService
	insurance *app.InsuranceService
	crops     *app.CropMonitorService
	blobs     ports.BlobStore
	usage     UsageReader
	events    *notify.Hub
	health    HealthChecker
}

// NewApp creates the API and registers its routes
func NewApp(config Config, deps Deps) *App {
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 60 * time.Second
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 10 << 20
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		router:    chi.NewRouter(),
		config:    config,
		logger:    logger.Named("api"),
		users:     deps.Users,
		flows:     deps.Flows,
		community: deps.Community,
		insurance: deps.Insurance,
		crops:     deps.Crops,
		blobs:     deps.Blobs,
		usage:     deps.Usage,
		events:    deps.Events,
		health:    deps.Health,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(requestLogger(a.logger))
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	a.router.Route("/api", func(r chi.Router) {
		// Long-lived stream; no request timeout
		r.With(a.authenticate).Get("/events", a.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(a.config.RequestTimeout))
			a.setupTimedRoutes(r)
		})
	})
}

func (a *App) setupTimedRoutes(r chi.Router) {
	// Public endpoints: registration and the static catalogues
	r.Post("/users", a.handleRegister)
	r.Get("/schemes", a.handleListSchemes)
	r.Get("/schemes/{id}", a.handleGetScheme)
	r.Get("/insurance/premium", a.handlePremiumQuote)

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Get("/me", a.handleMe)
		r.Get("/usage", a.handleUsage)
		r.Get("/usage/records", a.handleUsageRecords)

		// Upstream lookups spend the server's API keys
		r.Get("/mandi/prices", a.handlePrices)
		r.Get("/mandi/prices.xlsx", a.handleExportPrices)
		r.Get("/weather", a.handleWeather)

		// Advisory flows
		r.Post("/flows/diagnose", a.handleDiagnose)
		r.Post("/flows/price-advice", a.handlePriceAdvice)
		r.Post("/flows/weather-advice", a.handleWeatherAdvice)
		r.Post("/flows/schemes", a.handleSchemeEligibility)
		r.Post("/flows/loan", a.handleLoanEligibility)
		r.Post("/flows/insurance", a.handleInsuranceAdvice)
		r.Post("/flows/tts", a.handleTextToSpeech)

		// Community
		r.Post("/posts", a.handleCreatePost)
		r.Get("/posts", a.handleListPosts)
		r.Get("/posts/{id}", a.handleGetPost)
		r.Delete("/posts/{id}", a.handleDeletePost)
		r.Post("/posts/{id}/like", a.handleLikePost)
		r.Post("/posts/{id}/comments", a.handleAddComment)
		r.Get("/posts/{id}/comments", a.handleListComments)
		r.Delete("/comments/{id}", a.handleDeleteComment)

		// Insurance
		r.Post("/policies", a.handleCreatePolicy)
		r.Get("/policies", a.handleListPolicies)
		r.Get("/policies/{id}", a.handleGetPolicy)
		r.Post("/policies/{id}/claims", a.handleFileClaim)
		r.Get("/claims", a.handleListClaims)
		r.Patch("/claims/{id}", a.handleUpdateClaim)
		r.Get("/review/claims", a.handleReviewClaims)

		// Crop monitoring
		r.Post("/crops", a.handleRegisterCrop)
		r.Get("/crops", a.handleListCrops)
		r.Get("/crops/{id}", a.handleGetCrop)
		r.Post("/crops/{id}/snaps", a.handleAddSnap)
		r.Get("/crops/{id}/snaps", a.handleListSnaps)

		// Uploads
		r.Post("/uploads", a.handleUpload)
		r.Get("/uploads/{id}", a.handleGetUpload)
	})
}

// ServeHTTP makes the app usable as an http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled, then drains in-flight requests
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting API server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a.logger.Info("shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
