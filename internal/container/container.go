package container

import (
	"context"
	"fmt"

	"kisanrakshak/adapters/llm"
	mandiapi "kisanrakshak/adapters/mandi"
	"kisanrakshak/adapters/postgres"
	"kisanrakshak/adapters/storage"
	weatherapi "kisanrakshak/adapters/weather"
	"kisanrakshak/ai"
	"kisanrakshak/app"
	"kisanrakshak/domain/growth"
	"kisanrakshak/domain/insurance"
	"kisanrakshak/domain/schemes"
	"kisanrakshak/internal/config"
	"kisanrakshak/internal/notify"
	"kisanrakshak/internal/scheduler"
	"kisanrakshak/internal/usage"
	"kisanrakshak/ports"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	UserRepo   ports.UserRepository
	UsageRepo  ports.LLMUsageRepository
	PostRepo   ports.PostRepository
	PolicyRepo ports.PolicyRepository
	CropRepo   ports.CropRepository
	UploadRepo ports.UploadRepository

	// External APIs and storage
	Mandi   *mandiapi.Client
	Weather *weatherapi.Client
	Blobs   *storage.LocalStore
	LLM     ports.LLMClient
	Speech  ports.SpeechSynthesizer

	// Static tables
	Schemes    *schemes.Catalog
	Finance    *insurance.ScaleOfFinance
	Benchmarks *growth.Benchmarks

	// Services
	Usage     *usage.Service
	Runtime   *ai.Runtime
	Users     *app.UserService
	Flows     *app.FlowService
	Community *app.CommunityService
	Insurance *app.InsuranceService
	Crops     *app.CropMonitorService
	Events    *notify.Hub
	Scheduler *scheduler.Scheduler
}

// New creates a container with the components that need no database:
// public API clients and the embedded static tables.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	var err error
	if c.Schemes, err = schemes.Load(); err != nil {
		return nil, fmt.Errorf("failed to load scheme catalogue: %w", err)
	}
	if c.Finance, err = insurance.LoadScaleOfFinance(); err != nil {
		return nil, fmt.Errorf("failed to load scale of finance: %w", err)
	}
	if c.Benchmarks, err = growth.Load(); err != nil {
		return nil, fmt.Errorf("failed to load growth benchmarks: %w", err)
	}

	c.Mandi = mandiapi.NewClient(cfg.Mandi, logger)
	c.Weather = weatherapi.NewClient(cfg.Weather, logger)
	return c, nil
}

// InitLLM creates the configured model client
func (c *Container) InitLLM(ctx context.Context) error {
	client, err := llm.New(ctx, c.Config.LLM)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	c.LLM = client
	if speech, ok := client.(ports.SpeechSynthesizer); ok {
		c.Speech = speech
	}
	c.Logger.Info("LLM client ready",
		zap.String("provider", client.Provider()),
		zap.String("model", c.Config.LLM.Model),
		zap.Bool("speech", c.Speech != nil))
	return nil
}

// InitWithDatabase initializes components that require database access.
// InitLLM must have been called first.
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if c.LLM == nil {
		return fmt.Errorf("LLM client not initialized")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.initRepositories()

	blobs, err := storage.NewLocalStore(c.Config.Storage, c.UploadRepo, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize upload storage: %w", err)
	}
	c.Blobs = blobs

	c.initServices()

	if c.Config.Scheduler.Enabled {
		c.Scheduler, err = scheduler.New(c.Config.Scheduler, c.Mandi, c.Crops, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
		c.Scheduler.SetNotifier(c.Events)
	}

	c.Logger.Info("container initialized with database connection")
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() {
	c.UserRepo = postgres.NewUserRepository(c.DB)
	c.UsageRepo = postgres.NewLLMUsageRepository(c.DB)
	c.PostRepo = postgres.NewPostRepository(c.DB)
	c.PolicyRepo = postgres.NewPolicyRepository(c.DB)
	c.CropRepo = postgres.NewCropRepository(c.DB)
	c.UploadRepo = postgres.NewUploadRepository(c.DB)
}

func (c *Container) initServices() {
	c.Usage = usage.NewService(c.UsageRepo, c.Logger)
	prompts := ai.NewPromptManager(c.Config.LLM.PromptsDir, c.Logger)
	c.Runtime = ai.NewRuntime(c.LLM, prompts, c.Usage, c.Config.LLM, c.Logger)

	c.Users = app.NewUserService(c.UserRepo, c.Logger)
	c.Flows = app.NewFlowService(app.FlowDeps{
		Runtime: c.Runtime,
		Prices:  c.Mandi,
		Weather: c.Weather,
		Schemes: c.Schemes,
		Finance: c.Finance,
		Blobs:   c.Blobs,
		Speech:  c.Speech,
		Logger:  c.Logger,
	})
	c.Community = app.NewCommunityService(c.PostRepo, c.Blobs, c.Logger)
	c.Insurance = app.NewInsuranceService(c.PolicyRepo, c.Blobs, c.Logger)
	c.Crops = app.NewCropMonitorService(c.CropRepo, c.Blobs, c.Benchmarks, c.Logger)
	c.Events = notify.NewHub(c.Logger)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Scheduler != nil {
		if err := c.Scheduler.Stop(ctx); err != nil {
			c.Logger.Warn("scheduler did not stop cleanly", zap.Error(err))
		}
	}

	// let pending usage writes land before the pool closes
	if c.Usage != nil {
		c.Usage.Wait()
	}

	if c.Mandi != nil {
		c.Mandi.Close()
	}
	if c.Weather != nil {
		c.Weather.Close()
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
