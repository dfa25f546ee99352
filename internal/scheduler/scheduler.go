package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"kisanrakshak/domain/mandi"
	"kisanrakshak/internal/config"
	"kisanrakshak/internal/errors"
	"kisanrakshak/internal/notify"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxParallelFetches = 4

// StaleCropFinder lists crops whose growth log has gone quiet
type StaleCropFinder interface {
	StaleCrops(ctx context.Context, staleDays int) ([]*models.StaleCrop, error)
}

// Notifier pushes a message to a connected user
type Notifier interface {
	Notify(userID uuid.UUID, eventType string, data interface{})
}

// CropLogReminder is sent to a farmer whose crop has no recent growth log
type CropLogReminder struct {
	CropID       uuid.UUID  `json:"crop_id"`
	CropName     string     `json:"crop_name"`
	LastSnapDate *time.Time `json:"last_snap_date,omitempty"`
	StaleDays    int        `json:"stale_days"`
}

// Scheduler runs background jobs: price watchlist prefetch and the stale crop scan
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.SchedulerConfig
	prices   ports.PriceSource
	crops    StaleCropFinder
	notifier Notifier
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New registers the jobs. Either source may be nil to disable its job.
func New(cfg config.SchedulerConfig, prices ports.PriceSource, crops StaleCropFinder, logger *zap.Logger) (*Scheduler, error) {
	logger = logger.Named("scheduler")
	cl := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		cfg:    cfg,
		prices: prices,
		crops:  crops,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if prices != nil && len(cfg.PriceWatchlist) > 0 {
		if _, err := s.cron.AddFunc(cfg.PriceRefreshSpec, s.runPriceRefresh); err != nil {
			cancel()
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "invalid PRICE_REFRESH_CRON %q", cfg.PriceRefreshSpec))
		}
	}
	if crops != nil {
		if _, err := s.cron.AddFunc(cfg.CropScanSpec, s.runCropScan); err != nil {
			cancel()
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "invalid CROP_SCAN_CRON %q", cfg.CropScanSpec))
		}
	}
	return s, nil
}

// SetNotifier routes stale crop reminders to users
func (s *Scheduler) SetNotifier(n Notifier) {
	s.notifier = n
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshPrices fetches every watchlist entry, a few at a time, warming the
// price cache. Failures are logged per entry; it returns how many succeeded.
func (s *Scheduler) RefreshPrices(ctx context.Context) (int, error) {
	var ok atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)

	for _, item := range s.cfg.PriceWatchlist {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res, err := s.prices.Fetch(ctx, mandi.Query{Commodity: item.Commodity, State: item.State})
			if err != nil {
				s.logger.Warn("price prefetch failed",
					zap.String("commodity", item.Commodity), zap.String("state", item.State), zap.Error(err))
				return nil
			}
			ok.Add(1)
			s.logger.Debug("price prefetched",
				zap.String("commodity", item.Commodity),
				zap.Int("records", len(res.Records)),
				zap.Bool("cached", res.Cached))
			return nil
		})
	}
	err := g.Wait()
	return int(ok.Load()), err
}

// ScanStaleCrops finds crops without a recent growth log and logs a reminder for each
func (s *Scheduler) ScanStaleCrops(ctx context.Context) ([]*models.StaleCrop, error) {
	stale, err := s.crops.StaleCrops(ctx, s.cfg.CropLogStaleDays)
	if err != nil {
		return nil, err
	}
	for _, sc := range stale {
		fields := []zap.Field{
			zap.String("crop_id", sc.Crop.ID.String()),
			zap.String("user_id", sc.Crop.UserID.String()),
			zap.String("crop", sc.Crop.CropName),
		}
		if sc.LastSnapDate != nil {
			fields = append(fields, zap.Time("last_snap", *sc.LastSnapDate))
		}
		s.logger.Info("crop log is stale", fields...)
		if s.notifier != nil {
			s.notifier.Notify(sc.Crop.UserID, notify.EventCropLogReminder, CropLogReminder{
				CropID:       sc.Crop.ID,
				CropName:     sc.Crop.CropName,
				LastSnapDate: sc.LastSnapDate,
				StaleDays:    s.cfg.CropLogStaleDays,
			})
		}
	}
	return stale, nil
}

func (s *Scheduler) runPriceRefresh() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()
	n, err := s.RefreshPrices(ctx)
	if err != nil {
		s.logger.Warn("price refresh interrupted", zap.Error(err))
	}
	s.logger.Info("price refresh finished", zap.Int("fetched", n), zap.Int("watchlist", len(s.cfg.PriceWatchlist)))
}

func (s *Scheduler) runCropScan() {
	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()
	stale, err := s.ScanStaleCrops(ctx)
	if err != nil {
		s.logger.Error("stale crop scan failed", zap.Error(err))
		return
	}
	s.logger.Info("stale crop scan finished", zap.Int("stale", len(stale)))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
