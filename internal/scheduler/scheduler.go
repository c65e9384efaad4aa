package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/config"
	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository/sheets"
	"github.com/mamadbah2/agritrade/internal/service/whatsapp"
)

const jobTimeout = 2 * time.Minute

// StockSource computes the current snapshot of every active crop.
type StockSource interface {
	AllStatus(ctx context.Context, date time.Time) ([]models.StockStatus, error)
}

// Reporter renders notification texts.
type Reporter interface {
	DailyStockSummary(day time.Time, statuses []models.StockStatus) string
	WeeklySummary(ctx context.Context, now time.Time) (string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ReportingConfig
	stock     StockSource
	reporter  Reporter
	exporter  sheets.StockExporter
	messaging whatsapp.MessagingService
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. Cron expressions are
// evaluated in the configured reporting timezone.
func NewScheduler(cfg config.ReportingConfig, stock StockSource, reporter Reporter, exporter sheets.StockExporter, messaging whatsapp.MessagingService, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = sheets.NoopExporter{}
	}
	if messaging == nil {
		messaging = whatsapp.DisabledService{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg,
		stock:     stock,
		reporter:  reporter,
		exporter:  exporter,
		messaging: messaging,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("stock_rollup", s.cfg.StockRollupCron),
		zap.String("weekly_report", s.cfg.WeeklyReportCron))

	if _, err := s.cron.AddFunc(s.cfg.StockRollupCron, s.runJob("stock rollup", s.RunStockRollup)); err != nil {
		return fmt.Errorf("schedule stock rollup: %w", err)
	}
	if s.cfg.WeeklyReportCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.WeeklyReportCron, s.runJob("weekly report", s.SendWeeklyReport)); err != nil {
			return fmt.Errorf("schedule weekly report: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runJob(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	}
}

// RunStockRollup recomputes today's snapshot of every active crop, exports
// the rows and sends the stock summary. Export and notification failures
// are logged without failing the rollup.
func (s *Scheduler) RunStockRollup(ctx context.Context) error {
	now := s.now()
	statuses, err := s.stock.AllStatus(ctx, now)
	if err != nil {
		return fmt.Errorf("compute stock: %w", err)
	}

	if err := s.exporter.ExportStockLogs(ctx, statuses); err != nil {
		s.logger.Error("failed to export stock snapshots", zap.Error(err))
	}

	summary := s.reporter.DailyStockSummary(now, statuses)
	s.notify(ctx, "stock summary", summary)
	return nil
}

// SendWeeklyReport sends the weekly profit summary.
func (s *Scheduler) SendWeeklyReport(ctx context.Context) error {
	report, err := s.reporter.WeeklySummary(ctx, s.now())
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}
	s.notify(ctx, "weekly report", report)
	return nil
}

func (s *Scheduler) notify(ctx context.Context, what, message string) {
	err := s.messaging.SendOutbound(ctx, models.OutboundMessageRequest{Message: message})
	switch {
	case errors.Is(err, whatsapp.ErrNotConfigured):
		s.logger.Debug("whatsapp disabled, skipping notification", zap.String("message", what))
	case err != nil:
		s.logger.Error("failed to send notification", zap.String("message", what), zap.Error(err))
	default:
		s.logger.Info("notification sent", zap.String("message", what))
	}
}
