package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap/zapcore"

	"github.com/vlambert/plantalert/internal/config"
	"github.com/vlambert/plantalert/internal/domain/coldsnap"
	"github.com/vlambert/plantalert/internal/logger"
	"github.com/vlambert/plantalert/internal/notify"
	"github.com/vlambert/plantalert/internal/repository/alerts"
	"github.com/vlambert/plantalert/internal/weather"
)

// Options carries the command-line switches into the workflow entry points.
type Options struct {
	// ConfigPath is the settings file location.
	ConfigPath string
	// DryRun renders and logs notifications without delivering them.
	DryRun bool
}

// app holds everything a single invocation needs, built from the settings file.
type app struct {
	cfg     *config.Config
	store   *alerts.SQLiteStore
	service *Service
	senders []Sender
}

// newApp loads configuration, configures logging and wires the workflow.
// The caller owns the returned app and must call close.
func newApp(ctx context.Context, opts *Options) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	level, ok := logger.ParseLogLevel(cfg.Logging.Level)
	if !ok {
		level = zapcore.InfoLevel
	}

	logger.SetLogger(logger.NewWithFile(level, logger.FileSink{
		Path:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		BackupCount: cfg.Logging.BackupCount,
	}))

	store, err := alerts.Open(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening alert store: %w", err)
	}

	if err := store.InitSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("initializing alert store: %w", err)
	}

	timezone, err := time.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Location.Timezone, err)
	}

	thresholds := coldsnap.Thresholds{
		Vigilance: cfg.Thresholds.Vigilance,
		Freeze:    cfg.Thresholds.Freeze,
	}

	source := weather.NewOpenMeteoClient(weather.Config{
		Latitude:      cfg.Location.Latitude,
		Longitude:     cfg.Location.Longitude,
		Timezone:      timezone,
		Thresholds:    thresholds,
		ForecastHours: cfg.Timing.ForecastHours,
	})

	return &app{
		cfg:     cfg,
		store:   store,
		service: NewService(store, source, thresholds, float64(cfg.Notifications.MinChangeThreshold)),
		senders: []Sender{
			notify.NewDiscordSender(cfg.Notifications.DiscordWebhook, cfg.Notifications.MentionRoles, nil),
			notify.NewDesktopSender(cfg.Notifications.PCSSHHost),
		},
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.WarnKV(context.Background(), "Failed to close alert store", "error", err)
	}
}

// Run executes one full workflow pass and delivers the resulting notifications.
func Run(ctx context.Context, opts *Options) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx = logger.WithName(ctx, "run")
	logger.InfoKV(ctx, "Checking forecast",
		"city", a.cfg.Location.City,
		"vigilance", a.cfg.Thresholds.Vigilance,
		"freeze", a.cfg.Thresholds.Freeze)

	outbound, err := a.service.Process(ctx)
	if err != nil {
		return err
	}

	if len(outbound) == 0 {
		logger.Info(ctx, "Nothing to notify")
		return nil
	}

	return deliver(ctx, a.senders, outbound, opts.DryRun)
}

// Watch runs the workflow on the configured interval until ctx is cancelled.
// Each tick is a full independent pass; a failed pass is logged and the
// next tick proceeds normally.
func Watch(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	interval := cfg.Timing.CheckInterval
	ctx = logger.WithName(ctx, "watch")
	logger.InfoKV(ctx, "Starting watch mode", "interval", interval)

	scheduler := gocron.NewScheduler(time.UTC)

	if _, err := scheduler.Every(interval).Do(func() {
		if err := Run(ctx, opts); err != nil {
			logger.ErrorKV(ctx, "Scheduled run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling runs: %w", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()

	return ctx.Err()
}

// SelfTest exercises the whole chain end to end: a real forecast fetch,
// a rendered sample alert, one full workflow pass and a test message on
// every configured channel.
func SelfTest(ctx context.Context, opts *Options) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx = logger.WithName(ctx, "check")

	samples, _, err := a.service.source.Forecast(ctx)
	if err != nil {
		return fmt.Errorf("fetching forecast: %w", err)
	}

	logger.InfoKV(ctx, "Forecast fetched", "samples", len(samples))

	now := time.Now()
	sample := notify.FormatPlantAlert(a.cfg.Thresholds.Vigilance, now, now, 1.5, now)
	logger.InfoKV(ctx, "Sample alert rendered", "title", sample.Title)

	outbound, err := a.service.Process(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Workflow pass finished", "notifications", len(outbound))

	test := Outbound{Message: notify.Message{
		Title:       "🧪 Test PlantAlert",
		Description: "Test complet workflow PlantAlert",
		Severity:    notify.SeverityInfo,
		Timestamp:   now,
	}}

	return deliver(ctx, a.senders, []Outbound{test}, opts.DryRun)
}

// InitDB creates the database file and its schema, then exits.
func InitDB(ctx context.Context, opts *Options) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	logger.InfoKV(ctx, "Database ready", "path", a.cfg.Database.Path)

	return nil
}

// deliver fans the rendered messages out to every configured sender.
// Unconfigured channels are skipped with a log line; delivery errors are
// collected so one failing channel does not silence the others.
func deliver(ctx context.Context, senders []Sender, outbound []Outbound, dryRun bool) error {
	var errs []error

	for _, sender := range senders {
		if !sender.Configured() {
			logger.InfoKV(ctx, "Channel not configured, skipping", "channel", sender.Name())
			continue
		}

		for _, out := range outbound {
			if dryRun {
				logger.InfoKV(ctx, "Dry run, not sending",
					"channel", sender.Name(),
					"title", out.Message.Title,
					"body", out.Message.Description)

				continue
			}

			if err := sender.Send(ctx, out.Message); err != nil {
				logger.ErrorKV(ctx, "Failed to send notification",
					"channel", sender.Name(),
					"title", out.Message.Title,
					"error", err)
				errs = append(errs, fmt.Errorf("%s: %w", sender.Name(), err))

				continue
			}

			logger.InfoKV(ctx, "Notification sent",
				"channel", sender.Name(),
				"title", out.Message.Title)
		}
	}

	return errors.Join(errs...)
}
