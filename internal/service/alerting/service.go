package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vlambert/plantalert/internal/domain/coldsnap"
	"github.com/vlambert/plantalert/internal/logger"
	"github.com/vlambert/plantalert/internal/notify"
	"github.com/vlambert/plantalert/internal/repository/alerts"
)

// ForecastSource supplies hourly temperature samples covering the
// forecast horizon, together with the raw provider payload.
type ForecastSource interface {
	Forecast(ctx context.Context) ([]coldsnap.TemperatureSample, []byte, error)
}

// ForecastCacheWriter is implemented by stores that keep the latest raw
// forecast payload around for debugging.
type ForecastCacheWriter interface {
	SaveForecastCache(ctx context.Context, payload []byte) error
}

// Sender delivers a rendered message over one notification channel.
type Sender interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, m notify.Message) error
}

// Outbound is an action that passed the notification policy,
// together with its rendered message.
type Outbound struct {
	Action  coldsnap.AlertAction
	Message notify.Message
}

// Service runs the detection and reconciliation workflow against a store.
type Service struct {
	store          alerts.Repository
	source         ForecastSource
	detector       *coldsnap.Detector
	reconciler     *coldsnap.Reconciler
	thresholds     coldsnap.Thresholds
	minChangeHours float64
	now            func() time.Time
}

// NewService wires a workflow service from its collaborators.
func NewService(
	store alerts.Repository,
	source ForecastSource,
	thresholds coldsnap.Thresholds,
	minChangeHours float64,
) *Service {
	return &Service{
		store:          store,
		source:         source,
		detector:       coldsnap.NewDetector(thresholds),
		reconciler:     coldsnap.NewReconciler(thresholds),
		thresholds:     thresholds,
		minChangeHours: minChangeHours,
		now:            time.Now,
	}
}

// Process executes one full run and returns the notifications to deliver,
// in action order. A run with nothing to say returns an empty slice.
func (s *Service) Process(ctx context.Context) ([]Outbound, error) {
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())
	started := s.now()

	samples, raw, err := s.source.Forecast(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}

	if cache, ok := s.store.(ForecastCacheWriter); ok && len(raw) > 0 {
		if err := cache.SaveForecastCache(ctx, raw); err != nil {
			logger.WarnKV(ctx, "Failed to cache raw forecast", "error", err)
		}
	}

	intervals := s.detector.Detect(samples)
	active, err := s.store.ActiveAlerts(ctx, started)
	if err != nil {
		return nil, fmt.Errorf("loading active alerts: %w", err)
	}

	actions := s.reconciler.Reconcile(intervals, active)
	if err := s.persistActions(ctx, actions); err != nil {
		return nil, err
	}

	outbound, err := s.notifyActions(ctx, actions)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Run finished",
		"samples", len(samples),
		"intervals", len(intervals),
		"actions", len(actions),
		"notifications", len(outbound),
		"duration", s.now().Sub(started))

	return outbound, nil
}

// persistActions applies every action to the store in order.
// Created alerts get their new identifier written back onto the action.
// An update whose identifier cannot be resolved is downgraded to a create:
// losing a row beats failing the whole run.
func (s *Service) persistActions(ctx context.Context, actions []coldsnap.AlertAction) error {
	for i := range actions {
		action := &actions[i]
		switch action.Type {
		case coldsnap.ActionCreate:
			id, err := s.store.SaveAlert(ctx,
				action.Interval.Threshold,
				action.Interval.Start, action.Interval.End,
				action.Interval.MinTemp, action.Interval.MinTempAt)
			if err != nil {
				return fmt.Errorf("creating alert: %w", err)
			}

			action.AlertID = id

		case coldsnap.ActionUpdate:
			id := action.AlertID
			if id == 0 && action.Previous != nil {
				id = action.Previous.ID
			}

			if id == 0 {
				logger.WarnKV(ctx, "Update without alert identifier, forcing create",
					"threshold", action.Interval.Threshold,
					"start", action.Interval.Start)

				created, err := s.store.SaveAlert(ctx,
					action.Interval.Threshold,
					action.Interval.Start, action.Interval.End,
					action.Interval.MinTemp, action.Interval.MinTempAt)
				if err != nil {
					return fmt.Errorf("creating alert: %w", err)
				}

				action.Type = coldsnap.ActionCreate
				action.AlertID = created

				continue
			}

			if err := s.store.UpdateAlert(ctx, id,
				action.Interval.Start, action.Interval.End,
				action.Interval.MinTemp, action.Interval.MinTempAt); err != nil {
				return fmt.Errorf("updating alert %d: %w", id, err)
			}

			action.AlertID = id

		case coldsnap.ActionDelete:
			if action.AlertID == 0 {
				continue
			}

			if err := s.store.DeleteAlert(ctx, action.AlertID); err != nil {
				return fmt.Errorf("deleting alert %d: %w", action.AlertID, err)
			}
		}
	}

	return nil
}

// notifyActions filters the persisted actions through the notification
// policy, renders a message for each survivor and records the decision.
func (s *Service) notifyActions(ctx context.Context, actions []coldsnap.AlertAction) ([]Outbound, error) {
	now := s.now()
	outbound := make([]Outbound, 0, len(actions))

	for _, action := range actions {
		if !coldsnap.ShouldNotify(action, s.minChangeHours) {
			continue
		}

		message := notify.BuildMessage(action, s.thresholds, now)

		// A deleted alert no longer exists, so its history row
		// stays unattached.
		alertID := action.AlertID
		if action.Type == coldsnap.ActionDelete {
			alertID = 0
		}

		if err := s.store.RecordNotification(ctx, alertID, message.Description, notify.DefaultChannels); err != nil {
			return nil, fmt.Errorf("recording notification: %w", err)
		}

		if alertID != 0 {
			if err := s.store.UpdateLastNotified(ctx, alertID); err != nil {
				return nil, fmt.Errorf("marking alert %d notified: %w", alertID, err)
			}
		}

		outbound = append(outbound, Outbound{Action: action, Message: message})
	}

	return outbound, nil
}
