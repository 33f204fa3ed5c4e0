package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodbridge/internal/domain"
	"bloodbridge/internal/metrics"
)

// Notification outcomes recorded in metrics.
const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

type donorAlertNotifier struct {
	broadcaster domain.Broadcaster
	email       domain.EmailService
	recorder    domain.NotificationRecorder
	logger      *slog.Logger
	metrics     *metrics.Matching
	now         func() time.Time
}

// NewDonorAlertNotifier returns the MatchNotifier that delivers a match result.
// Urgent results are broadcast and also emailed; standard results are emailed only.
// Failures are logged and counted, never retried. Every donor reached by either
// path is recorded once through recorder, which may be nil.
func NewDonorAlertNotifier(broadcaster domain.Broadcaster, email domain.EmailService, recorder domain.NotificationRecorder, logger *slog.Logger, m *metrics.Matching) domain.MatchNotifier {
	return &donorAlertNotifier{
		broadcaster: broadcaster,
		email:       email,
		recorder:    recorder,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

func (n *donorAlertNotifier) NotifyMatches(ctx context.Context, result *domain.MatchResult) error {
	if result == nil || len(result.Matches) == 0 {
		return nil
	}
	path := result.DeliveryPath
	if path == "" {
		path = result.Urgency.DeliveryPath()
	}

	var (
		errs     []error
		notified []string
		reached  = make(map[string]bool, len(result.Matches))
	)
	markReached := func(donorID string) {
		if !reached[donorID] {
			reached[donorID] = true
			notified = append(notified, donorID)
		}
	}

	urgent := path == domain.DeliveryUrgentBroadcast
	if urgent {
		if err := n.broadcast(ctx, result); err != nil {
			errs = append(errs, err)
		} else {
			for _, m := range result.Matches {
				markReached(m.DonorID)
			}
		}
	}

	var failed int
	for _, m := range result.Matches {
		if m.Contact.Email == "" {
			n.metrics.IncrementNotification(string(path), outcomeSkipped)
			continue
		}
		err := n.email.SendDonorAlert(ctx, &domain.DonorAlertEmailData{
			Email:      m.Contact.Email,
			DonorName:  m.Contact.Name,
			BloodType:  result.BloodType,
			Urgency:    result.Urgency,
			DistanceKm: m.DistanceKm,
			RequestID:  result.RequestID,
			Urgent:     urgent,
		})
		if err != nil {
			failed++
			n.metrics.IncrementNotification(string(path), outcomeFailed)
			n.logger.WarnContext(ctx, "donor alert email failed",
				"request_id", result.RequestID,
				"donor_id", m.DonorID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("donor %s: %w", m.DonorID, err))
			continue
		}
		n.metrics.IncrementNotification(string(path), outcomeSent)
		markReached(m.DonorID)
	}

	if err := n.record(ctx, result.RequestID, notified); err != nil {
		errs = append(errs, err)
	}

	n.logger.InfoContext(ctx, "donor alerts delivered",
		"request_id", result.RequestID,
		"delivery_path", path,
		"donors", len(result.Matches),
		"failed", failed,
	)
	return errors.Join(errs...)
}

func (n *donorAlertNotifier) record(ctx context.Context, requestID string, donorIDs []string) error {
	if n.recorder == nil || len(donorIDs) == 0 {
		return nil
	}
	if err := n.recorder.RecordSent(ctx, requestID, donorIDs, n.now().UTC()); err != nil {
		n.logger.ErrorContext(ctx, "recording donor notifications failed",
			"request_id", requestID,
			"donors", len(donorIDs),
			"error", err,
		)
		return fmt.Errorf("record notifications: %w", err)
	}
	return nil
}

func (n *donorAlertNotifier) broadcast(ctx context.Context, result *domain.MatchResult) error {
	donorIDs := make([]string, 0, len(result.Matches))
	for _, m := range result.Matches {
		donorIDs = append(donorIDs, m.DonorID)
	}
	alert := &domain.DonorAlert{
		ID:        uuid.NewString(),
		RequestID: result.RequestID,
		BloodType: result.BloodType,
		Urgency:   result.Urgency,
		DonorIDs:  donorIDs,
		Location:  result.Location,
		RadiusKm:  result.RadiusKm,
		CreatedAt: n.now().UTC(),
	}
	if err := n.broadcaster.Broadcast(ctx, alert); err != nil {
		n.metrics.IncrementNotification("broadcast", outcomeFailed)
		n.logger.ErrorContext(ctx, "donor alert broadcast failed",
			"request_id", result.RequestID,
			"alert_id", alert.ID,
			"error", err,
		)
		return fmt.Errorf("broadcast: %w", err)
	}
	n.metrics.IncrementNotification("broadcast", outcomeSent)
	return nil
}
