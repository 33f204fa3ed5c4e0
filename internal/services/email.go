package services

import (
	"context"
	"fmt"
	"log/slog"

	"bloodbridge/internal/domain"
)

const donorAlertTemplate = "donor_alert"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendDonorAlert sends the "donor_alert" template to one matched donor.
func (s *emailService) SendDonorAlert(ctx context.Context, data *domain.DonorAlertEmailData) error {
	if data == nil {
		return fmt.Errorf("donor alert data is nil")
	}
	if data.Email == "" {
		return fmt.Errorf("%w: donor alert has no recipient", domain.ErrInvalidInput)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(donorAlertTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", donorAlertTemplate, err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send donor alert email: %w", err)
	}
	s.logger.DebugContext(ctx, "donor alert email sent", "request_id", data.RequestID, "urgent", data.Urgent)
	return nil
}
