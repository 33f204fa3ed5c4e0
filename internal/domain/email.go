package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// DonorAlertEmailData holds data for the "blood needed near you" email.
type DonorAlertEmailData struct {
	Email      string
	DonorName  string
	BloodType  BloodType
	Urgency    UrgencyLevel
	DistanceKm float64
	RequestID  string
	Urgent     bool
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendDonorAlert(ctx context.Context, data *DonorAlertEmailData) error
}
