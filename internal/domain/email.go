package domain

import (
	"context"
	"time"
)

// Template names known to the EmailTemplateRenderer.
const (
	EmailTemplateWelcome               = "welcome"
	EmailTemplateRegistrationConfirmed = "registration_confirmed"
	EmailTemplateRegistrationCancelled = "registration_cancelled"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeEmailData holds data for the welcome email sent after sign-up.
type WelcomeEmailData struct {
	Email    string
	Username string
}

// RegistrationEmailData holds data for registration confirmation and cancellation emails.
type RegistrationEmailData struct {
	Email      string
	Username   string
	EventTitle string
	EventDate  time.Time
	Location   string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendWelcome(ctx context.Context, data *WelcomeEmailData) error
	SendRegistrationConfirmed(ctx context.Context, data *RegistrationEmailData) error
	SendRegistrationCancelled(ctx context.Context, data *RegistrationEmailData) error
}
