package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventplatform/internal/domain"
)

type recordingMailer struct {
	to, subject string
	err         error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, _, _ string) error {
	m.to, m.subject = to, subject
	return m.err
}

type stubRenderer struct {
	names []string
	err   error
}

func (r *stubRenderer) Render(name string, _ any) (string, string, string, error) {
	r.names = append(r.names, name)
	if r.err != nil {
		return "", "", "", r.err
	}
	return "subject:" + name, "<p>html</p>", "text", nil
}

func TestEmailService_Send(t *testing.T) {
	ctx := context.Background()
	mailer := &recordingMailer{}
	renderer := &stubRenderer{}
	svc := NewEmailService(mailer, renderer, discardLogger())

	require.NoError(t, svc.SendWelcome(ctx, &domain.WelcomeEmailData{Email: "a@example.com", Username: "a"}))
	assert.Equal(t, "a@example.com", mailer.to)
	assert.Equal(t, "subject:welcome", mailer.subject)

	data := &domain.RegistrationEmailData{Email: "b@example.com", EventTitle: "Go"}
	require.NoError(t, svc.SendRegistrationConfirmed(ctx, data))
	require.NoError(t, svc.SendRegistrationCancelled(ctx, data))
	assert.Equal(t, []string{"welcome", "registration_confirmed", "registration_cancelled"}, renderer.names)

	require.Error(t, svc.SendWelcome(ctx, nil))
	require.Error(t, svc.SendRegistrationConfirmed(ctx, nil))
}

func TestEmailService_Errors(t *testing.T) {
	ctx := context.Background()
	data := &domain.WelcomeEmailData{Email: "a@example.com"}

	err := NewEmailService(&recordingMailer{}, &stubRenderer{err: errors.New("bad template")}, discardLogger()).SendWelcome(ctx, data)
	require.ErrorContains(t, err, "render")

	err = NewEmailService(&recordingMailer{err: errors.New("refused")}, &stubRenderer{}, discardLogger()).SendWelcome(ctx, data)
	require.ErrorContains(t, err, "refused")
}
