package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventplatform/internal/domain"
)

type registrationService struct {
	participationRepo domain.ParticipationRepository
	eventRepo         domain.EventRepository
	userRepo          domain.UserRepository
	emailService      domain.EmailService
	logger            *slog.Logger
	contextTimeout    time.Duration
	now               func() time.Time
}

// NewRegistrationService creates the registration engine. emailService may
// be nil; notification failures are logged and never fail the operation.
func NewRegistrationService(participationRepo domain.ParticipationRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		participationRepo: participationRepo,
		eventRepo:         eventRepo,
		userRepo:          userRepo,
		emailService:      emailService,
		logger:            logger,
		contextTimeout:    timeout,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (s *registrationService) Register(ctx context.Context, actor domain.Principal, eventID string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireUser(actor); err != nil {
		return nil, err
	}
	p, err := s.participationRepo.Register(ctx, eventID, actor.UserID, s.now())
	if err != nil {
		return nil, wrap("register", err)
	}
	s.notify(ctx, p, s.sender(true))
	return p, nil
}

func (s *registrationService) Cancel(ctx context.Context, actor domain.Principal, eventID string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireUser(actor); err != nil {
		return nil, err
	}
	p, err := s.participationRepo.Cancel(ctx, eventID, actor.UserID, s.now())
	if err != nil {
		return nil, wrap("cancel registration", err)
	}
	s.notify(ctx, p, s.sender(false))
	return p, nil
}

type sendFunc func(ctx context.Context, data *domain.RegistrationEmailData) error

func (s *registrationService) sender(confirmed bool) sendFunc {
	if s.emailService == nil {
		return nil
	}
	if confirmed {
		return s.emailService.SendRegistrationConfirmed
	}
	return s.emailService.SendRegistrationCancelled
}

// notify sends a registration email on a best effort basis.
func (s *registrationService) notify(ctx context.Context, p *domain.Participation, send sendFunc) {
	if send == nil {
		return
	}
	logger := s.logger.With("event_id", p.EventID, "user_id", p.UserID)
	user, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		logger.WarnContext(ctx, "registration email skipped", "err", err)
		return
	}
	event, err := s.eventRepo.GetByID(ctx, p.EventID)
	if err != nil {
		logger.WarnContext(ctx, "registration email skipped", "err", err)
		return
	}
	data := &domain.RegistrationEmailData{
		Email:      user.Email,
		Username:   user.Username,
		EventTitle: event.Title,
		EventDate:  event.EventDate,
		Location:   event.Location,
	}
	if err := send(ctx, data); err != nil {
		logger.WarnContext(ctx, "registration email not sent", "err", err)
	}
}

func (s *registrationService) ListParticipations(ctx context.Context, actor domain.Principal, filter domain.ParticipationFilter) ([]*domain.ParticipationView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if filter.UserID != "" && filter.UserID != actor.UserID {
			return nil, fmt.Errorf("%w: you can only list your own participations", domain.ErrForbidden)
		}
		filter.UserID = actor.UserID
	}
	views, err := s.participationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	return views, nil
}
