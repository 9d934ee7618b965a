package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventplatform/internal/domain"
)

const (
	minTitleLen       = 3
	maxTitleLen       = 200
	maxLocationLen    = 255
	maxDescriptionLen = 5000
)

type eventService struct {
	eventRepo         domain.EventRepository
	participationRepo domain.ParticipationRepository
	evaluationRepo    domain.EvaluationRepository
	contextTimeout    time.Duration
	now               func() time.Time
}

func NewEventService(eventRepo domain.EventRepository,
	participationRepo domain.ParticipationRepository,
	evaluationRepo domain.EvaluationRepository,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		evaluationRepo:    evaluationRepo,
		contextTimeout:    timeout,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func checkTitle(title string) []string {
	if n := runeLen(title); n < minTitleLen || n > maxTitleLen {
		return []string{fmt.Sprintf("title must be between %d and %d characters", minTitleLen, maxTitleLen)}
	}
	return nil
}

func checkLocation(location string) []string {
	switch n := runeLen(location); {
	case n == 0:
		return []string{"location is required"}
	case n > maxLocationLen:
		return []string{fmt.Sprintf("location must be at most %d characters", maxLocationLen)}
	}
	return nil
}

func checkDescription(description string) []string {
	if runeLen(description) > maxDescriptionLen {
		return []string{fmt.Sprintf("description must be at most %d characters", maxDescriptionLen)}
	}
	return nil
}

func checkCapacity(capacity int) []string {
	if capacity < domain.MinCapacity || capacity > domain.MaxCapacity {
		return []string{fmt.Sprintf("max_capacity must be between %d and %d", domain.MinCapacity, domain.MaxCapacity)}
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, actor domain.Principal, input domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	title := sanitizeText(input.Title)
	description := sanitizeText(input.Description)
	location := sanitizeText(input.Location)
	capacity := domain.DefaultCapacity
	if input.MaxCapacity != nil {
		capacity = *input.MaxCapacity
	}
	now := s.now()

	var problems []string
	problems = append(problems, checkTitle(title)...)
	problems = append(problems, checkDescription(description)...)
	problems = append(problems, checkLocation(location)...)
	switch {
	case input.EventDate.IsZero():
		problems = append(problems, "event_date is required")
	case !input.EventDate.After(now):
		problems = append(problems, "event_date must be in the future")
	}
	problems = append(problems, checkCapacity(capacity)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}

	event := domain.NewEvent(title, description, location, input.EventDate.UTC(), capacity, actor.UserID, now)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	event.CreatorName = actor.Username
	return event, nil
}

// sanitizePatch cleans the text fields of patch in place and validates every
// field that is set.
func sanitizePatch(patch *domain.EventPatch) error {
	if patch.Empty() {
		return domain.NewValidationError("no fields to update")
	}
	var problems []string
	if patch.Title != nil {
		title := sanitizeText(*patch.Title)
		patch.Title = &title
		problems = append(problems, checkTitle(title)...)
	}
	if patch.Description != nil {
		description := sanitizeText(*patch.Description)
		patch.Description = &description
		problems = append(problems, checkDescription(description)...)
	}
	if patch.Location != nil {
		location := sanitizeText(*patch.Location)
		patch.Location = &location
		problems = append(problems, checkLocation(location)...)
	}
	if patch.EventDate != nil {
		if patch.EventDate.IsZero() {
			problems = append(problems, "event_date must be a valid date")
		} else {
			d := patch.EventDate.UTC()
			patch.EventDate = &d
		}
	}
	if patch.MaxCapacity != nil {
		problems = append(problems, checkCapacity(*patch.MaxCapacity)...)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		problems = append(problems, "status must be one of open, full, cancelled, completed")
	}
	return domain.NewValidationError(problems...)
}

func (s *eventService) UpdateEvent(ctx context.Context, actor domain.Principal, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := sanitizePatch(&patch); err != nil {
		return nil, err
	}
	updated, err := s.eventRepo.Update(ctx, eventID, patch)
	if err != nil {
		return nil, wrap("update event", err)
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, actor domain.Principal, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	return wrap("delete event", s.eventRepo.Delete(ctx, eventID))
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.NewValidationError("status must be one of open, full, cancelled, completed")
	}
	filter.Pagination = filter.Pagination.Normalize()

	events, total, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string, viewer *domain.Principal) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, wrap("get event", err)
	}
	participants, err := s.participationRepo.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	evaluations, err := s.evaluationRepo.List(ctx, domain.EvaluationFilter{EventID: eventID})
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	details := &domain.EventDetails{
		Event:        event,
		Participants: participants,
		Evaluations:  evaluations,
	}
	if viewer == nil || viewer.UserID == "" {
		return details, nil
	}

	participation, err := s.participationRepo.GetByEventAndUser(ctx, eventID, viewer.UserID)
	switch {
	case err == nil:
		details.UserParticipation = participation
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get participation: %w", err)
	}
	evaluation, err := s.evaluationRepo.GetByEventAndUser(ctx, eventID, viewer.UserID)
	switch {
	case err == nil:
		details.UserEvaluation = evaluation
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return details, nil
}
