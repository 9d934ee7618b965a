package services

import (
	"context"
	"fmt"
	"time"

	"eventplatform/internal/domain"
)

const maxCommentLen = 2000

type evaluationService struct {
	evaluationRepo domain.EvaluationRepository
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEvaluationService(evaluationRepo domain.EvaluationRepository, timeout time.Duration) domain.EvaluationService {
	return &evaluationService{
		evaluationRepo: evaluationRepo,
		contextTimeout: timeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func cleanComment(comment string) (string, error) {
	c := sanitizeText(comment)
	if runeLen(c) > maxCommentLen {
		return "", domain.NewValidationError(fmt.Sprintf("comment must be at most %d characters", maxCommentLen))
	}
	return c, nil
}

func (s *evaluationService) AddEvaluation(ctx context.Context, actor domain.Principal, eventID string, rating int, comment string) (*domain.Evaluation, *domain.RatingSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireUser(actor); err != nil {
		return nil, nil, err
	}
	if !domain.ValidRating(rating) {
		return nil, nil, domain.ErrInvalidRating
	}
	comment, err := cleanComment(comment)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	ev := &domain.Evaluation{
		UserID:    actor.UserID,
		EventID:   eventID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	summary, err := s.evaluationRepo.Create(ctx, ev)
	if err != nil {
		return nil, nil, wrap("add evaluation", err)
	}
	return ev, summary, nil
}

func (s *evaluationService) UpdateEvaluation(ctx context.Context, actor domain.Principal, evaluationID string, patch domain.EvaluationPatch) (*domain.Evaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.NewValidationError("no fields to update")
	}
	if patch.Rating != nil && !domain.ValidRating(*patch.Rating) {
		return nil, domain.ErrInvalidRating
	}
	if patch.Comment != nil {
		c, err := cleanComment(*patch.Comment)
		if err != nil {
			return nil, err
		}
		patch.Comment = &c
	}

	if err := s.authorize(ctx, actor, evaluationID); err != nil {
		return nil, err
	}
	updated, err := s.evaluationRepo.Update(ctx, evaluationID, patch, s.now())
	if err != nil {
		return nil, wrap("update evaluation", err)
	}
	return updated, nil
}

func (s *evaluationService) DeleteEvaluation(ctx context.Context, actor domain.Principal, evaluationID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireUser(actor); err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, evaluationID); err != nil {
		return err
	}
	return wrap("delete evaluation", s.evaluationRepo.Delete(ctx, evaluationID))
}

// authorize allows the author of the evaluation and administrators.
func (s *evaluationService) authorize(ctx context.Context, actor domain.Principal, evaluationID string) error {
	existing, err := s.evaluationRepo.GetByID(ctx, evaluationID)
	if err != nil {
		return wrap("get evaluation", err)
	}
	if !actor.CanModify(existing.UserID) {
		return fmt.Errorf("%w: only the author or an administrator can change this evaluation", domain.ErrForbidden)
	}
	return nil
}

func (s *evaluationService) ListEvaluations(ctx context.Context, filter domain.EvaluationFilter) (*domain.EvaluationList, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	evaluations, err := s.evaluationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	list := &domain.EvaluationList{Evaluations: evaluations}
	if filter.EventID != "" {
		if list.Stats, err = s.evaluationRepo.Stats(ctx, filter.EventID); err != nil {
			return nil, fmt.Errorf("evaluation stats: %w", err)
		}
	}
	return list, nil
}
