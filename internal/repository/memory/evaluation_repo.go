package memory

import (
	"context"
	"sort"
	"time"

	"eventplatform/internal/domain"
)

type evaluationRepository struct {
	s *Store
}

func NewEvaluationRepository(s *Store) domain.EvaluationRepository {
	return &evaluationRepository{s: s}
}

func (r *evaluationRepository) Create(_ context.Context, ev *domain.Evaluation) (*domain.RatingSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[ev.EventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !r.s.participation(ev.EventID, ev.UserID).Active() {
		return nil, domain.ErrNotEligible
	}
	if r.s.evaluation(ev.EventID, ev.UserID) != nil {
		return nil, domain.ErrDuplicateEvaluation
	}
	ev.ID = r.s.newID()
	r.s.evaluations[ev.ID] = copyEvaluation(ev)
	return r.s.refreshRatings(e, ev.CreatedAt), nil
}

func (r *evaluationRepository) GetByID(_ context.Context, id string) (*domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.evaluations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyEvaluation(ev), nil
}

func (r *evaluationRepository) GetByEventAndUser(_ context.Context, eventID, userID string) (*domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev := r.s.evaluation(eventID, userID)
	if ev == nil {
		return nil, domain.ErrNotFound
	}
	return copyEvaluation(ev), nil
}

func (r *evaluationRepository) Update(_ context.Context, id string, patch domain.EvaluationPatch, at time.Time) (*domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.evaluations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ratingChanged := patch.Rating != nil && *patch.Rating != ev.Rating
	if patch.Rating != nil {
		ev.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		ev.Comment = *patch.Comment
	}
	ev.UpdatedAt = at
	if e, ok := r.s.events[ev.EventID]; ok && ratingChanged {
		r.s.refreshRatings(e, at)
	}
	return copyEvaluation(ev), nil
}

func (r *evaluationRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.evaluations[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.s.evaluations, id)
	if e, ok := r.s.events[ev.EventID]; ok {
		r.s.refreshRatings(e, r.s.now())
	}
	return nil
}

func (r *evaluationRepository) List(_ context.Context, f domain.EvaluationFilter) ([]*domain.EvaluationView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.EvaluationView, 0)
	for _, ev := range r.s.evaluations {
		if f.EventID != "" && ev.EventID != f.EventID {
			continue
		}
		if f.UserID != "" && ev.UserID != f.UserID {
			continue
		}
		v := &domain.EvaluationView{Evaluation: *ev, Username: r.s.username(ev.UserID)}
		if e, ok := r.s.events[ev.EventID]; ok {
			v.EventTitle = e.Title
			v.EventDate = e.EventDate
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *evaluationRepository) Stats(_ context.Context, eventID string) (*domain.RatingStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ratings := make([]int, 0)
	for _, ev := range r.s.evaluations {
		if ev.EventID == eventID {
			ratings = append(ratings, ev.Rating)
		}
	}
	return domain.NewRatingStats(ratings), nil
}

func (r *evaluationRepository) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, ev := range r.s.evaluations {
		if ev.UserID == userID {
			n++
		}
	}
	return n, nil
}
