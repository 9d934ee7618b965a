package memory

import (
	"context"
	"sort"
	"time"

	"eventplatform/internal/domain"
)

type participationRepository struct {
	s *Store
}

func NewParticipationRepository(s *Store) domain.ParticipationRepository {
	return &participationRepository{s: s}
}

func (r *participationRepository) Register(_ context.Context, eventID, userID string, at time.Time) (*domain.Participation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	existing := r.s.participation(eventID, userID)
	if err := e.CheckRegistration(existing); err != nil {
		return nil, err
	}

	if existing == nil {
		existing = &domain.Participation{ID: r.s.newID(), UserID: userID, EventID: eventID}
		r.s.participations[existing.ID] = existing
	}
	existing.Status = domain.ParticipationRegistered
	existing.RegistrationDate = at
	existing.UpdatedAt = at
	e.AddParticipant(at)
	return copyParticipation(existing), nil
}

func (r *participationRepository) Cancel(_ context.Context, eventID, userID string, at time.Time) (*domain.Participation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[eventID]
	if !ok {
		return nil, domain.ErrParticipationNotFound
	}
	existing := r.s.participation(eventID, userID)
	if !existing.Active() {
		return nil, domain.ErrParticipationNotFound
	}
	existing.Status = domain.ParticipationCancelled
	existing.UpdatedAt = at
	e.RemoveParticipant(at)
	return copyParticipation(existing), nil
}

func (r *participationRepository) GetByEventAndUser(_ context.Context, eventID, userID string) (*domain.Participation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.participation(eventID, userID)
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return copyParticipation(p), nil
}

func (r *participationRepository) ListParticipants(_ context.Context, eventID string) ([]*domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Participant, 0)
	for _, p := range r.s.participations {
		if p.EventID != eventID || !p.Active() {
			continue
		}
		out = append(out, &domain.Participant{
			UserID:           p.UserID,
			Username:         r.s.username(p.UserID),
			RegistrationDate: p.RegistrationDate,
			Status:           p.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegistrationDate.Equal(out[j].RegistrationDate) {
			return out[i].RegistrationDate.Before(out[j].RegistrationDate)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *participationRepository) List(_ context.Context, f domain.ParticipationFilter) ([]*domain.ParticipationView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.ParticipationView, 0)
	for _, p := range r.s.participations {
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		if f.EventID != "" && p.EventID != f.EventID {
			continue
		}
		v := &domain.ParticipationView{Participation: *p, Username: r.s.username(p.UserID)}
		if e, ok := r.s.events[p.EventID]; ok {
			v.EventTitle = e.Title
			v.EventDate = e.EventDate
			v.Location = e.Location
			v.EventStatus = e.Status
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegistrationDate.Equal(out[j].RegistrationDate) {
			return out[i].RegistrationDate.After(out[j].RegistrationDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *participationRepository) CountActiveByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.participations {
		if p.UserID == userID && p.Active() {
			n++
		}
	}
	return n, nil
}
