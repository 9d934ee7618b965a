package memory

import (
	"context"
	"sort"
	"strings"

	"eventplatform/internal/domain"
)

type eventRepository struct {
	s *Store
}

func NewEventRepository(s *Store) domain.EventRepository {
	return &eventRepository{s: s}
}

func (r *eventRepository) Create(_ context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.newID()
	r.s.events[e.ID] = copyEvent(e)
	return nil
}

func (r *eventRepository) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyEvent(e)
	c.CreatorName = r.s.username(e.CreatedBy)
	return c, nil
}

func matchesEvent(e *domain.Event, f domain.EventFilter) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), term) ||
		strings.Contains(strings.ToLower(e.Description), term) ||
		strings.Contains(strings.ToLower(e.Location), term)
}

func (r *eventRepository) List(_ context.Context, f domain.EventFilter) ([]*domain.Event, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := make([]*domain.Event, 0)
	for _, e := range r.s.events {
		if matchesEvent(e, f) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].EventDate.Equal(matched[j].EventDate) {
			return matched[i].EventDate.Before(matched[j].EventDate)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := min(max(f.Pagination.Offset(), 0), total)
	end := total
	if f.Pagination.PageSize > 0 {
		end = min(start+f.Pagination.PageSize, total)
	}
	page := make([]*domain.Event, 0, end-start)
	for _, e := range matched[start:end] {
		c := copyEvent(e)
		c.CreatorName = r.s.username(e.CreatedBy)
		page = append(page, c)
	}
	return page, total, nil
}

func (r *eventRepository) Update(_ context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	updated := copyEvent(e)
	if err := patch.Apply(updated, r.s.now()); err != nil {
		return nil, err
	}
	r.s.events[id] = updated
	c := copyEvent(updated)
	c.CreatorName = r.s.username(c.CreatedBy)
	return c, nil
}

func (r *eventRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return domain.ErrNotFound
	}
	for _, p := range r.s.participations {
		if p.EventID == id {
			return domain.ErrHasParticipants
		}
	}
	for evID, ev := range r.s.evaluations {
		if ev.EventID == id {
			delete(r.s.evaluations, evID)
		}
	}
	delete(r.s.events, id)
	return nil
}

func (r *eventRepository) CountByCreator(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.events {
		if e.CreatedBy == userID {
			n++
		}
	}
	return n, nil
}
