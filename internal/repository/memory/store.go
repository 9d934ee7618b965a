// Package memory holds an in-process implementation of the repository
// interfaces. A single mutex serializes every operation, which gives the
// same per-event atomicity the PostgreSQL store gets from row locks.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"eventplatform/internal/domain"
)

// Store is the shared state behind the memory repositories.
type Store struct {
	mu sync.Mutex

	users          map[string]*domain.User
	events         map[string]*domain.Event
	participations map[string]*domain.Participation
	evaluations    map[string]*domain.Evaluation

	newID func() string
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:          make(map[string]*domain.User),
		events:         make(map[string]*domain.Event),
		participations: make(map[string]*domain.Participation),
		evaluations:    make(map[string]*domain.Evaluation),
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) participation(eventID, userID string) *domain.Participation {
	for _, p := range s.participations {
		if p.EventID == eventID && p.UserID == userID {
			return p
		}
	}
	return nil
}

func (s *Store) evaluation(eventID, userID string) *domain.Evaluation {
	for _, ev := range s.evaluations {
		if ev.EventID == eventID && ev.UserID == userID {
			return ev
		}
	}
	return nil
}

func (s *Store) username(userID string) string {
	if u, ok := s.users[userID]; ok {
		return u.Username
	}
	return ""
}

// refreshRatings recomputes the aggregates of an event from its evaluations.
func (s *Store) refreshRatings(e *domain.Event, at time.Time) *domain.RatingSummary {
	total, sum := 0, 0
	for _, ev := range s.evaluations {
		if ev.EventID == e.ID {
			total++
			sum += ev.Rating
		}
	}
	var avg float64
	if total > 0 {
		avg = domain.RoundRating(float64(sum) / float64(total))
	}
	e.AverageRating = avg
	e.TotalRatings = total
	e.UpdatedAt = at
	return &domain.RatingSummary{AverageRating: avg, TotalRatings: total}
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func copyParticipation(p *domain.Participation) *domain.Participation {
	c := *p
	return &c
}

func copyEvaluation(ev *domain.Evaluation) *domain.Evaluation {
	c := *ev
	return &c
}
