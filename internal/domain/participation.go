package domain

import (
	"context"
	"time"
)

// ParticipationStatus is the state of a user's registration for an event.
type ParticipationStatus string

const (
	ParticipationRegistered ParticipationStatus = "registered"
	ParticipationCancelled  ParticipationStatus = "cancelled"
)

// Participation is a user's registration record for an event. There is at
// most one row per (user, event); cancelling and re-registering reuse it.
// swagger:model Participation
type Participation struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	EventID          string              `json:"event_id"`
	Status           ParticipationStatus `json:"status"`
	RegistrationDate time.Time           `json:"registration_date"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Active reports whether the participation currently holds a seat.
func (p *Participation) Active() bool {
	return p != nil && p.Status == ParticipationRegistered
}

// Participant is an entry of an event's participant list.
type Participant struct {
	UserID           string              `json:"user_id"`
	Username         string              `json:"username"`
	RegistrationDate time.Time           `json:"registration_date"`
	Status           ParticipationStatus `json:"status"`
}

// ParticipationView is a participation joined with its event and user.
type ParticipationView struct {
	Participation
	Username    string      `json:"username"`
	EventTitle  string      `json:"event_title"`
	EventDate   time.Time   `json:"event_date"`
	Location    string      `json:"location"`
	EventStatus EventStatus `json:"event_status"`
}

// ParticipationFilter selects participations; empty fields match everything.
type ParticipationFilter struct {
	UserID  string
	EventID string
}

// ParticipationRepository defines storage for participations. Register and
// Cancel are atomic with respect to the event's capacity counter and status.
type ParticipationRepository interface {
	// Register checks eligibility, inserts or reactivates the participation
	// and takes a seat, all while holding the event.
	Register(ctx context.Context, eventID, userID string, at time.Time) (*Participation, error)
	// Cancel releases the caller's active participation and its seat.
	Cancel(ctx context.Context, eventID, userID string, at time.Time) (*Participation, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Participation, error)
	// ListParticipants returns active registrations ordered by registration time ascending.
	ListParticipants(ctx context.Context, eventID string) ([]*Participant, error)
	// List returns participations ordered by registration time descending.
	List(ctx context.Context, filter ParticipationFilter) ([]*ParticipationView, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
}

// RegistrationService defines the registration engine operations.
type RegistrationService interface {
	Register(ctx context.Context, actor Principal, eventID string) (*Participation, error)
	Cancel(ctx context.Context, actor Principal, eventID string) (*Participation, error)
	ListParticipations(ctx context.Context, actor Principal, filter ParticipationFilter) ([]*ParticipationView, error)
}
