package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event capacity bounds.
const (
	MinCapacity     = 1
	MaxCapacity     = 10000
	DefaultCapacity = 50
)

// Event is a scheduled activity with a capacity and a lifecycle status.
// CurrentParticipants, AverageRating and TotalRatings are maintained by the
// registration and rating operations, never set by clients.
// swagger:model Event
type Event struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	EventDate           time.Time   `json:"event_date"`
	Location            string      `json:"location"`
	MaxCapacity         int         `json:"max_capacity"`
	CurrentParticipants int         `json:"current_participants"`
	Status              EventStatus `json:"status"`
	AverageRating       float64     `json:"average_rating"`
	TotalRatings        int         `json:"total_ratings"`
	CreatedBy           string      `json:"created_by"`
	CreatorName         string      `json:"creator_name,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// NewEvent returns an open Event with no participants. ID is typically set by the repository on create.
func NewEvent(title, description, location string, eventDate time.Time, maxCapacity int, createdBy string, now time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		EventDate:   eventDate,
		Location:    location,
		MaxCapacity: maxCapacity,
		Status:      StatusOpen,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AvailableSpots is the number of seats still free.
func (e *Event) AvailableSpots() int {
	if n := e.MaxCapacity - e.CurrentParticipants; n > 0 {
		return n
	}
	return 0
}

// IsFull reports whether every seat is taken.
func (e *Event) IsFull() bool {
	return e.CurrentParticipants >= e.MaxCapacity
}

// MarshalJSON adds the derived available_spots and is_full fields.
func (e *Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		*plain
		AvailableSpots int  `json:"available_spots"`
		IsFull         bool `json:"is_full"`
	}{
		plain:          (*plain)(e),
		AvailableSpots: e.AvailableSpots(),
		IsFull:         e.IsFull(),
	})
}

// CheckRegistration returns the reason a new registration must be refused,
// or nil. active is the caller's current participation, nil if none.
func (e *Event) CheckRegistration(active *Participation) error {
	if e.Status.Sticky() {
		return ErrInvalidState
	}
	if e.CurrentParticipants >= e.MaxCapacity {
		return ErrEventFull
	}
	if active != nil && active.Status == ParticipationRegistered {
		return ErrAlreadyRegistered
	}
	return nil
}

// AddParticipant takes one seat and re-derives the status.
func (e *Event) AddParticipant(now time.Time) {
	e.CurrentParticipants++
	e.Status = DeriveStatus(e.Status, e.MaxCapacity, e.CurrentParticipants)
	e.UpdatedAt = now
}

// RemoveParticipant frees one seat and re-derives the status.
func (e *Event) RemoveParticipant(now time.Time) {
	if e.CurrentParticipants > 0 {
		e.CurrentParticipants--
	}
	e.Status = DeriveStatus(e.Status, e.MaxCapacity, e.CurrentParticipants)
	e.UpdatedAt = now
}

// EventPatch is a partial update of an event. Nil fields are unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	EventDate   *time.Time
	Location    *string
	MaxCapacity *int
	Status      *EventStatus
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.EventDate == nil &&
		p.Location == nil && p.MaxCapacity == nil && p.Status == nil
}

// Apply writes the patch onto e. The capacity can never drop below the
// number of current participants; the status is re-derived afterwards so an
// explicit open/full is corrected to match the capacity.
func (p EventPatch) Apply(e *Event, now time.Time) error {
	if p.MaxCapacity != nil && *p.MaxCapacity < e.CurrentParticipants {
		return NewValidationError(fmt.Sprintf("max_capacity cannot be lower than the %d current participants", e.CurrentParticipants))
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.EventDate != nil {
		e.EventDate = *p.EventDate
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.MaxCapacity != nil {
		e.MaxCapacity = *p.MaxCapacity
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	e.Status = DeriveStatus(e.Status, e.MaxCapacity, e.CurrentParticipants)
	e.UpdatedAt = now
	return nil
}

// EventFilter selects events for the list view.
type EventFilter struct {
	Status     EventStatus
	Search     string
	Pagination PaginationParams
}

// EventDetails is the single event view: the event, its active participants,
// its evaluations and, for an authenticated viewer, the viewer's own records.
type EventDetails struct {
	Event             *Event            `json:"event"`
	Participants      []*Participant    `json:"participants"`
	Evaluations       []*EvaluationView `json:"evaluations"`
	UserParticipation *Participation    `json:"user_participation"`
	UserEvaluation    *Evaluation       `json:"user_evaluation"`
}

// EventInput holds the client supplied fields of a new event. A nil
// MaxCapacity means DefaultCapacity.
type EventInput struct {
	Title       string
	Description string
	EventDate   time.Time
	Location    string
	MaxCapacity *int
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns one page of events ordered by event date and the total match count.
	List(ctx context.Context, filter EventFilter) ([]*Event, int, error)
	// Update applies the patch while holding the event row, so capacity checks
	// cannot race with registrations.
	Update(ctx context.Context, id string, patch EventPatch) (*Event, error)
	// Delete fails with ErrHasParticipants when any participation references the event.
	Delete(ctx context.Context, id string) error
	CountByCreator(ctx context.Context, userID string) (int, error)
}

// EventService defines event management and read operations.
type EventService interface {
	CreateEvent(ctx context.Context, actor Principal, input EventInput) (*Event, error)
	UpdateEvent(ctx context.Context, actor Principal, eventID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, actor Principal, eventID string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, int, error)
	// GetEvent returns the event details; viewer may be nil for anonymous callers.
	GetEvent(ctx context.Context, eventID string, viewer *Principal) (*EventDetails, error)
}
