package domain

import (
	"context"
	"math"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r is an accepted star rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Evaluation is a user's rating and optional comment for an event.
// swagger:model Evaluation
type Evaluation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EvaluationView is an evaluation joined with its author and event.
type EvaluationView struct {
	Evaluation
	Username   string    `json:"username"`
	EventTitle string    `json:"event_title"`
	EventDate  time.Time `json:"event_date"`
}

// EvaluationPatch is a partial update of an evaluation.
type EvaluationPatch struct {
	Rating  *int
	Comment *string
}

// Empty reports whether the patch changes nothing.
func (p EvaluationPatch) Empty() bool {
	return p.Rating == nil && p.Comment == nil
}

// EvaluationFilter selects evaluations; empty fields match everything.
type EvaluationFilter struct {
	EventID string
	UserID  string
}

// RatingSummary is the aggregate stored on the event row.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

// RatingStats describes the rating distribution of one event.
type RatingStats struct {
	TotalEvaluations int         `json:"total_evaluations"`
	AverageRating    float64     `json:"average_rating"`
	MinRating        int         `json:"min_rating"`
	MaxRating        int         `json:"max_rating"`
	Distribution     map[int]int `json:"distribution"`
}

// NewRatingStats aggregates ratings. The average is rounded like the stored one.
func NewRatingStats(ratings []int) *RatingStats {
	s := &RatingStats{Distribution: make(map[int]int, MaxRating)}
	for r := MinRating; r <= MaxRating; r++ {
		s.Distribution[r] = 0
	}
	sum := 0
	for _, r := range ratings {
		if s.TotalEvaluations == 0 || r < s.MinRating {
			s.MinRating = r
		}
		if r > s.MaxRating {
			s.MaxRating = r
		}
		s.Distribution[r]++
		s.TotalEvaluations++
		sum += r
	}
	if s.TotalEvaluations > 0 {
		s.AverageRating = RoundRating(float64(sum) / float64(s.TotalEvaluations))
	}
	return s
}

// RoundRating rounds an average to two decimals, the precision of the
// average_rating column.
func RoundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}

// EvaluationList is the evaluation list view; Stats is set when the list is
// restricted to a single event.
type EvaluationList struct {
	Evaluations []*EvaluationView `json:"evaluations"`
	Stats       *RatingStats      `json:"stats"`
}

// EvaluationRepository defines storage for evaluations. Every mutation
// recomputes the owning event's aggregates in the same transaction.
type EvaluationRepository interface {
	// Create checks that the author holds an active registration and has not
	// evaluated the event yet, inserts the evaluation and refreshes the
	// event's aggregates.
	Create(ctx context.Context, ev *Evaluation) (*RatingSummary, error)
	GetByID(ctx context.Context, id string) (*Evaluation, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Evaluation, error)
	Update(ctx context.Context, id string, patch EvaluationPatch, at time.Time) (*Evaluation, error)
	Delete(ctx context.Context, id string) error
	// List returns evaluations newest first.
	List(ctx context.Context, filter EvaluationFilter) ([]*EvaluationView, error)
	Stats(ctx context.Context, eventID string) (*RatingStats, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// EvaluationService defines the rating aggregator operations.
type EvaluationService interface {
	AddEvaluation(ctx context.Context, actor Principal, eventID string, rating int, comment string) (*Evaluation, *RatingSummary, error)
	UpdateEvaluation(ctx context.Context, actor Principal, evaluationID string, patch EvaluationPatch) (*Evaluation, error)
	DeleteEvaluation(ctx context.Context, actor Principal, evaluationID string) error
	ListEvaluations(ctx context.Context, filter EvaluationFilter) (*EvaluationList, error)
}
