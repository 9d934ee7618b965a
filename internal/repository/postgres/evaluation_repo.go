package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"eventplatform/internal/domain"
)

type evaluationRepository struct {
	DB *sql.DB
}

func NewEvaluationRepository(db *sql.DB) domain.EvaluationRepository {
	return &evaluationRepository{
		DB: db,
	}
}

const evaluationColumns = `id, user_id, event_id, rating, comment, created_at, updated_at`

func scanEvaluation(row rowScanner) (*domain.Evaluation, error) {
	ev := &domain.Evaluation{}
	if err := row.Scan(&ev.ID, &ev.UserID, &ev.EventID, &ev.Rating, &ev.Comment, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return nil, err
	}
	return ev, nil
}

// refreshRatings recomputes the aggregates of a locked event from the
// evaluations table and stores them on the event row.
func refreshRatings(ctx context.Context, tx *sql.Tx, eventID string, at time.Time) (*domain.RatingSummary, error) {
	var (
		total int
		avg   float64
	)
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM evaluations WHERE event_id = $1`, eventID,
	).Scan(&total, &avg); err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}
	summary := &domain.RatingSummary{AverageRating: domain.RoundRating(avg), TotalRatings: total}
	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET average_rating = $2, total_ratings = $3, updated_at = $4 WHERE id = $1`,
		eventID, summary.AverageRating, summary.TotalRatings, at,
	); err != nil {
		return nil, fmt.Errorf("update event ratings: %w", err)
	}
	return summary, nil
}

func (r *evaluationRepository) Create(ctx context.Context, ev *domain.Evaluation) (*domain.RatingSummary, error) {
	var summary *domain.RatingSummary
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := lockEvent(ctx, tx, ev.EventID); err != nil {
			return err
		}

		var registered bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM participations WHERE event_id = $1 AND user_id = $2 AND status = $3)`,
			ev.EventID, ev.UserID, string(domain.ParticipationRegistered),
		).Scan(&registered); err != nil {
			return fmt.Errorf("check participation: %w", err)
		}
		if !registered {
			return domain.ErrNotEligible
		}

		var evaluated bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM evaluations WHERE event_id = $1 AND user_id = $2)`,
			ev.EventID, ev.UserID,
		).Scan(&evaluated); err != nil {
			return fmt.Errorf("check evaluation: %w", err)
		}
		if evaluated {
			return domain.ErrDuplicateEvaluation
		}

		query := `
			INSERT INTO evaluations (user_id, event_id, rating, comment, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, query,
			ev.UserID, ev.EventID, ev.Rating, ev.Comment, ev.CreatedAt, ev.UpdatedAt,
		).Scan(&ev.ID); err != nil {
			if pqCode(err) == pqUniqueViolation {
				return domain.ErrDuplicateEvaluation
			}
			return fmt.Errorf("insert evaluation: %w", err)
		}

		var err error
		summary, err = refreshRatings(ctx, tx, ev.EventID, ev.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *evaluationRepository) GetByID(ctx context.Context, id string) (*domain.Evaluation, error) {
	ev, err := scanEvaluation(r.DB.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ev, nil
}

func (r *evaluationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Evaluation, error) {
	ev, err := scanEvaluation(r.DB.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE event_id = $1 AND user_id = $2`, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ev, nil
}

// lockEvaluationEvent locks the event owning the evaluation and then the
// evaluation itself, the same order Create uses.
func lockEvaluationEvent(ctx context.Context, tx *sql.Tx, id string) (*domain.Evaluation, error) {
	var eventID string
	if err := tx.QueryRowContext(ctx, `SELECT event_id FROM evaluations WHERE id = $1`, id).Scan(&eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	if _, err := lockEvent(ctx, tx, eventID); err != nil {
		return nil, err
	}
	ev, err := scanEvaluation(tx.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock evaluation: %w", err)
	}
	return ev, nil
}

func (r *evaluationRepository) Update(ctx context.Context, id string, patch domain.EvaluationPatch, at time.Time) (*domain.Evaluation, error) {
	var updated *domain.Evaluation
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		ev, err := lockEvaluationEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		ratingChanged := patch.Rating != nil && *patch.Rating != ev.Rating
		if patch.Rating != nil {
			ev.Rating = *patch.Rating
		}
		if patch.Comment != nil {
			ev.Comment = *patch.Comment
		}
		ev.UpdatedAt = at
		if _, err := tx.ExecContext(ctx,
			`UPDATE evaluations SET rating = $2, comment = $3, updated_at = $4 WHERE id = $1`,
			ev.ID, ev.Rating, ev.Comment, ev.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update evaluation: %w", err)
		}
		if ratingChanged {
			if _, err := refreshRatings(ctx, tx, ev.EventID, at); err != nil {
				return err
			}
		}
		updated = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *evaluationRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		ev, err := lockEvaluationEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM evaluations WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete evaluation: %w", err)
		}
		_, err = refreshRatings(ctx, tx, ev.EventID, nowUTC())
		return err
	})
}

func (r *evaluationRepository) List(ctx context.Context, f domain.EvaluationFilter) ([]*domain.EvaluationView, error) {
	var where []exp.Expression
	if f.EventID != "" {
		where = append(where, goqu.I("ev.event_id").Eq(f.EventID))
	}
	if f.UserID != "" {
		where = append(where, goqu.I("ev.user_id").Eq(f.UserID))
	}
	query, args, err := dialect.From(goqu.T("evaluations").As("ev")).
		Join(goqu.T("events").As("e"), goqu.On(goqu.I("e.id").Eq(goqu.I("ev.event_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("ev.user_id")))).
		Select(
			goqu.I("ev.id"), goqu.I("ev.user_id"), goqu.I("ev.event_id"), goqu.I("ev.rating"),
			goqu.I("ev.comment"), goqu.I("ev.created_at"), goqu.I("ev.updated_at"),
			goqu.I("u.username"), goqu.I("e.title"), goqu.I("e.event_date"),
		).
		Where(where...).
		Order(goqu.I("ev.created_at").Desc(), goqu.I("ev.id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build evaluation query: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]*domain.EvaluationView, 0)
	for rows.Next() {
		v := &domain.EvaluationView{}
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.EventID, &v.Rating, &v.Comment, &v.CreatedAt, &v.UpdatedAt,
			&v.Username, &v.EventTitle, &v.EventDate,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *evaluationRepository) Stats(ctx context.Context, eventID string) (*domain.RatingStats, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT rating FROM evaluations WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ratings := make([]int, 0)
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.NewRatingStats(ratings), nil
}

func (r *evaluationRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
