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

type participationRepository struct {
	DB *sql.DB
}

func NewParticipationRepository(db *sql.DB) domain.ParticipationRepository {
	return &participationRepository{
		DB: db,
	}
}

func scanParticipation(row rowScanner) (*domain.Participation, error) {
	p := &domain.Participation{}
	var status string
	if err := row.Scan(&p.ID, &p.UserID, &p.EventID, &status, &p.RegistrationDate, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.ParticipationStatus(status)
	return p, nil
}

// lockParticipation returns the (user, event) row locked for update, or nil.
func lockParticipation(ctx context.Context, tx *sql.Tx, eventID, userID string) (*domain.Participation, error) {
	query := `
		SELECT id, user_id, event_id, status, registration_date, updated_at
		FROM participations
		WHERE event_id = $1 AND user_id = $2
		FOR UPDATE
	`
	p, err := scanParticipation(tx.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get participation: %w", err)
	}
	return p, nil
}

func (r *participationRepository) Register(ctx context.Context, eventID, userID string, at time.Time) (*domain.Participation, error) {
	var reg *domain.Participation
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		event, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		existing, err := lockParticipation(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if err := event.CheckRegistration(existing); err != nil {
			return err
		}

		query := `
			INSERT INTO participations (user_id, event_id, status, registration_date, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (user_id, event_id)
			DO UPDATE SET status = EXCLUDED.status, registration_date = EXCLUDED.registration_date, updated_at = EXCLUDED.updated_at
			RETURNING id, user_id, event_id, status, registration_date, updated_at
		`
		reg, err = scanParticipation(tx.QueryRowContext(ctx, query, userID, eventID, string(domain.ParticipationRegistered), at))
		if err != nil {
			if pqCode(err) == pqForeignKeyViolation {
				return domain.ErrNotFound
			}
			return fmt.Errorf("upsert participation: %w", err)
		}

		event.AddParticipant(at)
		return saveEventCapacity(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *participationRepository) Cancel(ctx context.Context, eventID, userID string, at time.Time) (*domain.Participation, error) {
	var cancelled *domain.Participation
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		event, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrParticipationNotFound
			}
			return err
		}
		existing, err := lockParticipation(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if !existing.Active() {
			return domain.ErrParticipationNotFound
		}

		query := `
			UPDATE participations SET status = $2, updated_at = $3
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, query, existing.ID, string(domain.ParticipationCancelled), at); err != nil {
			return fmt.Errorf("cancel participation: %w", err)
		}
		existing.Status = domain.ParticipationCancelled
		existing.UpdatedAt = at
		cancelled = existing

		event.RemoveParticipant(at)
		return saveEventCapacity(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (r *participationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	query := `
		SELECT id, user_id, event_id, status, registration_date, updated_at
		FROM participations
		WHERE event_id = $1 AND user_id = $2
	`
	p, err := scanParticipation(r.DB.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participationRepository) ListParticipants(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	query := `
		SELECT u.id, u.username, p.registration_date, p.status
		FROM participations p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = $1 AND p.status = $2
		ORDER BY p.registration_date ASC, u.id ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, string(domain.ParticipationRegistered))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p := &domain.Participant{}
		var status string
		if err := rows.Scan(&p.UserID, &p.Username, &p.RegistrationDate, &status); err != nil {
			return nil, err
		}
		p.Status = domain.ParticipationStatus(status)
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participationRepository) List(ctx context.Context, f domain.ParticipationFilter) ([]*domain.ParticipationView, error) {
	var where []exp.Expression
	if f.UserID != "" {
		where = append(where, goqu.I("p.user_id").Eq(f.UserID))
	}
	if f.EventID != "" {
		where = append(where, goqu.I("p.event_id").Eq(f.EventID))
	}
	query, args, err := dialect.From(goqu.T("participations").As("p")).
		Join(goqu.T("events").As("e"), goqu.On(goqu.I("e.id").Eq(goqu.I("p.event_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("p.user_id")))).
		Select(
			goqu.I("p.id"), goqu.I("p.user_id"), goqu.I("p.event_id"), goqu.I("p.status"),
			goqu.I("p.registration_date"), goqu.I("p.updated_at"),
			goqu.I("u.username"), goqu.I("e.title"), goqu.I("e.event_date"), goqu.I("e.location"), goqu.I("e.status"),
		).
		Where(where...).
		Order(goqu.I("p.registration_date").Desc(), goqu.I("p.id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build participation query: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]*domain.ParticipationView, 0)
	for rows.Next() {
		v := &domain.ParticipationView{}
		var status, eventStatus string
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.EventID, &status, &v.RegistrationDate, &v.UpdatedAt,
			&v.Username, &v.EventTitle, &v.EventDate, &v.Location, &eventStatus,
		); err != nil {
			return nil, err
		}
		v.Status = domain.ParticipationStatus(status)
		v.EventStatus = domain.EventStatus(eventStatus)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *participationRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participations WHERE user_id = $1 AND status = $2`,
		userID, string(domain.ParticipationRegistered),
	).Scan(&n)
	return n, err
}
