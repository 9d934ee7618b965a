package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"eventplatform/internal/domain"
)

// eventColumns is the scan order of scanEvent, minus the trailing creator name.
const eventColumns = `e.id, e.title, e.description, e.event_date, e.location, e.max_capacity,
		e.current_participants, e.status, e.average_rating, e.total_ratings, e.created_by,
		e.created_at, e.updated_at`

const lockEventQuery = `SELECT ` + eventColumns + `, '' FROM events e WHERE e.id = $1 FOR UPDATE`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.EventDate, &e.Location, &e.MaxCapacity,
		&e.CurrentParticipants, &status, &e.AverageRating, &e.TotalRatings, &e.CreatedBy,
		&e.CreatedAt, &e.UpdatedAt, &e.CreatorName,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	return e, nil
}

// lockEvent loads the event row and holds it until tx ends. Every operation
// that reads and then writes capacity, status or rating aggregates goes
// through here, which serializes them per event.
func lockEvent(ctx context.Context, tx *sql.Tx, id string) (*domain.Event, error) {
	e, err := scanEvent(tx.QueryRowContext(ctx, lockEventQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return e, nil
}

// saveEventCapacity writes the participant counter and status of a locked event.
func saveEventCapacity(ctx context.Context, tx *sql.Tx, e *domain.Event) error {
	query := `
		UPDATE events SET current_participants = $2, status = $3, updated_at = $4
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, e.ID, e.CurrentParticipants, string(e.Status), e.UpdatedAt); err != nil {
		return fmt.Errorf("update event capacity: %w", err)
	}
	return nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, event_date, location, max_capacity, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.EventDate, e.Location, e.MaxCapacity, string(e.Status), e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `, COALESCE(u.username, '')
		FROM events e
		LEFT JOIN users u ON u.id = e.created_by
		WHERE e.id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// escapeLike escapes the LIKE wildcards of a user supplied search term.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func eventFilterExpressions(f domain.EventFilter) []exp.Expression {
	var where []exp.Expression
	if f.Status != "" {
		where = append(where, goqu.I("e.status").Eq(string(f.Status)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		term := "%" + escapeLike(s) + "%"
		where = append(where, goqu.Or(
			goqu.I("e.title").ILike(term),
			goqu.I("e.description").ILike(term),
			goqu.I("e.location").ILike(term),
		))
	}
	return where
}

func (r *eventRepository) List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, int, error) {
	where := eventFilterExpressions(f)

	countSQL, countArgs, err := dialect.From(goqu.T("events").As("e")).
		Select(goqu.COUNT(goqu.Star())).
		Where(where...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := dialect.From(goqu.T("events").As("e")).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("e.created_by")))).
		Select(
			goqu.I("e.id"), goqu.I("e.title"), goqu.I("e.description"), goqu.I("e.event_date"),
			goqu.I("e.location"), goqu.I("e.max_capacity"), goqu.I("e.current_participants"),
			goqu.I("e.status"), goqu.I("e.average_rating"), goqu.I("e.total_ratings"),
			goqu.I("e.created_by"), goqu.I("e.created_at"), goqu.I("e.updated_at"),
			goqu.COALESCE(goqu.I("u.username"), "").As("creator_name"),
		).
		Where(where...).
		Order(goqu.I("e.event_date").Asc(), goqu.I("e.id").Asc()).
		Limit(uint(f.Pagination.PageSize)).
		Offset(uint(f.Pagination.Offset())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	var updated *domain.Event
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		e, err := lockEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(e, nowUTC()); err != nil {
			return err
		}
		query := `
			UPDATE events
			SET title = $2, description = $3, event_date = $4, location = $5,
				max_capacity = $6, status = $7, updated_at = $8
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, query,
			e.ID, e.Title, e.Description, e.EventDate, e.Location, e.MaxCapacity, string(e.Status), e.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := lockEvent(ctx, tx, id); err != nil {
			return err
		}
		var referenced bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM participations WHERE event_id = $1)`, id,
		).Scan(&referenced); err != nil {
			return fmt.Errorf("check participations: %w", err)
		}
		if referenced {
			return domain.ErrHasParticipants
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			if pqCode(err) == pqForeignKeyViolation {
				return domain.ErrHasParticipants
			}
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
}

func (r *eventRepository) CountByCreator(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE created_by = $1`, userID).Scan(&n)
	return n, err
}
