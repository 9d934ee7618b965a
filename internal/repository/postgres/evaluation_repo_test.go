package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eventplatform/internal/domain"
)

const (
	registeredSQL = `SELECT EXISTS \(SELECT 1 FROM participations WHERE event_id = \$1 AND user_id = \$2 AND status = \$3\)`
	evaluatedSQL  = `SELECT EXISTS \(SELECT 1 FROM evaluations WHERE event_id = \$1 AND user_id = \$2\)`
	aggregateSQL  = `SELECT COUNT\(\*\), COALESCE\(AVG\(rating\), 0\) FROM evaluations WHERE event_id = \$1`
	saveRatingSQL = `UPDATE events SET average_rating = \$2, total_ratings = \$3, updated_at = \$4 WHERE id = \$1`
)

var evaluationRowColumns = []string{"id", "user_id", "event_id", "rating", "comment", "created_at", "updated_at"}

func existsRow(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func TestEvaluationRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		mock        func(mock sqlmock.Sqlmock)
		wantErr     error
		wantSummary *domain.RatingSummary
	}{
		{
			name: "aggregates are recomputed",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockEventSQL).WithArgs("ev-1").
					WillReturnRows(eventRows("ev-1", 10, 3, "open"))
				mock.ExpectQuery(registeredSQL).WithArgs("ev-1", "user-1", "registered").
					WillReturnRows(existsRow(true))
				mock.ExpectQuery(evaluatedSQL).WithArgs("ev-1", "user-1").
					WillReturnRows(existsRow(false))
				mock.ExpectQuery(`INSERT INTO evaluations`).
					WithArgs("user-1", "ev-1", 3, "ok", testNow, testNow).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("eval-1"))
				mock.ExpectQuery(aggregateSQL).WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(3, 3.6666666))
				mock.ExpectExec(saveRatingSQL).WithArgs("ev-1", 3.67, 3, testNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantSummary: &domain.RatingSummary{AverageRating: 3.67, TotalRatings: 3},
		},
		{
			name: "event not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockEventSQL).WithArgs("ev-1").WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "not a registered participant",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockEventSQL).WithArgs("ev-1").
					WillReturnRows(eventRows("ev-1", 10, 3, "open"))
				mock.ExpectQuery(registeredSQL).WithArgs("ev-1", "user-1", "registered").
					WillReturnRows(existsRow(false))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotEligible,
		},
		{
			name: "already evaluated",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockEventSQL).WithArgs("ev-1").
					WillReturnRows(eventRows("ev-1", 10, 3, "open"))
				mock.ExpectQuery(registeredSQL).WillReturnRows(existsRow(true))
				mock.ExpectQuery(evaluatedSQL).WillReturnRows(existsRow(true))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrDuplicateEvaluation,
		},
		{
			name: "unique violation on insert",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockEventSQL).WithArgs("ev-1").
					WillReturnRows(eventRows("ev-1", 10, 3, "open"))
				mock.ExpectQuery(registeredSQL).WillReturnRows(existsRow(true))
				mock.ExpectQuery(evaluatedSQL).WillReturnRows(existsRow(false))
				mock.ExpectQuery(`INSERT INTO evaluations`).WillReturnError(&pq.Error{Code: "23505"})
				mock.ExpectRollback()
			},
			wantErr: domain.ErrDuplicateEvaluation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			ev := &domain.Evaluation{UserID: "user-1", EventID: "ev-1", Rating: 3, Comment: "ok", CreatedAt: testNow, UpdatedAt: testNow}
			summary, err := NewEvaluationRepository(db).Create(ctx, ev)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			require.Equal(t, "eval-1", ev.ID)
			require.Equal(t, tt.wantSummary, summary)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func expectLockEvaluation(mock sqlmock.Sqlmock, rating int) {
	mock.ExpectQuery(`SELECT event_id FROM evaluations WHERE id = \$1`).WithArgs("eval-1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("ev-1"))
	mock.ExpectQuery(lockEventSQL).WithArgs("ev-1").
		WillReturnRows(eventRows("ev-1", 10, 3, "open"))
	mock.ExpectQuery(`SELECT id, user_id, event_id, rating, comment, created_at, updated_at FROM evaluations WHERE id = \$1 FOR UPDATE`).
		WithArgs("eval-1").
		WillReturnRows(sqlmock.NewRows(evaluationRowColumns).
			AddRow("eval-1", "user-1", "ev-1", rating, "old", testNow, testNow))
}

func TestEvaluationRepository_Update(t *testing.T) {
	ctx := context.Background()
	intPtr := func(n int) *int { return &n }
	strPtr := func(s string) *string { return &s }

	t.Run("rating change refreshes aggregates", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		expectLockEvaluation(mock, 3)
		mock.ExpectExec(`UPDATE evaluations SET rating = \$2, comment = \$3, updated_at = \$4 WHERE id = \$1`).
			WithArgs("eval-1", 5, "old", testDate).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(aggregateSQL).WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(2, 4.5))
		mock.ExpectExec(saveRatingSQL).WithArgs("ev-1", 4.5, 2, testDate).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ev, err := NewEvaluationRepository(db).Update(ctx, "eval-1", domain.EvaluationPatch{Rating: intPtr(5)}, testDate)
		require.NoError(t, err)
		require.Equal(t, 5, ev.Rating)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("comment only leaves aggregates alone", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		expectLockEvaluation(mock, 3)
		mock.ExpectExec(`UPDATE evaluations`).
			WithArgs("eval-1", 3, "new", testDate).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ev, err := NewEvaluationRepository(db).Update(ctx, "eval-1", domain.EvaluationPatch{Comment: strPtr("new")}, testDate)
		require.NoError(t, err)
		require.Equal(t, "new", ev.Comment)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT event_id FROM evaluations`).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err = NewEvaluationRepository(db).Update(ctx, "eval-1", domain.EvaluationPatch{Rating: intPtr(5)}, testDate)
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEvaluationRepository_Delete_ResetsAverageWhenEmpty(t *testing.T) {
	freezeNow(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	expectLockEvaluation(mock, 4)
	mock.ExpectExec(`DELETE FROM evaluations WHERE id = \$1`).WithArgs("eval-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(aggregateSQL).WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(0, 0.0))
	mock.ExpectExec(saveRatingSQL).WithArgs("ev-1", 0.0, 0, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewEvaluationRepository(db).Delete(context.Background(), "eval-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepository_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT rating FROM evaluations WHERE event_id = \$1`).WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(5).AddRow(4).AddRow(3))

	stats, err := NewEvaluationRepository(db).Stats(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalEvaluations)
	require.Equal(t, 4.0, stats.AverageRating)
	require.Equal(t, 3, stats.MinRating)
	require.Equal(t, 5, stats.MaxRating)
	require.Equal(t, 1, stats.Distribution[4])
	require.NoError(t, mock.ExpectationsWereMet())
}
