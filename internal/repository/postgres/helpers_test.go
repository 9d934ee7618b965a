package postgres

import (
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var (
	testDate = time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC)
	testNow  = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
)

var eventRowColumns = []string{
	"id", "title", "description", "event_date", "location", "max_capacity",
	"current_participants", "status", "average_rating", "total_ratings", "created_by",
	"created_at", "updated_at", "creator_name",
}

func eventRows(id string, capacity, participants int, status string) *sqlmock.Rows {
	return sqlmock.NewRows(eventRowColumns).AddRow(
		id, "Go meetup", "Talks", testDate, "Paris", capacity,
		participants, status, 0.0, 0, "admin-1",
		testNow, testNow, "",
	)
}

var participationRowColumns = []string{"id", "user_id", "event_id", "status", "registration_date", "updated_at"}

const (
	lockEventSQL         = `SELECT e\.id, .* FROM events e WHERE e\.id = \$1 FOR UPDATE`
	lockParticipationSQL = `SELECT id, user_id, event_id, status, registration_date, updated_at FROM participations WHERE event_id = \$1 AND user_id = \$2 FOR UPDATE`
	saveCapacitySQL      = `UPDATE events SET current_participants = \$2, status = \$3, updated_at = \$4`
)
