package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventplatform/internal/domain"
)

var (
	testNow  = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	testDate = time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC)
)

type fixture struct {
	store          *Store
	events         domain.EventRepository
	participations domain.ParticipationRepository
	evaluations    domain.EvaluationRepository
	users          domain.UserRepository
}

func newFixture() *fixture {
	s := NewStore()
	return &fixture{
		store:          s,
		events:         NewEventRepository(s),
		participations: NewParticipationRepository(s),
		evaluations:    NewEvaluationRepository(s),
		users:          NewUserRepository(s),
	}
}

func (f *fixture) createEvent(t *testing.T, capacity int) *domain.Event {
	t.Helper()
	e := domain.NewEvent("Go meetup", "Talks and pizza", "Paris", testDate, capacity, "admin-1", testNow)
	require.NoError(t, f.events.Create(context.Background(), e))
	return e
}

func (f *fixture) event(t *testing.T, id string) *domain.Event {
	t.Helper()
	e, err := f.events.GetByID(context.Background(), id)
	require.NoError(t, err)
	return e
}

func TestRegister_FillsEventThenRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 3)

	for i := 0; i < 3; i++ {
		_, err := f.participations.Register(ctx, e.ID, fmt.Sprintf("user-%d", i), testNow)
		require.NoError(t, err)
	}
	got := f.event(t, e.ID)
	assert.Equal(t, 3, got.CurrentParticipants)
	assert.Equal(t, domain.StatusFull, got.Status)

	_, err := f.participations.Register(ctx, e.ID, "user-late", testNow)
	require.ErrorIs(t, err, domain.ErrEventFull)
	assert.Equal(t, 3, f.event(t, e.ID).CurrentParticipants)
}

func TestRegister_ConcurrentOnLastSeat(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 5)

	const attempts = 100
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		full      atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.participations.Register(ctx, e.ID, fmt.Sprintf("user-%d", i), testNow)
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, domain.ErrEventFull):
				full.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(5), succeeded.Load())
	assert.Equal(t, int32(attempts-5), full.Load())
	got := f.event(t, e.ID)
	assert.Equal(t, 5, got.CurrentParticipants)
	assert.Equal(t, domain.StatusFull, got.Status)

	participants, err := f.participations.ListParticipants(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 5)
}

func TestRegister_ConcurrentSameUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 10)

	const attempts = 50
	var (
		wg         sync.WaitGroup
		succeeded  atomic.Int32
		duplicates atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.participations.Register(ctx, e.ID, "alice", testNow)
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, domain.ErrAlreadyRegistered):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), duplicates.Load())
	got := f.event(t, e.ID)
	assert.Equal(t, 1, got.CurrentParticipants)
	assert.Equal(t, domain.StatusOpen, got.Status)

	views, err := f.participations.List(ctx, domain.ParticipationFilter{UserID: "alice"})
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestRegister_CancelReopensAndReactivates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 1)

	first, err := f.participations.Register(ctx, e.ID, "alice", testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFull, f.event(t, e.ID).Status)

	_, err = f.participations.Register(ctx, e.ID, "alice", testNow)
	require.ErrorIs(t, err, domain.ErrEventFull)

	cancelled, err := f.participations.Cancel(ctx, e.ID, "alice", testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationCancelled, cancelled.Status)
	got := f.event(t, e.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.Equal(t, 0, got.CurrentParticipants)

	_, err = f.participations.Cancel(ctx, e.ID, "alice", testNow)
	require.ErrorIs(t, err, domain.ErrParticipationNotFound)

	again, err := f.participations.Register(ctx, e.ID, "alice", testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, testNow.Add(2*time.Hour), again.RegistrationDate)
	assert.Equal(t, domain.StatusFull, f.event(t, e.ID).Status)
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 10)

	_, err := f.participations.Register(ctx, e.ID, "alice", testNow)
	require.NoError(t, err)
	_, err = f.participations.Register(ctx, e.ID, "alice", testNow)
	require.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	assert.Equal(t, 1, f.event(t, e.ID).CurrentParticipants)
}

func TestRegister_StickyStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 10)

	cancelled := domain.StatusCancelled
	_, err := f.events.Update(ctx, e.ID, domain.EventPatch{Status: &cancelled})
	require.NoError(t, err)

	_, err = f.participations.Register(ctx, e.ID, "alice", testNow)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.participations.Register(ctx, "missing", "alice", testNow)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvaluations_AggregatesFollowMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 10)

	ids := make(map[int]string)
	for i, rating := range []int{5, 4, 3} {
		user := fmt.Sprintf("user-%d", i)
		_, err := f.participations.Register(ctx, e.ID, user, testNow)
		require.NoError(t, err)
		ev := &domain.Evaluation{UserID: user, EventID: e.ID, Rating: rating, CreatedAt: testNow, UpdatedAt: testNow}
		_, err = f.evaluations.Create(ctx, ev)
		require.NoError(t, err)
		ids[rating] = ev.ID
	}
	got := f.event(t, e.ID)
	assert.Equal(t, 4.0, got.AverageRating)
	assert.Equal(t, 3, got.TotalRatings)

	require.NoError(t, f.evaluations.Delete(ctx, ids[3]))
	got = f.event(t, e.ID)
	assert.Equal(t, 4.5, got.AverageRating)
	assert.Equal(t, 2, got.TotalRatings)

	one := 1
	_, err := f.evaluations.Update(ctx, ids[5], domain.EvaluationPatch{Rating: &one}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f.event(t, e.ID).AverageRating)

	require.NoError(t, f.evaluations.Delete(ctx, ids[5]))
	require.NoError(t, f.evaluations.Delete(ctx, ids[4]))
	got = f.event(t, e.ID)
	assert.Equal(t, 0.0, got.AverageRating)
	assert.Equal(t, 0, got.TotalRatings)
}

func TestEvaluations_Eligibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 10)

	_, err := f.evaluations.Create(ctx, &domain.Evaluation{UserID: "alice", EventID: e.ID, Rating: 4})
	require.ErrorIs(t, err, domain.ErrNotEligible)

	_, err = f.participations.Register(ctx, e.ID, "alice", testNow)
	require.NoError(t, err)
	_, err = f.evaluations.Create(ctx, &domain.Evaluation{UserID: "alice", EventID: e.ID, Rating: 4})
	require.NoError(t, err)
	_, err = f.evaluations.Create(ctx, &domain.Evaluation{UserID: "alice", EventID: e.ID, Rating: 2})
	require.ErrorIs(t, err, domain.ErrDuplicateEvaluation)

	_, err = f.evaluations.Create(ctx, &domain.Evaluation{UserID: "alice", EventID: "missing", Rating: 2})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvents_DeleteBlockedByParticipations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 10)

	_, err := f.participations.Register(ctx, e.ID, "alice", testNow)
	require.NoError(t, err)
	_, err = f.participations.Cancel(ctx, e.ID, "alice", testNow)
	require.NoError(t, err)

	err = f.events.Delete(ctx, e.ID)
	require.ErrorIs(t, err, domain.ErrHasParticipants)
	require.ErrorIs(t, err, domain.ErrConflict)

	empty := f.createEvent(t, 10)
	require.NoError(t, f.events.Delete(ctx, empty.ID))
	_, err = f.events.GetByID(ctx, empty.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvents_UpdateCapacityBelowParticipants(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 3)
	for _, u := range []string{"a", "b"} {
		_, err := f.participations.Register(ctx, e.ID, u, testNow)
		require.NoError(t, err)
	}

	one := 1
	_, err := f.events.Update(ctx, e.ID, domain.EventPatch{MaxCapacity: &one})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 3, f.event(t, e.ID).MaxCapacity)

	two := 2
	updated, err := f.events.Update(ctx, e.ID, domain.EventPatch{MaxCapacity: &two})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFull, updated.Status)
}

func TestEvents_ListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i, title := range []string{"Go meetup", "Rust night", "Go conference"} {
		e := domain.NewEvent(title, "", "Paris", testDate.Add(time.Duration(3-i)*time.Hour), 10, "admin-1", testNow)
		require.NoError(t, f.events.Create(ctx, e))
	}

	events, total, err := f.events.List(ctx, domain.EventFilter{
		Search:     "go",
		Pagination: domain.PaginationParams{Page: 1, PageSize: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 1)
	assert.Equal(t, "Go conference", events[0].Title)

	events, _, err = f.events.List(ctx, domain.EventFilter{
		Search:     "go",
		Pagination: domain.PaginationParams{Page: 2, PageSize: 1},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Go meetup", events[0].Title)

	events, total, err = f.events.List(ctx, domain.EventFilter{
		Status:     domain.StatusFull,
		Pagination: domain.PaginationParams{Page: 1, PageSize: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, events)
}

func TestEvents_ListPageBeyondEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.createEvent(t, 10)
	f.createEvent(t, 10)

	tests := []struct {
		name string
		p    domain.PaginationParams
	}{
		{"past last page", domain.PaginationParams{Page: 3, PageSize: 1}},
		{"offset overflows int", domain.PaginationParams{Page: math.MaxInt64/50 + 2, PageSize: 50}},
		{"largest page", domain.PaginationParams{Page: math.MaxInt, PageSize: domain.MaxPageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := f.events.List(ctx, domain.EventFilter{Pagination: tt.p})
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			assert.Empty(t, events)
		})
	}
}

func TestParticipations_OrderIsDeterministic(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 10)
	other := f.createEvent(t, 10)

	for _, user := range []string{"carol", "alice", "bob"} {
		_, err := f.participations.Register(ctx, e.ID, user, testNow)
		require.NoError(t, err)
	}
	_, err := f.participations.Register(ctx, other.ID, "alice", testNow)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		participants, err := f.participations.ListParticipants(ctx, e.ID)
		require.NoError(t, err)
		users := make([]string, 0, len(participants))
		for _, p := range participants {
			users = append(users, p.UserID)
		}
		assert.Equal(t, []string{"alice", "bob", "carol"}, users)

		views, err := f.participations.List(ctx, domain.ParticipationFilter{UserID: "alice"})
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Less(t, views[0].ID, views[1].ID)
	}
}

func TestEvaluations_OrderIsDeterministic(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	e := f.createEvent(t, 10)

	for _, user := range []string{"carol", "alice", "bob"} {
		_, err := f.participations.Register(ctx, e.ID, user, testNow)
		require.NoError(t, err)
		_, err = f.evaluations.Create(ctx, &domain.Evaluation{UserID: user, EventID: e.ID, Rating: 4, CreatedAt: testNow, UpdatedAt: testNow})
		require.NoError(t, err)
	}

	for i := 0; i < 5; i++ {
		views, err := f.evaluations.List(ctx, domain.EvaluationFilter{EventID: e.ID})
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Less(t, views[0].ID, views[1].ID)
		assert.Less(t, views[1].ID, views[2].ID)
	}
}

func TestUsers_Uniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	require.NoError(t, f.users.Create(ctx, domain.NewUser("alice", "alice@example.com", "h", "s", domain.RoleUser, testNow, testNow)))
	err := f.users.Create(ctx, domain.NewUser("alice", "other@example.com", "h", "s", domain.RoleUser, testNow, testNow))
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)
	err = f.users.Create(ctx, domain.NewUser("bob", "alice@example.com", "h", "s", domain.RoleUser, testNow, testNow))
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	n, err := f.users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
