package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventplatform/internal/delivery/http/helpers"
	"eventplatform/internal/delivery/http/middleware"
	"eventplatform/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID      = "6f1f2b9e-8c1a-4d3e-9b0a-1c2d3e4f5a6b"
	testEvaluationID = "0b6c7d8e-9f0a-4b1c-8d2e-3f4a5b6c7d8e"
	testUserID       = "3a4b5c6d-7e8f-4a0b-9c1d-2e3f4a5b6c7d"
)

var (
	userPrincipal  = domain.Principal{UserID: testUserID, Username: "alice", Role: domain.RoleUser}
	adminPrincipal = domain.Principal{UserID: "9d8c7b6a-5f4e-4d3c-8b2a-1f0e9d8c7b6a", Username: "root", Role: domain.RoleAdmin}
)

// newRequest builds a request with an optional JSON body, path values and principal.
func newRequest(method, target, body string, principal *domain.Principal, pathValues map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "http://test"+target, reader)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if principal != nil {
		req = req.WithContext(middleware.SetPrincipal(req.Context(), *principal))
	}
	return req
}

// decodeEnvelope decodes the response envelope, re-decoding data into dest when given.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) helpers.APIResponse {
	t.Helper()
	var raw struct {
		helpers.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	if dest != nil {
		require.NoError(t, json.Unmarshal(raw.Data, dest))
	}
	return raw.APIResponse
}

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	signUpErr  error
	loginErr   error
	meErr      error
	lastSignUp [3]string
	lastLogin  [2]string
	lastActor  domain.Principal
}

func (f *fakeAuthService) SignUp(_ context.Context, username, email, password string) (*domain.User, error) {
	f.lastSignUp = [3]string{username, email, password}
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &domain.User{ID: testUserID, Username: username, Email: email, PasswordHash: "secret-hash", Role: domain.RoleUser}, nil
}

func (f *fakeAuthService) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	f.lastLogin = [2]string{email, password}
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "signed-token", &domain.User{ID: testUserID, Username: "alice", Email: email, Role: domain.RoleUser}, nil
}

func (f *fakeAuthService) Me(_ context.Context, actor domain.Principal) (*domain.Profile, error) {
	f.lastActor = actor
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &domain.Profile{
		User:  &domain.User{ID: actor.UserID, Username: actor.Username, Role: actor.Role},
		Stats: &domain.UserStats{Participations: 2, Evaluations: 1},
	}, nil
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err        error
	events     []*domain.Event
	total      int
	lastActor  domain.Principal
	lastInput  domain.EventInput
	lastPatch  domain.EventPatch
	lastFilter domain.EventFilter
	lastID     string
	lastViewer *domain.Principal
}

func (f *fakeEventService) CreateEvent(_ context.Context, actor domain.Principal, input domain.EventInput) (*domain.Event, error) {
	f.lastActor, f.lastInput = actor, input
	if f.err != nil {
		return nil, f.err
	}
	capacity := domain.DefaultCapacity
	if input.MaxCapacity != nil {
		capacity = *input.MaxCapacity
	}
	e := domain.NewEvent(input.Title, input.Description, input.Location, input.EventDate, capacity, actor.UserID, input.EventDate)
	e.ID = testEventID
	return e, nil
}

func (f *fakeEventService) UpdateEvent(_ context.Context, actor domain.Principal, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	f.lastActor, f.lastID, f.lastPatch = actor, eventID, patch
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: eventID, Title: "Updated", MaxCapacity: 10, Status: domain.StatusOpen}, nil
}

func (f *fakeEventService) DeleteEvent(_ context.Context, actor domain.Principal, eventID string) error {
	f.lastActor, f.lastID = actor, eventID
	return f.err
}

func (f *fakeEventService) ListEvents(_ context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.events, f.total, nil
}

func (f *fakeEventService) GetEvent(_ context.Context, eventID string, viewer *domain.Principal) (*domain.EventDetails, error) {
	f.lastID, f.lastViewer = eventID, viewer
	if f.err != nil {
		return nil, f.err
	}
	return &domain.EventDetails{
		Event:        &domain.Event{ID: eventID, Title: "Go Meetup", MaxCapacity: 10, CurrentParticipants: 4, Status: domain.StatusOpen},
		Participants: []*domain.Participant{},
		Evaluations:  []*domain.EvaluationView{},
	}, nil
}

// fakeRegistrationService implements domain.RegistrationService for handler tests.
type fakeRegistrationService struct {
	err        error
	list       []*domain.ParticipationView
	lastActor  domain.Principal
	lastID     string
	lastFilter domain.ParticipationFilter
}

func (f *fakeRegistrationService) Register(_ context.Context, actor domain.Principal, eventID string) (*domain.Participation, error) {
	f.lastActor, f.lastID = actor, eventID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Participation{ID: "p-1", UserID: actor.UserID, EventID: eventID, Status: domain.ParticipationRegistered}, nil
}

func (f *fakeRegistrationService) Cancel(_ context.Context, actor domain.Principal, eventID string) (*domain.Participation, error) {
	f.lastActor, f.lastID = actor, eventID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Participation{ID: "p-1", UserID: actor.UserID, EventID: eventID, Status: domain.ParticipationCancelled}, nil
}

func (f *fakeRegistrationService) ListParticipations(_ context.Context, actor domain.Principal, filter domain.ParticipationFilter) ([]*domain.ParticipationView, error) {
	f.lastActor, f.lastFilter = actor, filter
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

// fakeEvaluationService implements domain.EvaluationService for handler tests.
type fakeEvaluationService struct {
	err         error
	list        *domain.EvaluationList
	lastActor   domain.Principal
	lastID      string
	lastRating  int
	lastComment string
	lastPatch   domain.EvaluationPatch
	lastFilter  domain.EvaluationFilter
}

func (f *fakeEvaluationService) AddEvaluation(_ context.Context, actor domain.Principal, eventID string, rating int, comment string) (*domain.Evaluation, *domain.RatingSummary, error) {
	f.lastActor, f.lastID, f.lastRating, f.lastComment = actor, eventID, rating, comment
	if f.err != nil {
		return nil, nil, f.err
	}
	return &domain.Evaluation{ID: testEvaluationID, UserID: actor.UserID, EventID: eventID, Rating: rating, Comment: comment},
		&domain.RatingSummary{AverageRating: 4.5, TotalRatings: 2}, nil
}

func (f *fakeEvaluationService) UpdateEvaluation(_ context.Context, actor domain.Principal, evaluationID string, patch domain.EvaluationPatch) (*domain.Evaluation, error) {
	f.lastActor, f.lastID, f.lastPatch = actor, evaluationID, patch
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Evaluation{ID: evaluationID, UserID: actor.UserID, Rating: 3}, nil
}

func (f *fakeEvaluationService) DeleteEvaluation(_ context.Context, actor domain.Principal, evaluationID string) error {
	f.lastActor, f.lastID = actor, evaluationID
	return f.err
}

func (f *fakeEvaluationService) ListEvaluations(_ context.Context, filter domain.EvaluationFilter) (*domain.EvaluationList, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	if f.list != nil {
		return f.list, nil
	}
	return &domain.EvaluationList{}, nil
}
