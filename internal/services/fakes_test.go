package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"eventplatform/internal/domain"
)

var (
	testNow  = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	testDate = time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC)

	admin  = domain.Principal{UserID: "admin-1", Username: "root", Role: domain.RoleAdmin}
	alice  = domain.Principal{UserID: "user-1", Username: "alice", Role: domain.RoleUser}
	bob    = domain.Principal{UserID: "user-2", Username: "bob", Role: domain.RoleUser}
	nobody = domain.Principal{}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time { return testNow }

// fakeEventRepo implements domain.EventRepository for tests.
type fakeEventRepo struct {
	byID          map[string]*domain.Event
	created       []*domain.Event
	lastPatch     domain.EventPatch
	lastList      domain.EventFilter
	updateErr     error
	deleteErr     error
	listErr       error
	eventsCreated int
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.Event)}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	e.ID = "ev-new"
	f.created = append(f.created, e)
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(_ context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	f.lastList = filter
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) Update(_ context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	f.lastPatch = patch
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := patch.Apply(e, testNow); err != nil {
		return nil, err
	}
	return e, nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventRepo) CountByCreator(_ context.Context, _ string) (int, error) {
	return f.eventsCreated, nil
}

// fakeParticipationRepo implements domain.ParticipationRepository for tests.
type fakeParticipationRepo struct {
	registerErr  error
	cancelErr    error
	byKey        map[string]*domain.Participation
	participants []*domain.Participant
	views        []*domain.ParticipationView
	lastFilter   domain.ParticipationFilter
	active       int
}

func newFakeParticipationRepo() *fakeParticipationRepo {
	return &fakeParticipationRepo{byKey: make(map[string]*domain.Participation)}
}

func (f *fakeParticipationRepo) Register(_ context.Context, eventID, userID string, at time.Time) (*domain.Participation, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	p := &domain.Participation{ID: "p-1", UserID: userID, EventID: eventID, Status: domain.ParticipationRegistered, RegistrationDate: at, UpdatedAt: at}
	f.byKey[eventID+"/"+userID] = p
	return p, nil
}

func (f *fakeParticipationRepo) Cancel(_ context.Context, eventID, userID string, at time.Time) (*domain.Participation, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	p, ok := f.byKey[eventID+"/"+userID]
	if !ok || !p.Active() {
		return nil, domain.ErrParticipationNotFound
	}
	p.Status = domain.ParticipationCancelled
	p.UpdatedAt = at
	return p, nil
}

func (f *fakeParticipationRepo) GetByEventAndUser(_ context.Context, eventID, userID string) (*domain.Participation, error) {
	if p, ok := f.byKey[eventID+"/"+userID]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeParticipationRepo) ListParticipants(_ context.Context, _ string) ([]*domain.Participant, error) {
	return f.participants, nil
}

func (f *fakeParticipationRepo) List(_ context.Context, filter domain.ParticipationFilter) ([]*domain.ParticipationView, error) {
	f.lastFilter = filter
	return f.views, nil
}

func (f *fakeParticipationRepo) CountActiveByUser(_ context.Context, _ string) (int, error) {
	return f.active, nil
}

// fakeEvaluationRepo implements domain.EvaluationRepository for tests.
type fakeEvaluationRepo struct {
	byID            map[string]*domain.Evaluation
	createErr       error
	summary         *domain.RatingSummary
	views           []*domain.EvaluationView
	stats           *domain.RatingStats
	lastPatch       *domain.EvaluationPatch
	deleted         []string
	userEvaluations int
}

func newFakeEvaluationRepo(evaluations ...*domain.Evaluation) *fakeEvaluationRepo {
	f := &fakeEvaluationRepo{byID: make(map[string]*domain.Evaluation)}
	for _, ev := range evaluations {
		f.byID[ev.ID] = ev
	}
	return f
}

func (f *fakeEvaluationRepo) Create(_ context.Context, ev *domain.Evaluation) (*domain.RatingSummary, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	ev.ID = "eval-new"
	f.byID[ev.ID] = ev
	return f.summary, nil
}

func (f *fakeEvaluationRepo) GetByID(_ context.Context, id string) (*domain.Evaluation, error) {
	if ev, ok := f.byID[id]; ok {
		return ev, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEvaluationRepo) GetByEventAndUser(_ context.Context, eventID, userID string) (*domain.Evaluation, error) {
	for _, ev := range f.byID {
		if ev.EventID == eventID && ev.UserID == userID {
			return ev, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEvaluationRepo) Update(_ context.Context, id string, patch domain.EvaluationPatch, at time.Time) (*domain.Evaluation, error) {
	f.lastPatch = &patch
	ev, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Rating != nil {
		ev.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		ev.Comment = *patch.Comment
	}
	ev.UpdatedAt = at
	return ev, nil
}

func (f *fakeEvaluationRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEvaluationRepo) List(_ context.Context, _ domain.EvaluationFilter) ([]*domain.EvaluationView, error) {
	return f.views, nil
}

func (f *fakeEvaluationRepo) Stats(_ context.Context, _ string) (*domain.RatingStats, error) {
	return f.stats, nil
}

func (f *fakeEvaluationRepo) CountByUser(_ context.Context, _ string) (int, error) {
	return f.userEvaluations, nil
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	createErr error
	getErr    error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	u.ID = "created-1"
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Count(_ context.Context) (int, error) {
	return len(f.byID), nil
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct{}

func (fakePasswordHasher) GenerateSalt() (string, error) { return "salt", nil }
func (fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + salt + "-" + password, nil
}
func (fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+"-"+password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) Issue(user *domain.User, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + user.ID, nil
}

// fakeEmailService records the emails it was asked to send.
type fakeEmailService struct {
	welcome   []*domain.WelcomeEmailData
	confirmed []*domain.RegistrationEmailData
	cancelled []*domain.RegistrationEmailData
	err       error
}

func (f *fakeEmailService) SendWelcome(_ context.Context, data *domain.WelcomeEmailData) error {
	f.welcome = append(f.welcome, data)
	return f.err
}

func (f *fakeEmailService) SendRegistrationConfirmed(_ context.Context, data *domain.RegistrationEmailData) error {
	f.confirmed = append(f.confirmed, data)
	return f.err
}

func (f *fakeEmailService) SendRegistrationCancelled(_ context.Context, data *domain.RegistrationEmailData) error {
	f.cancelled = append(f.cancelled, data)
	return f.err
}

var errDB = errors.New("connection reset")
