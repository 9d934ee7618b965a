package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"eventplatform/internal/domain"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

var (
	emailRegexp    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

type authService struct {
	userRepo          domain.UserRepository
	participationRepo domain.ParticipationRepository
	evaluationRepo    domain.EvaluationRepository
	eventRepo         domain.EventRepository
	hasher            domain.PasswordHasher
	tokens            domain.TokenIssuer
	emailService      domain.EmailService
	logger            *slog.Logger
	tokenExpiry       time.Duration
	contextTimeout    time.Duration
	now               func() time.Time
}

// AuthRepositories groups the stores the auth service reads from.
type AuthRepositories struct {
	Users          domain.UserRepository
	Participations domain.ParticipationRepository
	Evaluations    domain.EvaluationRepository
	Events         domain.EventRepository
}

// NewAuthService creates an AuthService. emailService may be nil, in which
// case no welcome email is sent.
func NewAuthService(repos AuthRepositories,
	hasher domain.PasswordHasher,
	tokens domain.TokenIssuer,
	emailService domain.EmailService,
	logger *slog.Logger,
	tokenExpiry time.Duration,
	timeout time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:          repos.Users,
		participationRepo: repos.Participations,
		evaluationRepo:    repos.Evaluations,
		eventRepo:         repos.Events,
		hasher:            hasher,
		tokens:            tokens,
		emailService:      emailService,
		logger:            logger,
		tokenExpiry:       tokenExpiry,
		contextTimeout:    timeout,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignUp(username, email, password string) error {
	var problems []string
	switch n := runeLen(username); {
	case n < minUsernameLen || n > maxUsernameLen:
		problems = append(problems, fmt.Sprintf("username must be between %d and %d characters", minUsernameLen, maxUsernameLen))
	case !usernameRegexp.MatchString(username):
		problems = append(problems, "username may only contain letters, digits and underscores")
	}
	if !emailRegexp.MatchString(email) {
		problems = append(problems, "invalid email format")
	}
	if len(password) < minPasswordLen {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	return domain.NewValidationError(problems...)
}

func (s *authService) SignUp(ctx context.Context, username, email, password string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validateSignUp(username, email, password); err != nil {
		return nil, err
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	now := s.now()
	user := domain.NewUser(username, email, hash, salt, domain.RoleUser, now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, wrap("failed to create user", err)
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcome(ctx, &domain.WelcomeEmailData{Email: user.Email, Username: user.Username}); err != nil {
			s.logger.WarnContext(ctx, "welcome email not sent", "user_id", user.ID, "err", err)
		}
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.NewValidationError("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	return token, user, nil
}

func (s *authService) Me(ctx context.Context, actor domain.Principal) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireUser(actor); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	stats := &domain.UserStats{}
	if stats.Participations, err = s.participationRepo.CountActiveByUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("count participations: %w", err)
	}
	if stats.Evaluations, err = s.evaluationRepo.CountByUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("count evaluations: %w", err)
	}
	if user.Role == domain.RoleAdmin {
		created, err := s.eventRepo.CountByCreator(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("count events: %w", err)
		}
		total, err := s.userRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count users: %w", err)
		}
		stats.EventsCreated = &created
		stats.TotalUsers = &total
	}
	return &domain.Profile{User: user, Stats: stats}, nil
}
