package domain

import (
	"context"
	"time"
)

// Role is an application role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(username, email, passwordHash, salt string, role Role, createdAt, updatedAt time.Time) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		Role:         role,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// Principal is the authenticated caller, taken from a verified token and
// passed explicitly into every service call.
type Principal struct {
	UserID   string
	Username string
	Role     Role
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanModify reports whether the principal may change a record owned by ownerID.
func (p Principal) CanModify(ownerID string) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == ownerID)
}

// UserStats are the activity counters shown on the profile.
type UserStats struct {
	Participations int  `json:"participations"`
	Evaluations    int  `json:"evaluations"`
	EventsCreated  *int `json:"events_created,omitempty"`
	TotalUsers     *int `json:"total_users,omitempty"`
}

// Profile is the authenticated user's own view.
type Profile struct {
	User  *User      `json:"user"`
	Stats *UserStats `json:"stats"`
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues signed tokens for an authenticated user.
type TokenIssuer interface {
	Issue(user *User, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the principal it was issued to.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// AuthService defines account creation and authentication.
type AuthService interface {
	SignUp(ctx context.Context, username, email, password string) (*User, error)
	// Login verifies the credentials and returns a signed token with the user.
	Login(ctx context.Context, email, password string) (string, *User, error)
	Me(ctx context.Context, actor Principal) (*Profile, error)
}
