package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventplatform/internal/domain"
)

// AdminAccount is the administrator provisioned at startup.
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// EnsureAdmin creates the administrator account unless a user with the same
// email already exists. It is safe to run on every start. The returned bool
// reports whether a new account was created.
func EnsureAdmin(ctx context.Context, users domain.UserRepository, hasher domain.PasswordHasher, account AdminAccount, now time.Time) (*domain.User, bool, error) {
	username := strings.TrimSpace(account.Username)
	email := normalizeEmail(account.Email)
	if err := validateSignUp(username, email, account.Password); err != nil {
		return nil, false, err
	}

	existing, err := existingAdmin(ctx, users, email)
	if err != nil || existing != nil {
		return existing, false, err
	}

	salt, err := hasher.GenerateSalt()
	if err != nil {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}
	hash, err := hasher.Hash(salt, account.Password)
	if err != nil {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}

	admin := domain.NewUser(username, email, hash, salt, domain.RoleAdmin, now, now)
	if err := users.Create(ctx, admin); err != nil {
		// Another instance created it between the lookup and the insert.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			if existing, lookupErr := existingAdmin(ctx, users, email); lookupErr != nil || existing != nil {
				return existing, false, lookupErr
			}
		}
		return nil, false, wrap("create admin", err)
	}
	return admin, true, nil
}

// existingAdmin returns the admin registered under email, nil when there is
// no such user, or a conflict when the email belongs to a regular user.
func existingAdmin(ctx context.Context, users domain.UserRepository, email string) (*domain.User, error) {
	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("ensure admin: %w", err)
	case u.Role != domain.RoleAdmin:
		return nil, fmt.Errorf("%w: %s is registered without the admin role", domain.ErrConflict, email)
	}
	return u, nil
}
