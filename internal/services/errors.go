package services

import (
	"errors"
	"fmt"

	"eventplatform/internal/domain"
)

// wrap passes business errors through untouched so their message reaches
// the client, and adds op context to everything else.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{
		domain.ErrNotFound,
		domain.ErrForbidden,
		domain.ErrUnauthenticated,
		domain.ErrInvalidInput,
		domain.ErrConflict,
		domain.ErrInvalidCredentials,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireUser(actor domain.Principal) error {
	if actor.UserID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

func requireAdmin(actor domain.Principal) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: administrator role required", domain.ErrForbidden)
	}
	return nil
}
