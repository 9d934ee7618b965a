package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	h "eventplatform/internal/delivery/http/helpers"
	"eventplatform/internal/delivery/http/middleware"
	"eventplatform/internal/domain"
)

// errorKinds maps each root domain error to its HTTP status and code.
// Conflicts are reported as 400 like every other business rule violation.
var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, h.ErrCodeNotFound},
	{domain.ErrForbidden, http.StatusForbidden, h.ErrCodeForbidden},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, h.ErrCodeUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, h.ErrCodeUnauthorized},
	{domain.ErrInvalidInput, http.StatusBadRequest, h.ErrCodeValidation},
	{domain.ErrConflict, http.StatusBadRequest, h.ErrCodeConflict},
}

// writeServiceError translates a service error into the JSON envelope.
// Unexpected errors are logged and answered with a generic 500; their text
// never reaches the client. notFound replaces the bare "not found" message.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFound string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		h.WriteValidationError(w, verr.Problems)
		return
	}
	for _, k := range errorKinds {
		if !errors.Is(err, k.kind) {
			continue
		}
		msg := strings.TrimPrefix(err.Error(), k.kind.Error()+": ")
		if errors.Is(err, domain.ErrNotFound) && msg == domain.ErrNotFound.Error() && notFound != "" {
			msg = notFound
		}
		h.WriteJSONError(w, k.status, k.code, msg)
		return
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
}

// pathID reads a UUID path parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

// validUUID reports whether s is empty or a UUID; used for optional query filters.
func validUUID(s string) bool {
	if s == "" {
		return true
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// requirePrincipal returns the caller set by RequireAuth, writing a 401 when absent.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return domain.Principal{}, false
	}
	return p, true
}
