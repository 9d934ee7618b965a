package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "eventplatform/internal/delivery/http/helpers"
	"eventplatform/internal/domain"
)

// RegisterParticipationRequest is the request body for POST /participations
type RegisterParticipationRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements Validator.
func (p RegisterParticipationRequest) Validate() []string {
	if strings.TrimSpace(p.EventID) == "" {
		return []string{"event_id is required"}
	}
	if !validUUID(p.EventID) {
		return []string{"event_id must be a UUID"}
	}
	return nil
}

type ParticipationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewParticipationController(logger *slog.Logger, svc domain.RegistrationService) *ParticipationController {
	return &ParticipationController{
		Logger:  logger,
		Service: svc,
	}
}

// ListParticipations godoc
// @Summary List participations
// @Description Newest first. Regular users only see their own participations; admins may filter by any user_id and event_id.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID (UUID)"
// @Param event_id query string false "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the participations"
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "code: forbidden"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /participations [get]
func (c *ParticipationController) ListParticipations(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := domain.ParticipationFilter{UserID: q.Get("user_id"), EventID: q.Get("event_id")}
	if !validUUID(filter.UserID) || !validUUID(filter.EventID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "user_id and event_id must be UUIDs")
		return
	}
	list, err := c.Service.ListParticipations(r.Context(), principal, filter)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	if list == nil {
		list = []*domain.ParticipationView{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, list)
}

// Register godoc
// @Summary Register for an event
// @Description Takes a seat for the caller. Fails when the event is cancelled or completed, full, or the caller is already registered.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RegisterParticipationRequest true "Event to register for"
// @Success 201 {object} helpers.APIResponse "data contains the participation"
// @Failure 400 {object} helpers.APIResponse "code: bad_request, validation_error or conflict"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /participations [post]
func (c *ParticipationController) Register(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req RegisterParticipationRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	participation, err := c.Service.Register(r.Context(), principal, req.EventID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "event not found")
		return
	}
	h.WriteJSONMessage(w, http.StatusCreated, "registered for event", participation)
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Releases the caller's seat for the event.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the cancelled participation"
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /participations/{eventID} [delete]
func (c *ParticipationController) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	participation, err := c.Service.Cancel(r.Context(), principal, eventID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "event not found")
		return
	}
	h.WriteJSONMessage(w, http.StatusOK, "registration cancelled", participation)
}
