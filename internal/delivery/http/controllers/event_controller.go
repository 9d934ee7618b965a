package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "eventplatform/internal/delivery/http/helpers"
	"eventplatform/internal/delivery/http/middleware"
	"eventplatform/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
// max_capacity defaults to 50 when omitted.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location"`
	MaxCapacity *int      `json:"max_capacity,omitempty"`
}

// Validate implements Validator. Length and range rules are enforced by the service.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		errs = append(errs, "location is required")
	}
	if c.EventDate.IsZero() {
		errs = append(errs, "event_date is required")
	}
	return errs
}

// UpdateEventRequest is the request body for PUT/PATCH /events/{eventID}. Omitted fields are unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	EventDate   *time.Time `json:"event_date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	MaxCapacity *int       `json:"max_capacity,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

func (u UpdateEventRequest) patch() domain.EventPatch {
	p := domain.EventPatch{
		Title:       u.Title,
		Description: u.Description,
		EventDate:   u.EventDate,
		Location:    u.Location,
		MaxCapacity: u.MaxCapacity,
	}
	if u.Status != nil {
		s := domain.EventStatus(strings.ToLower(strings.TrimSpace(*u.Status)))
		p.Status = &s
	}
	return p
}

// EventListResponse is the data of GET /events.
type EventListResponse struct {
	Events     []*domain.Event  `json:"events"`
	Pagination h.PaginationMeta `json:"pagination"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Lists events ordered by date. Optional status filter, case-insensitive search over title, description and location, and pagination.
// @Tags events
// @Produce json
// @Param status query string false "open, full, cancelled, completed or all"
// @Param search query string false "Search text"
// @Param page query int false "Page number (1-based)" default(1)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} helpers.APIResponse "data contains events and pagination"
// @Failure 400 {object} helpers.APIResponse "code: validation_error"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := strings.ToLower(strings.TrimSpace(q.Get("status")))
	if status == "all" {
		status = ""
	}
	params := h.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), domain.EventFilter{
		Status:     domain.EventStatus(status),
		Search:     strings.TrimSpace(q.Get("search")),
		Pagination: params,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     events,
		Pagination: h.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetEvent godoc
// @Summary Get an event
// @Description Returns the event with its active participants and evaluations. With a valid token the caller's own participation and evaluation are included.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains event, participants, evaluations, user_participation and user_evaluation"
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var viewer *domain.Principal
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		viewer = &p
	}
	details, err := c.Service.GetEvent(r.Context(), eventID, viewer)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "event not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, details)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Admin only. Title 3-200 characters, location required, event_date in the future, max_capacity 1-10000 (default 50). HTML is stripped from text fields.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "code: forbidden"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), principal, domain.EventInput{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		Location:    req.Location,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	h.WriteJSONMessage(w, http.StatusCreated, "event created", event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Admin only. Partial update; omitted fields are unchanged. max_capacity cannot drop below the current participants. open/full are re-derived from capacity; cancelled and completed stick.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body UpdateEventRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "code: forbidden"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /events/{eventID} [put]
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), principal, eventID, req.patch())
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "event not found")
		return
	}
	h.WriteJSONMessage(w, http.StatusOK, "event updated", event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Admin only. Events that have any participation cannot be deleted.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "code: bad_request or conflict"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "code: forbidden"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		writeServiceError(w, r, c.Logger, err, "event not found")
		return
	}
	h.WriteJSONMessage(w, http.StatusOK, "event deleted", nil)
}
