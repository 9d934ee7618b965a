package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "eventplatform/internal/delivery/http/helpers"
	"eventplatform/internal/domain"
)

// CreateEvaluationRequest is the request body for POST /evaluations
type CreateEvaluationRequest struct {
	EventID string `json:"event_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Validate implements Validator. The rating range is checked by the service.
func (e CreateEvaluationRequest) Validate() []string {
	if strings.TrimSpace(e.EventID) == "" {
		return []string{"event_id is required"}
	}
	if !validUUID(e.EventID) {
		return []string{"event_id must be a UUID"}
	}
	return nil
}

// UpdateEvaluationRequest is the request body for PUT /evaluations/{evaluationID}
type UpdateEvaluationRequest struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// CreateEvaluationResponse is the data of POST /evaluations.
type CreateEvaluationResponse struct {
	Evaluation *domain.Evaluation    `json:"evaluation"`
	Summary    *domain.RatingSummary `json:"summary"`
}

type EvaluationController struct {
	Logger  *slog.Logger
	Service domain.EvaluationService
}

func NewEvaluationController(logger *slog.Logger, svc domain.EvaluationService) *EvaluationController {
	return &EvaluationController{
		Logger:  logger,
		Service: svc,
	}
}

// ListEvaluations godoc
// @Summary List evaluations
// @Description Newest first, optionally filtered by event and/or user. When event_id is given the rating statistics of that event are included.
// @Tags evaluations
// @Produce json
// @Param event_id query string false "Event ID (UUID)"
// @Param user_id query string false "User ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains evaluations and stats"
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /evaluations [get]
func (c *EvaluationController) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EvaluationFilter{EventID: q.Get("event_id"), UserID: q.Get("user_id")}
	if !validUUID(filter.UserID) || !validUUID(filter.EventID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "user_id and event_id must be UUIDs")
		return
	}
	list, err := c.Service.ListEvaluations(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	if list.Evaluations == nil {
		list.Evaluations = []*domain.EvaluationView{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, list)
}

// CreateEvaluation godoc
// @Summary Evaluate an event
// @Description Rate an event 1-5 with an optional comment. Requires an active registration; one evaluation per user and event. Returns the refreshed rating summary.
// @Tags evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEvaluationRequest true "Evaluation"
// @Success 201 {object} helpers.APIResponse "data contains evaluation and summary"
// @Failure 400 {object} helpers.APIResponse "code: bad_request, validation_error or conflict"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /evaluations [post]
func (c *EvaluationController) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req CreateEvaluationRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	evaluation, summary, err := c.Service.AddEvaluation(r.Context(), principal, req.EventID, req.Rating, req.Comment)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "event not found")
		return
	}
	h.WriteJSONMessage(w, http.StatusCreated, "evaluation created", CreateEvaluationResponse{
		Evaluation: evaluation,
		Summary:    summary,
	})
}

// UpdateEvaluation godoc
// @Summary Update an evaluation
// @Description Author or admin only. Change the rating and/or comment.
// @Tags evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param evaluationID path string true "Evaluation ID (UUID)"
// @Param body body UpdateEvaluationRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated evaluation"
// @Failure 400 {object} helpers.APIResponse "code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "code: forbidden"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /evaluations/{evaluationID} [put]
func (c *EvaluationController) UpdateEvaluation(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	var req UpdateEvaluationRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	evaluation, err := c.Service.UpdateEvaluation(r.Context(), principal, evaluationID, domain.EvaluationPatch{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "evaluation not found")
		return
	}
	h.WriteJSONMessage(w, http.StatusOK, "evaluation updated", evaluation)
}

// DeleteEvaluation godoc
// @Summary Delete an evaluation
// @Description Author or admin only. The event's rating aggregates are recomputed.
// @Tags evaluations
// @Produce json
// @Security BearerAuth
// @Param evaluationID path string true "Evaluation ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "code: forbidden"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /evaluations/{evaluationID} [delete]
func (c *EvaluationController) DeleteEvaluation(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	if err := c.Service.DeleteEvaluation(r.Context(), principal, evaluationID); err != nil {
		writeServiceError(w, r, c.Logger, err, "evaluation not found")
		return
	}
	h.WriteJSONMessage(w, http.StatusOK, "evaluation deleted", nil)
}
