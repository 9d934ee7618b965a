package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "eventplatform/internal/delivery/http/helpers"
	"eventplatform/internal/domain"
)

// RegisterRequest is the request body for POST /auth/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator. Format rules are enforced by the service.
func (s RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Username) == "" {
		errs = append(errs, "username is required")
	}
	if strings.TrimSpace(s.Email) == "" {
		errs = append(errs, "email is required")
	}
	if s.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.Email) == "" {
		errs = append(errs, "email is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// LoginResponse is the response body for POST /auth/login
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *domain.User `json:"user"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Create an account
// @Description Create a user with username, email and password. Usernames are 3-50 letters, digits or underscores; passwords need at least 6 characters. New accounts get the user role.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Sign-up data"
// @Success 201 {object} helpers.APIResponse "data contains the created user"
// @Failure 400 {object} helpers.APIResponse "code: validation_error, bad_request or conflict"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.SignUp(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	h.WriteJSONMessage(w, http.StatusCreated, "account created", user)
}

// Login godoc
// @Summary Log in
// @Description Authenticate with email and password. Returns a bearer JWT and the user.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} helpers.APIResponse "data contains token, token_type and user"
// @Failure 400 {object} helpers.APIResponse "code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, LoginResponse{Token: token, TokenType: "Bearer", User: user})
}

// Logout godoc
// @Summary Log out
// @Description Tokens are stateless; the client discards its token. Always succeeds for an authenticated caller.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Router /auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	h.WriteJSONMessage(w, http.StatusOK, "logged out", nil)
}

// Me godoc
// @Summary Current user
// @Description Returns the authenticated user with activity stats. Admins also get events_created and total_users.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains user and stats"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 500 {object} helpers.APIResponse "code: internal_error"
// @Router /auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	profile, err := c.Service.Me(r.Context(), principal)
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "user not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, profile)
}
