package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventplatform/internal/delivery/http/controllers"
	h "eventplatform/internal/delivery/http/helpers"
	"eventplatform/internal/delivery/http/middleware"
	"eventplatform/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth          *controllers.AuthController
	Event         *controllers.EventController
	Participation *controllers.ParticipationController
	Evaluation    *controllers.EvaluationController
	Health        *controllers.HealthController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	optionalAuth := middleware.OptionalAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/register", c.Auth.Register)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("POST /auth/logout", auth(c.Auth.Logout))
	mux.HandleFunc("GET /auth/me", auth(c.Auth.Me))

	// Events
	mux.HandleFunc("GET /events", c.Event.ListEvents)
	mux.HandleFunc("POST /events", auth(c.Event.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", optionalAuth(c.Event.GetEvent))
	mux.HandleFunc("PUT /events/{eventID}", auth(c.Event.UpdateEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(c.Event.DeleteEvent))

	// Participations
	mux.HandleFunc("GET /participations", auth(c.Participation.ListParticipations))
	mux.HandleFunc("POST /participations", auth(c.Participation.Register))
	mux.HandleFunc("DELETE /participations/{eventID}", auth(c.Participation.Cancel))

	// Evaluations
	mux.HandleFunc("GET /evaluations", c.Evaluation.ListEvaluations)
	mux.HandleFunc("POST /evaluations", auth(c.Evaluation.CreateEvaluation))
	mux.HandleFunc("PUT /evaluations/{evaluationID}", auth(c.Evaluation.UpdateEvaluation))
	mux.HandleFunc("DELETE /evaluations/{evaluationID}", auth(c.Evaluation.DeleteEvaluation))

	mux.HandleFunc("GET /healthz", c.Health.Health)

	// Known paths with an unsupported method get a JSON 405 instead of the
	// mux's plain text one.
	for _, path := range []string{
		"/auth/register", "/auth/login", "/auth/logout", "/auth/me",
		"/events", "/events/{eventID}",
		"/participations", "/participations/{eventID}",
		"/evaluations", "/evaluations/{evaluationID}",
		"/healthz",
	} {
		mux.HandleFunc(path, methodNotAllowed)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("/", notFound)

	return mux
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONError(w, http.StatusMethodNotAllowed, h.ErrCodeMethodNotAllowed, "method "+r.Method+" not allowed")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "route not found")
}

// NewHandler wraps the router with the middleware every request goes through.
func NewHandler(mux http.Handler, logger *slog.Logger, allowedOrigins []string) http.Handler {
	var handler http.Handler = mux
	handler = middleware.CORS(allowedOrigins, handler)
	handler = middleware.Recover(logger, handler)
	handler = middleware.LoggingMiddleware(logger, handler)
	return middleware.RequestID(handler)
}
