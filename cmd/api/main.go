// @title Event Platform API
// @version 1.0
// @description Event management backend: events, registrations with capacity control, and ratings.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventplatform/config"
	_ "eventplatform/docs"
	"eventplatform/internal/adapters/auth"
	"eventplatform/internal/adapters/email"
	deliveryhttp "eventplatform/internal/delivery/http"
	"eventplatform/internal/delivery/http/controllers"
	"eventplatform/internal/domain"
	"eventplatform/internal/repository/memory"
	"eventplatform/internal/repository/postgres"
	"eventplatform/internal/services"
)

const shutdownTimeout = 15 * time.Second

// repositories is the store selected by STORE_DRIVER.
type repositories struct {
	users          domain.UserRepository
	events         domain.EventRepository
	participations domain.ParticipationRepository
	evaluations    domain.EvaluationRepository
	ping           func(ctx context.Context) error
	close          func() error
}

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.close(); err != nil {
			logger.Error("closing store", "err", err)
		}
	}()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	tokens := auth.NewJWT(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(0)
	timeout := cfg.RequestTimeout

	if err := ensureAdmin(ctx, cfg.Admin, repos.users, hasher, logger); err != nil {
		return err
	}

	authService := services.NewAuthService(services.AuthRepositories{
		Users:          repos.users,
		Participations: repos.participations,
		Evaluations:    repos.evaluations,
		Events:         repos.events,
	}, hasher, tokens, emailService, logger, cfg.JWTExpiry, timeout)
	eventService := services.NewEventService(repos.events, repos.participations, repos.evaluations, timeout)
	registrationService := services.NewRegistrationService(repos.participations, repos.events, repos.users, emailService, logger, timeout)
	evaluationService := services.NewEvaluationService(repos.evaluations, timeout)

	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:          controllers.NewAuthController(logger, authService),
		Event:         controllers.NewEventController(logger, eventService),
		Participation: controllers.NewParticipationController(logger, registrationService),
		Evaluation:    controllers.NewEvaluationController(logger, evaluationService),
		Health:        controllers.NewHealthController(logger, repos.ping),
	}, tokens, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deliveryhttp.NewHandler(mux, logger, cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment, "store", cfg.StoreDriver)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:          memory.NewUserRepository(store),
			events:         memory.NewEventRepository(store),
			participations: memory.NewParticipationRepository(store),
			evaluations:    memory.NewEvaluationRepository(store),
			close:          func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &repositories{
		users:          postgres.NewUserRepository(db),
		events:         postgres.NewEventRepository(db),
		participations: postgres.NewParticipationRepository(db),
		evaluations:    postgres.NewEvaluationRepository(db),
		ping:           db.PingContext,
		close:          db.Close,
	}, nil
}

func ensureAdmin(ctx context.Context, cfg config.AdminConfig, users domain.UserRepository, hasher domain.PasswordHasher, logger *slog.Logger) error {
	if !cfg.Enabled() {
		logger.Warn("ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD not set, no administrator provisioned")
		return nil
	}
	admin, created, err := services.EnsureAdmin(ctx, users, hasher, services.AdminAccount{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: cfg.Password,
	}, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("provision admin: %w", err)
	}
	if created {
		logger.Info("administrator created", "user_id", admin.ID, "email", admin.Email)
	}
	return nil
}
