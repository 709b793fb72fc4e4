package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/cache"
	"github.com/brightclass/quiz-service/internal/config"
	"github.com/brightclass/quiz-service/internal/delivery/httpd"
	"github.com/brightclass/quiz-service/internal/middleware"
	"github.com/brightclass/quiz-service/internal/repository"
	"github.com/brightclass/quiz-service/internal/service"
	"github.com/brightclass/quiz-service/internal/service/integration"
	"github.com/brightclass/quiz-service/internal/service/policy"
)

type App struct {
	server      *http.Server
	logger      zerolog.Logger
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	notifier    integration.NotifierClient
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	notifier, err := integration.NewNotifierClient(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		log,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create RabbitMQ notifier")
		// Notifications are best-effort; the service keeps running without them.
		notifier = nil
	}

	var redisClient *redis.Client
	var recoveryCache cache.RecoveryCache = cache.NoopRecoveryCache{}
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		recoveryCache = cache.NewRecoveryCache(redisClient, cfg.Quiz.RecoveryTTL, log)
	}

	quizRepo := repository.NewQuizRepository(db, log)
	enrollmentRepo := repository.NewEnrollmentRepository(db, log)
	attemptRepo := repository.NewAttemptRepository(db, log)

	window := policy.NewTimeWindow(cfg.Quiz.GracePeriod)

	quizService := service.NewQuizService(quizRepo, window, log)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, quizRepo, window, notifier, log)
	attemptService := service.NewAttemptService(
		attemptRepo,
		enrollmentRepo,
		quizRepo,
		enrollmentService,
		window,
		recoveryCache,
		notifier,
		log,
	)
	reassignmentService := service.NewReassignmentService(enrollmentRepo, quizRepo, notifier, log)

	handler := httpd.NewHandler(
		quizService,
		enrollmentService,
		attemptService,
		reassignmentService,
		log,
	)

	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	router.Use(middleware.Identity)

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:      server,
		logger:      log,
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		notifier:    notifier,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting quiz service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down quiz service...")

	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
