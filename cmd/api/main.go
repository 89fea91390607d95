package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/workdeck/workdeck-api/internal/config"
	"github.com/workdeck/workdeck-api/internal/handler"
	"github.com/workdeck/workdeck-api/internal/middleware"
	"github.com/workdeck/workdeck-api/internal/repository"
	"github.com/workdeck/workdeck-api/internal/usecase"
	"github.com/workdeck/workdeck-api/pkg/auth"
	"github.com/workdeck/workdeck-api/pkg/mailer"
	"github.com/workdeck/workdeck-api/pkg/provider"
	"github.com/workdeck/workdeck-api/pkg/validate"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg := config.NewConfig(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := client.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)
	pendingRepo := repository.NewPendingRegistrationMongoRepository(ctx, &logger, db, cfg.OTP.TTL)

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer)
	mail := mailer.NewMailer(&logger)

	registrationUsecase := usecase.NewRegistrationUsecase(userRepo, pendingRepo, mail, &logger, cfg)
	authUsecase := usecase.NewAuthUsecase(userRepo, jwtAuth, cfg)
	profileUsecase := usecase.NewProfileUsecase(userRepo, jwtAuth, cfg)

	validator, err := validate.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create validator")
	}

	var googleProvider *provider.GoogleProvider
	if cfg.OAuth.GoogleClientID != "" {
		googleProvider = provider.NewGoogleProvider(cfg.OAuth.GoogleClientID)
	}
	githubProvider := provider.NewGitHubProvider()

	authHandler := handler.NewAuthHandler(
		registrationUsecase,
		authUsecase,
		profileUsecase,
		googleProvider,
		githubProvider,
		validator,
		&logger,
	)
	userHandler := handler.NewUserHandler(profileUsecase, validator, &logger, cfg.UploadDir)

	requireAuth := middleware.RequireAuth(jwtAuth, cfg.Token.Secret)
	router := handler.NewRouter(cfg, &logger, authHandler, userHandler, requireAuth)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.Addr()).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()

	if err := server.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
