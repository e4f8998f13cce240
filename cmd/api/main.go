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

	"github.com/joho/godotenv"
	"github.com/landing-auth/internal/config"
	"github.com/landing-auth/internal/infrastructure/awsconf"
	"github.com/landing-auth/internal/infrastructure/dynamo"
	"github.com/landing-auth/internal/infrastructure/google"
	jwtinfra "github.com/landing-auth/internal/infrastructure/jwt"
	redisinfra "github.com/landing-auth/internal/infrastructure/redis"
	s3infra "github.com/landing-auth/internal/infrastructure/s3"
	"github.com/landing-auth/internal/infrastructure/smtp"
	"github.com/landing-auth/internal/pkg/logger"
	transporthttp "github.com/landing-auth/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Debug("no .env file found, reading from environment")
	}
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := context.Background()

	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	tokens, err := jwtinfra.NewProvider(cfg.SessionSecret, cfg.SessionExpiry)
	if err != nil {
		return fmt.Errorf("session tokens: %w", err)
	}

	deps := &transporthttp.Deps{
		Accounts:   dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts),
		Identities: dynamo.NewIdentityRepo(dynamoClient, cfg.DynamoTables.Identities),
		Documents:  dynamo.NewDocumentRepo(dynamoClient, cfg.DynamoTables.Documents),
		Tokens:     tokens,
	}

	// Each optional integration is assigned only when configured so the
	// interface fields stay nil otherwise.
	if cfg.S3BucketName != "" {
		baseURL := cfg.S3PublicBaseURL
		if baseURL == "" {
			baseURL = s3infra.PublicBaseURL(cfg.S3BucketName, cfg.AWSRegion, cfg.AWSEndpointURL)
		}
		deps.Objects = s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, baseURL)
	} else {
		log.Warn("S3_BUCKET_NAME not set, avatar uploads disabled")
	}

	if cfg.SMTP.Enabled() {
		mailer, err := smtp.NewMailer(cfg.SMTP)
		if err != nil {
			log.Warn("email sender not configured", "err", err)
		} else {
			deps.Mailer = mailer
		}
	} else {
		log.Warn("SMTP credentials not set, verification codes will not be mailed")
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisinfra.NewClient(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable, code send throttle disabled", "err", err)
		} else {
			defer rdb.Close()
			deps.Throttle = redisinfra.NewThrottle(rdb, cfg.OTPSendLimitPerHour, time.Hour)
		}
	}

	if cfg.GoogleClientID != "" {
		deps.Verifier = google.NewVerifier(cfg.GoogleClientID)
	} else {
		log.Warn("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	router, stop, err := transporthttp.NewRouter(cfg, deps, log)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
