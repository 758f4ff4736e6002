package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"dormstay/config"
	"dormstay/internal/api"
	"dormstay/internal/booking"
	"dormstay/internal/db"
	"dormstay/internal/janitor"
	"dormstay/internal/model"
	"dormstay/internal/notification"
	"dormstay/internal/parse"
	"dormstay/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using the process environment")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	logger := setupLogger(cfg.Log)
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	// Validate already checked the timezone.
	loc, _ := time.LoadLocation(cfg.Booking.Timezone)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, store.Options{
		PageSize:   cfg.Booking.PageSize,
		MaxRetries: cfg.Booking.MaxRetries,
		Logger:     logger.With().Str("component", "store").Logger(),
	})

	if err := bootstrapStaff(ctx, appStore, cfg.Auth.Bootstrap, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to create bootstrap staff account")
	}

	var (
		notifier       booking.Notifier
		webpushOptions *webpush.Options
	)
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
		pool.Start(ctx)
		notifier = pool
	} else {
		logger.Warn().Msg("VAPID keys are not configured, booking confirmations will not be pushed")
	}

	bookingSvc := booking.NewService(appStore, booking.Options{
		AllowReassign: cfg.Booking.Reassign(),
		Now:           func() time.Time { return time.Now().In(loc) },
		Notifier:      notifier,
		Logger:        logger.With().Str("component", "booking").Logger(),
	})

	go janitor.NewService(appStore, cfg.Janitor.Interval, logger.With().Str("component", "janitor").Logger()).Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Deps{
		Store:      appStore,
		Booking:    bookingSvc,
		Webpush:    webpushOptions,
		Server:     cfg.Server,
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     logger.With().Str("component", "api").Logger(),
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server Shutdown")
	}
	logger.Info().Msg("server gracefully stopped")
}

func setupLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "dormd").Logger()
	return log.Logger
}

// bootstrapStaff creates the configured staff account when it does not exist yet.
func bootstrapStaff(ctx context.Context, s store.Store, acct config.StaffAccount, logger zerolog.Logger) error {
	if acct.StudentCode == "" || acct.Password == "" {
		return nil
	}
	code, err := parse.StudentCode(acct.StudentCode)
	if err != nil {
		return err
	}
	national, err := parse.NationalCode(acct.NationalCode)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	staff := model.Student{
		FirstName:    "Dorm",
		LastName:     "Office",
		StudentCode:  code,
		NationalCode: national,
		PasswordHash: string(hash),
	}
	created, err := s.EnsureStaff(ctx, &staff)
	if err != nil {
		return err
	}
	if created {
		logger.Info().Str("student_code", code).Msg("bootstrap staff account created")
	}
	return nil
}
