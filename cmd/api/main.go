package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/carelink/referral-api/internal/config"
	"github.com/carelink/referral-api/internal/email"
	"github.com/carelink/referral-api/internal/handler"
	adminHandler "github.com/carelink/referral-api/internal/handler/admin"
	consultationHandler "github.com/carelink/referral-api/internal/handler/consultation"
	doctorHandler "github.com/carelink/referral-api/internal/handler/doctor"
	patientHandler "github.com/carelink/referral-api/internal/handler/patient"
	workerHandler "github.com/carelink/referral-api/internal/handler/worker"
	"github.com/carelink/referral-api/internal/middleware"
	"github.com/carelink/referral-api/internal/repository/postgres"
	redisRepo "github.com/carelink/referral-api/internal/repository/redis"
	"github.com/carelink/referral-api/internal/router"
	adminService "github.com/carelink/referral-api/internal/service/admin"
	consultationService "github.com/carelink/referral-api/internal/service/consultation"
	doctorService "github.com/carelink/referral-api/internal/service/doctor"
	"github.com/carelink/referral-api/internal/service/org"
	patientService "github.com/carelink/referral-api/internal/service/patient"
	workerService "github.com/carelink/referral-api/internal/service/worker"
	"github.com/carelink/referral-api/pkg/auth"
	"github.com/carelink/referral-api/pkg/logger"
	"github.com/carelink/referral-api/pkg/metrics"
	"github.com/carelink/referral-api/pkg/security"
	"github.com/carelink/referral-api/pkg/storage"
)

func main() {
	logger.Setup(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	tokenRepo, err := redisRepo.NewTokenRepository(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	blobStore, err := storage.NewS3Store(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize blob storage")
	}

	var emailSvc email.Service
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewService(cfg.SMTP)
	} else {
		log.Warn().Msg("SMTP not configured, credential emails disabled")
		emailSvc = email.Noop()
	}

	m := metrics.NewMetrics("referral_api")

	adminRepo := postgres.NewAdminRepository(db, m)
	workerRepo := postgres.NewWorkerRepository(db, m)
	doctorRepo := postgres.NewDoctorRepository(db, m)
	patientRepo := postgres.NewPatientRepository(db, m)
	consultationRepo := postgres.NewConsultationRepository(db, m)

	hasher := security.NewBcryptHasher(12)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	orgSvc := org.NewService(workerRepo, doctorRepo, org.DefaultConfig())
	adminSvc := adminService.NewService(adminRepo, hasher, jwtSvc)
	workerSvc := workerService.NewService(workerRepo, orgSvc, hasher, jwtSvc, emailSvc)
	doctorSvc := doctorService.NewService(doctorRepo, adminRepo, orgSvc, hasher, jwtSvc, emailSvc)
	patientSvc := patientService.NewService(patientRepo, orgSvc)
	consultationSvc := consultationService.NewService(
		consultationRepo, patientRepo, doctorRepo, orgSvc, blobStore, m)

	authMW := middleware.NewAuthMiddleware(jwtSvc, tokenRepo)
	sessions := handler.NewSessions(tokenRepo, jwtSvc.Expiry())

	h := handler.NewHandler(db)
	r := router.NewRouter(
		authMW,
		h,
		m,
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORS:             corsConfig(cfg),
			MaxUploadBytes:   cfg.Server.MaxUploadBytes,
		},
		adminHandler.NewHandler(adminSvc, sessions),
		workerHandler.NewHandler(workerSvc, sessions),
		doctorHandler.NewHandler(doctorSvc, sessions),
		patientHandler.NewHandler(patientSvc),
		consultationHandler.NewHandler(consultationSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	return cors
}
