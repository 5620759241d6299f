package main // Entry point package

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/patientdex/patient-dex/internal/config"
	"github.com/patientdex/patient-dex/internal/database"
	"github.com/patientdex/patient-dex/internal/handler"
	"github.com/patientdex/patient-dex/internal/middleware"
	"github.com/patientdex/patient-dex/internal/queue"
	"github.com/patientdex/patient-dex/internal/repository"
	"github.com/patientdex/patient-dex/internal/router"
	"github.com/patientdex/patient-dex/internal/upload"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using process environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Init(ctx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("schema initialization failed")
	}
	cancel()

	files, err := upload.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("upload directory unavailable")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable; rate limiting and report caching disabled")
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	patients := repository.NewPatientRepo(db)
	visits := repository.NewVisitRepo(db)
	documents := repository.NewDocumentRepo(db)
	reports := repository.NewReportRepo(db)

	authHandler := handler.NewAuthHandler(cfg.JWTSecret, users, sessions)
	authHandler.Accounts = users
	patientHandler := handler.NewPatientHandler(patients, visits, files)
	visitHandler := handler.NewVisitHandler(visits, documents, files)
	reportHandler := handler.NewReportHandler(reports)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestMetrics())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, config.LoadRateLimit(), rdb)
	router.RegisterAPI(e, cfg.JWTSecret, sessions, authHandler,
		patientHandler, visitHandler, reportHandler, config.LoadCache(), rdb)

	// Background audit trail: best-effort consumer of the clinic.audit
	// queue, reconnects on its own.
	go queue.StartAuditConsumer()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
