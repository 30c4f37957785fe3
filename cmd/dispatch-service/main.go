package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fieldserve/dispatch/internal/auth"
	"github.com/fieldserve/dispatch/internal/config"
	"github.com/fieldserve/dispatch/internal/db"
	"github.com/fieldserve/dispatch/internal/export"
	httphandler "github.com/fieldserve/dispatch/internal/http"
	"github.com/fieldserve/dispatch/internal/http/middleware"
	"github.com/fieldserve/dispatch/internal/logger"
	"github.com/fieldserve/dispatch/internal/postcode"
	"github.com/fieldserve/dispatch/internal/repository"
	"github.com/fieldserve/dispatch/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	bookingRepo := repository.NewBookingRepository(database)
	engineerRepo := repository.NewEngineerRepository(database)
	catalogRepo := repository.NewCatalogRepository(database)
	allocationLogRepo := repository.NewAllocationLogRepository(database)

	postcodes := postcode.NewClient(
		cfg.Postcode.BaseURL,
		time.Duration(cfg.Postcode.TimeoutSeconds)*time.Second,
		time.Duration(cfg.Postcode.CacheTTLHours)*time.Hour,
		log,
	)

	pricingService := service.NewPricingService(bookingRepo, catalogRepo, postcodes, cfg, log)
	bookingService := service.NewBookingService(bookingRepo, log)
	allocationService := service.NewAllocationService(bookingRepo, engineerRepo, catalogRepo, allocationLogRepo, postcodes, cfg, log)
	auditService := service.NewAuditService(allocationLogRepo, export.NewExcelGenerator(), export.NewPDFGenerator(), log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(pricingService, bookingService, allocationService, auditService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting dispatch service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
