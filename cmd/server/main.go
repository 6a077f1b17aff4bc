package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/couvoir/internal/config"
	"github.com/mamadbah2/couvoir/internal/repository/mongodb"
	"github.com/mamadbah2/couvoir/internal/repository/sheets"
	"github.com/mamadbah2/couvoir/internal/scheduler"
	"github.com/mamadbah2/couvoir/internal/server/handlers"
	"github.com/mamadbah2/couvoir/internal/server/router"
	notifysvc "github.com/mamadbah2/couvoir/internal/service/notify"
	schedulesvc "github.com/mamadbah2/couvoir/internal/service/schedule"
	notifyclient "github.com/mamadbah2/couvoir/pkg/clients/notify"
	"github.com/mamadbah2/couvoir/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.Debug))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	location, err := time.LoadLocation(cfg.Reminders.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.String("timezone", cfg.Reminders.Timezone), zap.Error(err))
	}

	speciesTable, err := config.LoadSpeciesTable(cfg.Species)
	if err != nil {
		baseLogger.Fatal("failed to load species table", zap.Error(err))
	}

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var exporter sheets.Exporter
	if cfg.SheetsEnabled() {
		exporter, err = sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
	} else {
		baseLogger.Warn("sheet export disabled, credentials not configured")
	}

	scheduleSvc := schedulesvc.NewService(speciesTable, baseLogger.Named("svc.schedule"))

	runHandler := handlers.NewRunHandler(scheduleSvc, mongoRepo, exporter, location, baseLogger.Named("handlers.runs"))
	engine := router.New(runHandler, baseLogger.Named("router"))

	// Reminder delivery only runs when a webhook is configured; the HTTP
	// reminder query works either way.
	if cfg.NotifyEnabled() {
		webhookClient := notifyclient.NewClient(cfg.Notify)
		dispatcher := notifysvc.NewService(webhookClient, exporter, baseLogger.Named("svc.notify"))

		sched := scheduler.NewScheduler(cfg.Reminders, location, mongoRepo, dispatcher, baseLogger.Named("scheduler"))
		sched.Start()
		defer sched.Stop()
	} else {
		baseLogger.Warn("notify webhook missing, reminder delivery disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
