package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"housetrades/src/api"
	apihandlers "housetrades/src/api/handlers"
	"housetrades/src/clients/housewatcher"
	"housetrades/src/clients/yahoo"
	"housetrades/src/config"
	"housetrades/src/database"
	"housetrades/src/services"
	"housetrades/src/utils"
	aws_handler "housetrades/src/utils/aws"
	"housetrades/src/valuation"
	"housetrades/src/worker"
	"housetrades/src/worker/controllers"
	workerhandlers "housetrades/src/worker/handlers"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Println(err, "Error while loading config")
		return
	}
	logger := utils.NewLogger(utils.ParseLogLevel(cfg.Service.LogLevel), cfg.Service.LogToFile, cfg.Service.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := utils.SetupTracing(cfg.Tracing.Enabled, os.Stdout)
	if err != nil {
		logger.WithError(err).Error("Couldn't set up tracing")
		return
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	httpServer, cleanup, err := run(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Couldn't run")
		return
	}
	defer cleanup()

	errC := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Service.Port).Infof("Starting %s server", cfg.Service.Type)

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		if err != nil {
			logger.WithError(err).Error("Error while running")
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error while shutting down")
		}
	}
}

// run wires the configured service type and returns its HTTP server together
// with the cleanup to call once the server stopped.
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*http.Server, func(), error) {
	if err := aws_handler.ResolveDatabasePassword(ctx, cfg); err != nil {
		return nil, nil, err
	}
	db, err := database.NewHandle(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	metrics := utils.NewMetrics()
	repos := services.NewRepositories(db)

	if cfg.Service.Type == config.API {
		engine := valuation.NewEngine(services.NewBucketResolver(logger), time.Now)
		dashboard := services.NewDashboardService(db, repos, engine, metrics, logger)
		handler := apihandlers.NewHandler(dashboard, services.NewReportService(dashboard), logger)
		server := api.NewServer(handler, metrics)
		return api.NewHTTPServer(server, cfg.Service.Port), db.Close, nil
	}

	houseWatcher, err := housewatcher.NewClient(cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	ingestion := services.NewIngestionService(cfg, db, repos, houseWatcher, yahoo.NewClient(cfg), metrics, logger)
	controller := controllers.NewController(ingestion, services.NewValidationService(repos.Transactions), logger)
	if cfg.Ingestion.Cron != "" {
		if err := controller.ScheduleIngestion(utils.IngestionKindAll, cfg.Ingestion.Cron); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	server := worker.NewServer(workerhandlers.NewHandler(controller), metrics)
	cleanup := func() {
		controller.CancelSchedules()
		db.Close()
	}
	return worker.NewHTTPServer(server, cfg.Service.Port, cfg.Ingestion.Timeout), cleanup, nil
}
