package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/config"
	"github.com/AdamBeresnev/bracket-engine/internal/db"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/service"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/jonboulle/clockwork"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		return err
	}

	tournaments := store.NewTournamentStore(database)
	sink := notify.Fanout{store.NewNotificationStore(database), notify.LogSink{Logger: logger}}
	clock := clockwork.NewRealClock()
	opts := []service.Option{
		service.WithClock(clock),
		service.WithLogger(logger),
		service.WithNotifyTimeout(cfg.NotifyTimeout),
	}

	app := &application{
		brackets:    service.NewBracketService(database, tournaments, sink, opts...),
		progression: service.NewProgressionService(database, tournaments, sink, opts...),
		sweeper: service.NewForfeitSweeper(database, tournaments, sink, service.SweeperConfig{
			ReminderLead: cfg.ReminderLead,
			WarningLead:  cfg.WarningLead,
		}, opts...),
		clock: clock,
	}

	scheduler, err := service.NewScheduler(tournaments, app.sweeper, service.SchedulerConfig{
		Interval:    cfg.SweepInterval,
		Concurrency: cfg.SweepConcurrency,
	}, clock, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Warn("failed to stop scheduler", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "driver", cfg.DBDriver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
