package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

type SchedulerConfig struct {
	Interval    time.Duration
	Concurrency int
}

// Scheduler periodically sends deadline reminders and sweeps expired
// matches across every ongoing tournament.
type Scheduler struct {
	sched   gocron.Scheduler
	store   *store.TournamentStore
	sweeper *ForfeitSweeper
	clock   clockwork.Clock
	logger  *slog.Logger
	cfg     SchedulerConfig
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(st *store.TournamentStore, sweeper *ForfeitSweeper, cfg SchedulerConfig, clock clockwork.Clock, logger *slog.Logger) (*Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:   sched,
		store:   st,
		sweeper: sweeper,
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func() {
			if err := s.RunOnce(s.ctx); err != nil {
				s.logger.Error("deadline sweep failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule deadline sweep: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info("deadline sweep scheduled", "interval", s.cfg.Interval)
}

func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}

// RunOnce runs one sweep over all ongoing tournaments, at most
// Concurrency tournaments at a time. A failing tournament does not stop the
// others.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	tournaments, err := s.store.ListOngoing(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ongoing tournaments: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, t := range tournaments {
		g.Go(func() error {
			now := s.clock.Now()
			if _, err := s.sweeper.SendReminders(gctx, t.ID, now); err != nil {
				s.logger.ErrorContext(gctx, "failed to send reminders", "tournament_id", t.ID, "error", err)
			}
			if _, err := s.sweeper.SweepExpired(gctx, t.ID, now); err != nil {
				s.logger.ErrorContext(gctx, "failed to sweep tournament", "tournament_id", t.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
