// Package scheduler runs the periodic payment housekeeping.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/Injamhossan/contest-arena/internal/service"
)

type Housekeeper interface {
	Run(ctx context.Context) (service.HousekeepingReport, error)
}

type Scheduler struct {
	sched  gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// New registers the housekeeping job to run every interval, starting
// immediately. A run still going when the next one is due is skipped.
func New(interval time.Duration, housekeeper Housekeeper) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("gocron.NewScheduler -> %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:  sched,
		ctx:    ctx,
		cancel: cancel,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.housekeep, housekeeper),
		gocron.WithName("payment-housekeeping"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sched.NewJob -> %w", err)
	}

	return s, nil
}

func (s *Scheduler) housekeep(housekeeper Housekeeper) {
	if _, err := housekeeper.Run(s.ctx); err != nil {
		zap.L().Error("housekeeping failed", zap.Error(err))
	}
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown cancels a running job and waits for it to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()

	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("s.sched.Shutdown -> %w", err)
	}

	return nil
}
