package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
)

type sentPurger interface {
	PurgeSent(ctx context.Context, before time.Time) (int64, error)
}

// purgeScheduler deletes published outbox rows older than the retention on a
// cron schedule.
type purgeScheduler struct {
	cron      *cron.Cron
	repo      sentPurger
	retention time.Duration
	now       func() time.Time
}

func newPurgeScheduler(repo sentPurger, spec string, retention time.Duration) (*purgeScheduler, error) {
	s := &purgeScheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		repo:      repo,
		retention: retention,
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.runOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the schedule until ctx is done.
func (s *purgeScheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
}

func (s *purgeScheduler) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	before := s.now().UTC().Add(-s.retention)
	deleted, err := s.repo.PurgeSent(ctx, before)
	if err != nil {
		logger.Error("failed to purge sent outbox events", zap.Error(err))
		return
	}
	logger.Info("purged sent outbox events",
		zap.Int64("deleted", deleted),
		zap.Time("before", before),
	)
}
