// Package reminders schedules and runs game reminder jobs on River.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/schedule"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"github.com/sirupsen/logrus"
)

type inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Service owns the River client that schedules and works reminder jobs.
type Service struct {
	client *river.Client[pgx.Tx]
	insert inserter
	log    *logrus.Logger
	lead   time.Duration
	now    func() time.Time
}

// NewService builds a River client over pool with the reminder worker
// registered. Call Start to begin working jobs; inserting works without it.
func NewService(pool *pgxpool.Pool, games GameSource, notifier Notifier, log *logrus.Logger, lead time.Duration, maxWorkers int) (*Service, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewGameReminderWorker(games, notifier, log))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueReminders: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Service{client: client, insert: client, log: log, lead: lead, now: time.Now}, nil
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.log.Info("reminder queue started")
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.log.Info("reminder queue stopped")
	return nil
}

// ScheduleGameReminder inserts a reminder job at starts_at minus the lead
// time. It reports false without error when that moment already passed.
// Scheduling the same game and start time twice inserts one job.
func (s *Service) ScheduleGameReminder(ctx context.Context, game models.Game) (bool, error) {
	entry := s.log.WithFields(logrus.Fields{"game_id": game.ID, "starts_at": game.StartsAt})

	at, ok := schedule.ReminderAt(game.StartsAt, s.lead, s.now())
	if !ok {
		entry.Info("reminder time is in the past, skipping")
		return false, nil
	}

	res, err := s.insert.Insert(ctx, GameReminderArgs{GameID: game.ID, StartsAt: game.StartsAt}, &river.InsertOpts{
		Queue:       QueueReminders,
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to schedule game reminder: %w", err)
	}

	entry.WithFields(logrus.Fields{
		"job_id":       res.Job.ID,
		"scheduled_at": at,
		"duplicate":    res.UniqueSkippedAsDuplicate,
	}).Info("game reminder scheduled")
	return true, nil
}

// Migrate applies River's own schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return 0, fmt.Errorf("failed to run River migrations: %w", err)
	}
	return len(res.Versions), nil
}
