package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/database"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"
)

const (
	KindGameReminder = "game_reminder"
	QueueReminders   = "reminders"
)

// GameReminderArgs is the payload of a reminder job.
type GameReminderArgs struct {
	GameID   uuid.UUID `json:"game_id"`
	StartsAt time.Time `json:"starts_at"`
}

func (GameReminderArgs) Kind() string { return KindGameReminder }

// GameSource loads the data a reminder reports.
type GameSource interface {
	GetGame(ctx context.Context, id uuid.UUID) (models.Game, error)
	ConfirmedPlayers(ctx context.Context, gameID uuid.UUID) ([]models.Player, error)
}

// Notifier delivers notifications to members.
type Notifier interface {
	PublishNotification(ctx context.Context, n models.Notification) error
}

// GameReminderWorker publishes a reminder for an upcoming game.
type GameReminderWorker struct {
	river.WorkerDefaults[GameReminderArgs]

	games    GameSource
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

func NewGameReminderWorker(games GameSource, notifier Notifier, log *logrus.Logger) *GameReminderWorker {
	return &GameReminderWorker{games: games, notifier: notifier, log: log, now: time.Now}
}

func (w *GameReminderWorker) Work(ctx context.Context, job *river.Job[GameReminderArgs]) error {
	entry := w.log.WithFields(logrus.Fields{"game_id": job.Args.GameID, "job_id": job.ID})

	game, err := w.games.GetGame(ctx, job.Args.GameID)
	if errors.Is(err, database.ErrNotFound) {
		entry.Warn("game of reminder no longer exists")
		return river.JobCancel(err)
	}
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if !game.Open() {
		entry.WithField("status", game.Status).Info("skipping reminder for closed game")
		return nil
	}
	// the game was rescheduled; the job for the new time will fire instead
	if !game.StartsAt.Equal(job.Args.StartsAt) {
		entry.Info("skipping reminder for rescheduled game")
		return nil
	}

	confirmed, err := w.games.ConfirmedPlayers(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("load confirmations: %w", err)
	}

	n := models.Notification{
		Kind:      KindGameReminder,
		GameID:    game.ID,
		Title:     game.Title,
		StartsAt:  game.StartsAt,
		Confirmed: len(confirmed),
		SentAt:    w.now().UTC(),
	}
	if err := w.notifier.PublishNotification(ctx, n); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	entry.WithField("confirmed", n.Confirmed).Info("game reminder sent")
	return nil
}
