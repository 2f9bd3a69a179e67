// Package handlers exposes the club service over HTTP and websockets.
package handlers

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/draw"
	"github.com/jason-s-yu/volei/internal/metrics"
	"github.com/jason-s-yu/volei/internal/middleware"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/schedule"
	"github.com/jason-s-yu/volei/internal/scoreboard"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the handlers need. *database.Store implements it.
type Store interface {
	middleware.PlayerResolver

	ListPlayers(ctx context.Context, activeOnly bool) ([]models.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (models.Player, error)
	PlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error)
	SetAttributes(ctx context.Context, sess auth.Session, playerID uuid.UUID, a models.Attributes) (models.RatingChange, error)
	RatingHistory(ctx context.Context, playerID uuid.UUID) ([]models.RatingChange, error)

	CreateGame(ctx context.Context, sess auth.Session, g *models.Game) error
	GetGame(ctx context.Context, id uuid.UUID) (models.Game, error)
	ListUpcomingGames(ctx context.Context, from time.Time) ([]models.Game, error)
	SetGameStatus(ctx context.Context, sess auth.Session, id uuid.UUID, status models.GameStatus) error

	ConfirmedPlayers(ctx context.Context, gameID uuid.UUID) ([]models.Player, error)
	Confirm(ctx context.Context, sess auth.Session, gameID uuid.UUID) ([]models.Player, error)
	Withdraw(ctx context.Context, sess auth.Session, gameID uuid.UUID) ([]models.Player, error)

	RecordPayment(ctx context.Context, sess auth.Session, p *models.Payment) error
	RecordWithdrawal(ctx context.Context, sess auth.Session, w *models.Withdrawal) error
	PaymentsForMonth(ctx context.Context, month string) ([]models.Payment, error)
	WithdrawalsForMonth(ctx context.Context, month string, loc *time.Location) ([]models.Withdrawal, error)

	CreatePoll(ctx context.Context, sess auth.Session, p *models.Poll) error
	GetPoll(ctx context.Context, id uuid.UUID) (models.Poll, error)
	ListOpenPolls(ctx context.Context, now time.Time) ([]models.Poll, error)
	CastBallot(ctx context.Context, sess auth.Session, pollID uuid.UUID, choices []int) (models.Ballot, error)
	Ballots(ctx context.Context, pollID uuid.UUID) ([]models.Ballot, error)
	CastMVPVote(ctx context.Context, sess auth.Session, gameID, candidateID uuid.UUID) (models.MVPVote, error)
	MVPVotes(ctx context.Context, gameID uuid.UUID) ([]models.MVPVote, error)

	GetScoreboard(ctx context.Context, gameID uuid.UUID) (models.Scoreboard, error)
	UpdateScoreboard(ctx context.Context, gameID uuid.UUID, fn func(models.Scoreboard) (models.Scoreboard, error)) (models.Scoreboard, error)
}

// Publisher pushes events to the other processes of the club. *cache.Client
// implements it.
type Publisher interface {
	PublishAudit(ctx context.Context, record models.AuditRecord) error
	PublishScoreboard(ctx context.Context, update models.ScoreboardUpdate) error
}

// ReminderScheduler enqueues the reminder of a newly created game.
type ReminderScheduler interface {
	ScheduleGameReminder(ctx context.Context, game models.Game) (bool, error)
}

// ClubServer holds the dependencies shared by every handler.
type ClubServer struct {
	Store      Store
	Publisher  Publisher
	Reminders  ReminderScheduler
	Hub        *scoreboard.Hub
	Metrics    *metrics.Metrics
	Schedule   *schedule.Parser
	Verifier   *auth.Verifier
	Limiter    *middleware.IPRateLimiter
	InstanceID string
	Logger     *logrus.Logger

	// AllowedOrigins enables CORS for browser clients when non-empty.
	AllowedOrigins []string

	// Now and NewRand are replaced in tests.
	Now     func() time.Time
	NewRand func(seed int64) *rand.Rand
	NewSeed func() (int64, error)
}

// NewClubServer fills in the clock and random sources. The remaining fields
// are set by the caller.
func NewClubServer(store Store, logger *logrus.Logger) *ClubServer {
	return &ClubServer{
		Store:   store,
		Hub:     scoreboard.NewHub(logger),
		Logger:  logger,
		Now:     time.Now,
		NewRand: draw.NewRand,
		NewSeed: draw.NewSeed,
	}
}

// Routes builds the HTTP handler of the service.
func (s *ClubServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(s.Logger))
	if len(s.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if s.Limiter != nil {
			r.Use(middleware.RateLimit(s.Limiter))
		}
		if s.Metrics != nil {
			r.Use(middleware.Instrument(s.Metrics))
		}
		r.Use(middleware.Authenticate(s.Verifier, s.Store, s.Logger))

		r.Get("/players", ListPlayersHandler(s))
		r.Get("/players/{id}/rating-chart", RatingChartHandler(s))
		r.With(middleware.RequireAdmin).Put("/players/{id}/attributes", SetAttributesHandler(s))

		r.Get("/games", ListGamesHandler(s))
		r.With(middleware.RequireAdmin).Post("/games", CreateGameHandler(s))
		r.Route("/games/{id}", func(r chi.Router) {
			r.With(middleware.RequireAdmin).Put("/status", SetGameStatusHandler(s))

			r.Get("/confirmations", ListConfirmationsHandler(s))
			r.Post("/confirmations", ConfirmHandler(s))
			r.Delete("/confirmations", WithdrawHandler(s))

			r.With(middleware.RequireAdmin).Post("/draw", DrawHandler(s))

			r.Get("/scoreboard", GetScoreboardHandler(s))
			r.With(middleware.RequireAdmin).Post("/scoreboard", UpdateScoreboardHandler(s))
			r.Get("/scoreboard/ws", ScoreboardWSHandler(s))

			r.Get("/mvp", MVPResultsHandler(s))
			r.Post("/mvp", MVPVoteHandler(s))
		})

		r.Get("/polls", ListPollsHandler(s))
		r.With(middleware.RequireAdmin).Post("/polls", CreatePollHandler(s))
		r.Post("/polls/{id}/votes", VoteHandler(s))
		r.Get("/polls/{id}/results", PollResultsHandler(s))

		r.Route("/ledger", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", LedgerHandler(s))
			r.Get("/export", LedgerExportHandler(s))
			r.Post("/payments", RecordPaymentHandler(s))
			r.Post("/withdrawals", RecordWithdrawalHandler(s))
		})
	})
	return r
}

// publishAudit sends record to the audit queue. The ledger write already
// succeeded, so a failure is logged and counted but not returned.
func (s *ClubServer) publishAudit(ctx context.Context, record models.AuditRecord) {
	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishAudit(ctx, record)
	if s.Metrics != nil {
		s.Metrics.AuditPublished(err)
	}
	if err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"action":    record.Action,
			"entity_id": record.EntityID,
		}).Error("failed to publish audit record")
	}
}
