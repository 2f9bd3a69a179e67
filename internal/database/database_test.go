package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	schema, err := filepath.Abs(filepath.Join("testdata", "schema.sql"))
	require.NoError(t, err)

	dsn := testutil.Postgres(t, schema)
	pool, err := Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(pool)
}

func seedPlayer(t *testing.T, s *Store, name string, rating float64, admin bool) models.Player {
	t.Helper()
	p := models.Player{ID: uuid.New(), UserID: uuid.New(), Name: name, Rating: rating, IsAdmin: admin, IsActive: true}
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO players (id, user_id, name, rating, is_admin, is_active) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.UserID, p.Name, p.Rating, p.IsAdmin, p.IsActive)
	require.NoError(t, err)
	return p
}

func sessionFor(p models.Player) auth.Session {
	return auth.Session{UserID: p.UserID, PlayerID: p.ID, IsAdmin: p.IsAdmin}
}

func seedGame(t *testing.T, s *Store, admin auth.Session, maxPlayers int) models.Game {
	t.Helper()
	g := models.Game{
		Kind:       models.KindGame,
		Title:      "Saturday pickup",
		Location:   "Beach court 3",
		StartsAt:   time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second),
		MaxPlayers: maxPlayers,
	}
	require.NoError(t, s.CreateGame(context.Background(), admin, &g))
	return g
}

func TestStore(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	adminPlayer := seedPlayer(t, s, "Ana", 7, true)
	admin := sessionFor(adminPlayer)
	bia := seedPlayer(t, s, "Bia", 5, false)
	caio := seedPlayer(t, s, "Caio", 6, false)

	t.Run("players", func(t *testing.T) {
		players, err := s.ListPlayers(ctx, true)
		require.NoError(t, err)
		require.Len(t, players, 3)
		assert.Equal(t, "Ana", players[0].Name)

		got, err := s.PlayerByUserID(ctx, bia.UserID)
		require.NoError(t, err)
		assert.Equal(t, bia, got)

		_, err = s.GetPlayer(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)

		ordered, err := s.PlayersByIDs(ctx, []uuid.UUID{caio.ID, bia.ID})
		require.NoError(t, err)
		assert.Equal(t, []models.Player{caio, bia}, ordered)

		_, err = s.PlayersByIDs(ctx, []uuid.UUID{caio.ID, uuid.New()})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("attributes and rating history", func(t *testing.T) {
		attrs := models.Attributes{Serve: 7, Pass: 6, Attack: 8, Block: 5, Defense: 6, Setting: 4}

		_, err := s.SetAttributes(ctx, sessionFor(bia), caio.ID, attrs)
		assert.ErrorIs(t, err, ErrForbidden)

		change, err := s.SetAttributes(ctx, admin, caio.ID, attrs)
		require.NoError(t, err)
		assert.Equal(t, 6.0, change.OldRating)
		assert.Equal(t, 6.0, change.NewRating)

		attrs.Serve = 10
		change, err = s.SetAttributes(ctx, admin, caio.ID, attrs)
		require.NoError(t, err)
		assert.Equal(t, 6.5, change.NewRating)

		stored, err := s.GetAttributes(ctx, caio.ID)
		require.NoError(t, err)
		assert.Equal(t, attrs, stored)

		p, err := s.GetPlayer(ctx, caio.ID)
		require.NoError(t, err)
		assert.Equal(t, 6.5, p.Rating)

		history, err := s.RatingHistory(ctx, caio.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 6.5, history[1].NewRating)
		assert.Equal(t, adminPlayer.ID, history[1].ChangedBy)
	})

	t.Run("confirmations", func(t *testing.T) {
		game := seedGame(t, s, admin, 2)

		list, err := s.Confirm(ctx, sessionFor(bia), game.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		// idempotent
		list, err = s.Confirm(ctx, sessionFor(bia), game.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		list, err = s.Confirm(ctx, sessionFor(caio), game.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{bia.ID, caio.ID}, []uuid.UUID{list[0].ID, list[1].ID})

		_, err = s.Confirm(ctx, admin, game.ID)
		assert.ErrorIs(t, err, ErrGameFull)

		list, err = s.Withdraw(ctx, sessionFor(bia), game.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		_, err = s.Confirm(ctx, admin, game.ID)
		require.NoError(t, err)

		require.NoError(t, s.SetGameStatus(ctx, admin, game.ID, models.StatusCancelled))
		_, err = s.Confirm(ctx, sessionFor(bia), game.ID)
		assert.ErrorIs(t, err, ErrGameClosed)

		_, err = s.Confirm(ctx, auth.Session{UserID: uuid.New()}, game.ID)
		assert.ErrorIs(t, err, ErrNoPlayer)

		_, err = s.Confirm(ctx, sessionFor(bia), uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("upcoming games", func(t *testing.T) {
		g := seedGame(t, s, admin, 0)
		games, err := s.ListUpcomingGames(ctx, time.Now())
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(games))
		for _, game := range games {
			ids = append(ids, game.ID)
		}
		assert.Contains(t, ids, g.ID)

		got, err := s.GetGame(ctx, g.ID)
		require.NoError(t, err)
		assert.True(t, g.StartsAt.Equal(got.StartsAt))
		assert.Equal(t, adminPlayer.ID, got.CreatedBy)
	})

	t.Run("ledger", func(t *testing.T) {
		p := models.Payment{PlayerID: bia.ID, AmountCents: 15000, Kind: models.PaymentMonthly, Reference: "2025-03"}
		require.NoError(t, s.RecordPayment(ctx, admin, &p))
		assert.NotEqual(t, uuid.Nil, p.ID)

		err := s.RecordPayment(ctx, sessionFor(bia), &models.Payment{PlayerID: bia.ID, AmountCents: 1, Kind: models.PaymentDaily, Reference: "2025-03"})
		assert.ErrorIs(t, err, ErrForbidden)

		err = s.RecordPayment(ctx, admin, &models.Payment{PlayerID: bia.ID, AmountCents: -5, Kind: models.PaymentDaily, Reference: "2025-03"})
		assert.ErrorIs(t, err, models.ErrValidation)

		w := models.Withdrawal{AmountCents: 20000, Description: "Court rent", WithdrawnAt: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
		require.NoError(t, s.RecordWithdrawal(ctx, admin, &w))

		payments, err := s.PaymentsForMonth(ctx, "2025-03")
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, int64(15000), payments[0].AmountCents)

		withdrawals, err := s.WithdrawalsForMonth(ctx, "2025-03", time.UTC)
		require.NoError(t, err)
		require.Len(t, withdrawals, 1)
		assert.Equal(t, "Court rent", withdrawals[0].Description)

		withdrawals, err = s.WithdrawalsForMonth(ctx, "2025-04", time.UTC)
		require.NoError(t, err)
		assert.Empty(t, withdrawals)
	})

	t.Run("polls", func(t *testing.T) {
		closes := time.Now().Add(time.Hour)
		p := models.Poll{Question: "Tournament day?", Options: []string{"Sat", "Sun"}, ClosesAt: &closes}
		require.NoError(t, s.CreatePoll(ctx, admin, &p))

		_, err := s.CastBallot(ctx, sessionFor(bia), p.ID, []int{0})
		require.NoError(t, err)
		_, err = s.CastBallot(ctx, sessionFor(bia), p.ID, []int{1})
		require.NoError(t, err)

		ballots, err := s.Ballots(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, ballots, 1)
		assert.Equal(t, []int{1}, ballots[0].Choices)

		open, err := s.ListOpenPolls(ctx, time.Now())
		require.NoError(t, err)
		require.NotEmpty(t, open)
		assert.Equal(t, []string{"Sat", "Sun"}, open[0].Options)

		open, err = s.ListOpenPolls(ctx, closes.Add(time.Minute))
		require.NoError(t, err)
		assert.Empty(t, open)
	})

	t.Run("mvp votes", func(t *testing.T) {
		game := seedGame(t, s, admin, 0)
		_, err := s.CastMVPVote(ctx, sessionFor(bia), game.ID, caio.ID)
		require.NoError(t, err)

		_, err = s.CastMVPVote(ctx, sessionFor(bia), game.ID, adminPlayer.ID)
		assert.ErrorIs(t, err, ErrConflict)

		votes, err := s.MVPVotes(ctx, game.ID)
		require.NoError(t, err)
		require.Len(t, votes, 1)
		assert.Equal(t, caio.ID, votes[0].CandidateID)
	})

	t.Run("scoreboard", func(t *testing.T) {
		game := seedGame(t, s, admin, 0)

		b, err := s.GetScoreboard(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Scoreboard{GameID: game.ID}, b)

		at := time.Date(2025, time.March, 8, 9, 0, 0, 0, time.UTC)
		b, err = s.UpdateScoreboard(ctx, game.ID, func(cur models.Scoreboard) (models.Scoreboard, error) {
			cur.Home++
			cur.UpdatedAt = at
			return cur, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, b.Home)

		b, err = s.GetScoreboard(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, b.Home)
		assert.True(t, at.Equal(b.UpdatedAt))

		_, err = s.UpdateScoreboard(ctx, uuid.New(), func(cur models.Scoreboard) (models.Scoreboard, error) { return cur, nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("audit log", func(t *testing.T) {
		records := []models.AuditRecord{
			{Actor: adminPlayer.ID, Action: models.AuditPaymentRecorded, Entity: "payment", EntityID: uuid.New(), AmountCents: 100, At: time.Now().Add(-time.Minute)},
			{Actor: adminPlayer.ID, Action: models.AuditWithdrawalRecorded, Entity: "withdrawal", EntityID: uuid.New(), AmountCents: 50, At: time.Now()},
		}
		require.NoError(t, s.InsertAuditRecords(ctx, records))
		require.NoError(t, s.InsertAuditRecords(ctx, nil))

		got, err := s.AuditLog(ctx, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, models.AuditWithdrawalRecorded, got[0].Action)
	})
}
