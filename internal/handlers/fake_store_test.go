package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/database"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/rating"
)

// memStore is an in-memory Store with the same access rules as the Postgres one.
type memStore struct {
	mu sync.Mutex

	players       []models.Player
	history       map[uuid.UUID][]models.RatingChange
	games         map[uuid.UUID]models.Game
	confirmations map[uuid.UUID][]uuid.UUID
	payments      []models.Payment
	withdrawals   []models.Withdrawal
	polls         map[uuid.UUID]models.Poll
	ballots       map[uuid.UUID]map[uuid.UUID]models.Ballot
	mvp           map[uuid.UUID][]models.MVPVote
	boards        map[uuid.UUID]models.Scoreboard
}

func newMemStore() *memStore {
	return &memStore{
		history:       make(map[uuid.UUID][]models.RatingChange),
		games:         make(map[uuid.UUID]models.Game),
		confirmations: make(map[uuid.UUID][]uuid.UUID),
		polls:         make(map[uuid.UUID]models.Poll),
		ballots:       make(map[uuid.UUID]map[uuid.UUID]models.Ballot),
		mvp:           make(map[uuid.UUID][]models.MVPVote),
		boards:        make(map[uuid.UUID]models.Scoreboard),
	}
}

func (m *memStore) addPlayer(p models.Player) models.Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.players = append(m.players, p)
	return p
}

func (m *memStore) addGame(g models.Game) models.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = models.StatusScheduled
	}
	m.games[g.ID] = g
	return g
}

func (m *memStore) confirm(gameID uuid.UUID, ids ...uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations[gameID] = append(m.confirmations[gameID], ids...)
}

func (m *memStore) findPlayer(id uuid.UUID) (models.Player, bool) {
	for _, p := range m.players {
		if p.ID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

func (m *memStore) PlayerByUserID(_ context.Context, userID uuid.UUID) (models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.UserID == userID {
			return p, nil
		}
	}
	return models.Player{}, database.ErrNotFound
}

func (m *memStore) ListPlayers(_ context.Context, activeOnly bool) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Player{}
	for _, p := range m.players {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) GetPlayer(_ context.Context, id uuid.UUID) (models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.findPlayer(id)
	if !ok {
		return models.Player{}, database.ErrNotFound
	}
	return p, nil
}

func (m *memStore) PlayersByIDs(_ context.Context, ids []uuid.UUID) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Player{}
	for _, id := range ids {
		p, ok := m.findPlayer(id)
		if !ok {
			return nil, database.ErrNotFound
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) SetAttributes(_ context.Context, sess auth.Session, playerID uuid.UUID, a models.Attributes) (models.RatingChange, error) {
	if !sess.IsAdmin {
		return models.RatingChange{}, database.ErrForbidden
	}
	r, err := rating.FromAttributes(a)
	if err != nil {
		return models.RatingChange{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.players {
		if p.ID != playerID {
			continue
		}
		change := models.RatingChange{PlayerID: playerID, OldRating: p.Rating, NewRating: r, ChangedBy: sess.PlayerID, ChangedAt: time.Now().UTC()}
		m.players[i].Rating = r
		m.history[playerID] = append(m.history[playerID], change)
		return change, nil
	}
	return models.RatingChange{}, database.ErrNotFound
}

func (m *memStore) RatingHistory(_ context.Context, playerID uuid.UUID) ([]models.RatingChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RatingChange{}, m.history[playerID]...), nil
}

func (m *memStore) CreateGame(_ context.Context, sess auth.Session, g *models.Game) error {
	if !sess.IsAdmin {
		return database.ErrForbidden
	}
	g.ID = uuid.New()
	g.Status = models.StatusScheduled
	g.CreatedBy = sess.PlayerID
	if err := g.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = *g
	return nil
}

func (m *memStore) GetGame(_ context.Context, id uuid.UUID) (models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return models.Game{}, database.ErrNotFound
	}
	return g, nil
}

func (m *memStore) ListUpcomingGames(_ context.Context, from time.Time) ([]models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Game{}
	for _, g := range m.games {
		if g.Open() && !g.StartsAt.Before(from) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memStore) SetGameStatus(_ context.Context, sess auth.Session, id uuid.UUID, status models.GameStatus) error {
	if !sess.IsAdmin {
		return database.ErrForbidden
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return database.ErrNotFound
	}
	g.Status = status
	m.games[id] = g
	return nil
}

func (m *memStore) ConfirmedPlayers(_ context.Context, gameID uuid.UUID) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Player{}
	for _, id := range m.confirmations[gameID] {
		if p, ok := m.findPlayer(id); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) Confirm(ctx context.Context, sess auth.Session, gameID uuid.UUID) ([]models.Player, error) {
	if !sess.HasPlayer() {
		return nil, database.ErrNoPlayer
	}
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return nil, database.ErrNotFound
	}
	if !g.Open() {
		m.mu.Unlock()
		return nil, database.ErrGameClosed
	}
	ids := m.confirmations[gameID]
	already := false
	for _, id := range ids {
		if id == sess.PlayerID {
			already = true
		}
	}
	if !already {
		if g.MaxPlayers > 0 && len(ids) >= g.MaxPlayers {
			m.mu.Unlock()
			return nil, database.ErrGameFull
		}
		m.confirmations[gameID] = append(ids, sess.PlayerID)
	}
	m.mu.Unlock()
	return m.ConfirmedPlayers(ctx, gameID)
}

func (m *memStore) Withdraw(ctx context.Context, sess auth.Session, gameID uuid.UUID) ([]models.Player, error) {
	if !sess.HasPlayer() {
		return nil, database.ErrNoPlayer
	}
	m.mu.Lock()
	if _, ok := m.games[gameID]; !ok {
		m.mu.Unlock()
		return nil, database.ErrNotFound
	}
	kept := []uuid.UUID{}
	for _, id := range m.confirmations[gameID] {
		if id != sess.PlayerID {
			kept = append(kept, id)
		}
	}
	m.confirmations[gameID] = kept
	m.mu.Unlock()
	return m.ConfirmedPlayers(ctx, gameID)
}

func (m *memStore) RecordPayment(_ context.Context, sess auth.Session, p *models.Payment) error {
	if !sess.IsAdmin {
		return database.ErrForbidden
	}
	p.ID = uuid.New()
	p.RecordedBy = sess.PlayerID
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, *p)
	return nil
}

func (m *memStore) RecordWithdrawal(_ context.Context, sess auth.Session, w *models.Withdrawal) error {
	if !sess.IsAdmin {
		return database.ErrForbidden
	}
	w.ID = uuid.New()
	w.RecordedBy = sess.PlayerID
	if w.WithdrawnAt.IsZero() {
		w.WithdrawnAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawals = append(m.withdrawals, *w)
	return nil
}

func (m *memStore) PaymentsForMonth(_ context.Context, month string) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if p.Reference == month {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) WithdrawalsForMonth(_ context.Context, month string, loc *time.Location) ([]models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Withdrawal{}
	for _, w := range m.withdrawals {
		if w.WithdrawnAt.In(loc).Format(models.MonthLayout) == month {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memStore) CreatePoll(_ context.Context, sess auth.Session, p *models.Poll) error {
	if !sess.IsAdmin {
		return database.ErrForbidden
	}
	p.ID = uuid.New()
	p.CreatedBy = sess.PlayerID
	p.CreatedAt = time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls[p.ID] = *p
	return nil
}

func (m *memStore) GetPoll(_ context.Context, id uuid.UUID) (models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok {
		return models.Poll{}, database.ErrNotFound
	}
	return p, nil
}

func (m *memStore) ListOpenPolls(_ context.Context, now time.Time) ([]models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Poll{}
	for _, p := range m.polls {
		if !p.ClosedAt(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CastBallot(_ context.Context, sess auth.Session, pollID uuid.UUID, choices []int) (models.Ballot, error) {
	if !sess.HasPlayer() {
		return models.Ballot{}, database.ErrNoPlayer
	}
	b := models.Ballot{PollID: pollID, VoterID: sess.PlayerID, Choices: choices, CastAt: time.Now().UTC()}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ballots[pollID] == nil {
		m.ballots[pollID] = make(map[uuid.UUID]models.Ballot)
	}
	m.ballots[pollID][sess.PlayerID] = b
	return b, nil
}

func (m *memStore) Ballots(_ context.Context, pollID uuid.UUID) ([]models.Ballot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Ballot{}
	for _, b := range m.ballots[pollID] {
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) CastMVPVote(_ context.Context, sess auth.Session, gameID, candidateID uuid.UUID) (models.MVPVote, error) {
	if !sess.HasPlayer() {
		return models.MVPVote{}, database.ErrNoPlayer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.mvp[gameID] {
		if v.VoterID == sess.PlayerID {
			return models.MVPVote{}, database.ErrConflict
		}
	}
	v := models.MVPVote{GameID: gameID, VoterID: sess.PlayerID, CandidateID: candidateID, CastAt: time.Now().UTC()}
	m.mvp[gameID] = append(m.mvp[gameID], v)
	return v, nil
}

func (m *memStore) MVPVotes(_ context.Context, gameID uuid.UUID) ([]models.MVPVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MVPVote{}, m.mvp[gameID]...), nil
}

func (m *memStore) GetScoreboard(_ context.Context, gameID uuid.UUID) (models.Scoreboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.boards[gameID]; ok {
		return b, nil
	}
	return models.Scoreboard{GameID: gameID}, nil
}

func (m *memStore) UpdateScoreboard(_ context.Context, gameID uuid.UUID, fn func(models.Scoreboard) (models.Scoreboard, error)) (models.Scoreboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[gameID]; !ok {
		return models.Scoreboard{}, database.ErrNotFound
	}
	current, ok := m.boards[gameID]
	if !ok {
		current = models.Scoreboard{GameID: gameID}
	}
	next, err := fn(current)
	if err != nil {
		return models.Scoreboard{}, err
	}
	m.boards[gameID] = next
	return next, nil
}

// recordingPublisher keeps everything published.
type recordingPublisher struct {
	mu     sync.Mutex
	audits []models.AuditRecord
	boards []models.ScoreboardUpdate
}

func (p *recordingPublisher) PublishAudit(_ context.Context, record models.AuditRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audits = append(p.audits, record)
	return nil
}

func (p *recordingPublisher) PublishScoreboard(_ context.Context, update models.ScoreboardUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boards = append(p.boards, update)
	return nil
}

func (p *recordingPublisher) auditCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.audits)
}

type recordingScheduler struct {
	mu    sync.Mutex
	games []models.Game
}

func (s *recordingScheduler) ScheduleGameReminder(_ context.Context, g models.Game) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, g)
	return true, nil
}
