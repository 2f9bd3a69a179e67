package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/models"
)

const pollColumns = `id, question, options, multiple, closes_at, created_by, created_at`

func scanPoll(row pgx.Row) (models.Poll, error) {
	var p models.Poll
	err := row.Scan(&p.ID, &p.Question, &p.Options, &p.Multiple, &p.ClosesAt, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

func (s *Store) CreatePoll(ctx context.Context, sess auth.Session, p *models.Poll) error {
	if !sess.IsAdmin {
		return ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedBy = sess.PlayerID
	p.CreatedAt = time.Now().UTC()

	q := `INSERT INTO polls (` + pollColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, q, p.ID, p.Question, p.Options, p.Multiple, p.ClosesAt, p.CreatedBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", translate(err))
	}
	return nil
}

func (s *Store) GetPoll(ctx context.Context, id uuid.UUID) (models.Poll, error) {
	p, err := scanPoll(s.pool.QueryRow(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = $1`, id))
	if err != nil {
		return models.Poll{}, fmt.Errorf("get poll %s: %w", id, translate(err))
	}
	return p, nil
}

// ListOpenPolls returns polls still accepting ballots at now, newest first.
func (s *Store) ListOpenPolls(ctx context.Context, now time.Time) ([]models.Poll, error) {
	q := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE closes_at IS NULL OR closes_at > $1
		ORDER BY created_at DESC, id
	`
	rows, err := s.pool.Query(ctx, q, now)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

// CastBallot stores the caller's ballot, replacing any earlier one. Choices
// must already be validated against the poll.
func (s *Store) CastBallot(ctx context.Context, sess auth.Session, pollID uuid.UUID, choices []int) (models.Ballot, error) {
	if !sess.HasPlayer() {
		return models.Ballot{}, ErrNoPlayer
	}
	b := models.Ballot{PollID: pollID, VoterID: sess.PlayerID, Choices: choices, CastAt: time.Now().UTC()}

	q := `
		INSERT INTO poll_ballots (poll_id, voter_id, choices, cast_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id, voter_id)
		DO UPDATE SET choices = EXCLUDED.choices, cast_at = EXCLUDED.cast_at
	`
	if _, err := s.pool.Exec(ctx, q, b.PollID, b.VoterID, b.Choices, b.CastAt); err != nil {
		return models.Ballot{}, fmt.Errorf("cast ballot: %w", translate(err))
	}
	return b, nil
}

func (s *Store) Ballots(ctx context.Context, pollID uuid.UUID) ([]models.Ballot, error) {
	q := `SELECT poll_id, voter_id, choices, cast_at FROM poll_ballots WHERE poll_id = $1 ORDER BY cast_at, voter_id`
	rows, err := s.pool.Query(ctx, q, pollID)
	if err != nil {
		return nil, fmt.Errorf("ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		var b models.Ballot
		if err := rows.Scan(&b.PollID, &b.VoterID, &b.Choices, &b.CastAt); err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

// CastMVPVote stores the caller's MVP vote. A second vote for the same game
// fails with ErrConflict.
func (s *Store) CastMVPVote(ctx context.Context, sess auth.Session, gameID, candidateID uuid.UUID) (models.MVPVote, error) {
	if !sess.HasPlayer() {
		return models.MVPVote{}, ErrNoPlayer
	}
	v := models.MVPVote{GameID: gameID, VoterID: sess.PlayerID, CandidateID: candidateID, CastAt: time.Now().UTC()}

	q := `INSERT INTO mvp_votes (game_id, voter_id, candidate_id, cast_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, q, v.GameID, v.VoterID, v.CandidateID, v.CastAt); err != nil {
		return models.MVPVote{}, fmt.Errorf("cast mvp vote: %w", translate(err))
	}
	return v, nil
}

func (s *Store) MVPVotes(ctx context.Context, gameID uuid.UUID) ([]models.MVPVote, error) {
	q := `SELECT game_id, voter_id, candidate_id, cast_at FROM mvp_votes WHERE game_id = $1 ORDER BY cast_at, voter_id`
	rows, err := s.pool.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("mvp votes: %w", err)
	}
	defer rows.Close()

	votes := []models.MVPVote{}
	for rows.Next() {
		var v models.MVPVote
		if err := rows.Scan(&v.GameID, &v.VoterID, &v.CandidateID, &v.CastAt); err != nil {
			return nil, fmt.Errorf("scan mvp vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
