package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/poll"
)

type createPollRequest struct {
	Question string     `json:"question"`
	Options  []string   `json:"options"`
	Multiple bool       `json:"multiple"`
	ClosesAt *time.Time `json:"closes_at,omitempty"`
}

type voteRequest struct {
	Choices []int `json:"choices"`
}

type mvpVoteRequest struct {
	CandidateID uuid.UUID `json:"candidate_id"`
}

// ListPollsHandler returns polls that still accept ballots.
func ListPollsHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		polls, err := s.Store.ListOpenPolls(r.Context(), s.Now())
		if err != nil {
			writeError(w, s.Logger, err, "failed to list polls")
			return
		}
		writeJSON(w, http.StatusOK, polls)
	}
}

func CreatePollHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		var req createPollRequest
		if err := decodeJSON(w, r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.ClosesAt != nil && !req.ClosesAt.After(s.Now()) {
			http.Error(w, "closes_at must be in the future", http.StatusBadRequest)
			return
		}

		p := models.Poll{
			Question: req.Question,
			Options:  req.Options,
			Multiple: req.Multiple,
			ClosesAt: req.ClosesAt,
		}
		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.Store.CreatePoll(r.Context(), sess, &p); err != nil {
			writeError(w, s.Logger, err, "failed to create poll")
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// VoteHandler stores the caller's ballot, replacing an earlier one.
func VoteHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		pollID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req voteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p, err := s.Store.GetPoll(r.Context(), pollID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load poll")
			return
		}
		choices, err := poll.ValidateBallot(p, req.Choices, s.Now())
		if err != nil {
			writeError(w, s.Logger, err, "invalid ballot")
			return
		}
		ballot, err := s.Store.CastBallot(r.Context(), sess, pollID, choices)
		if err != nil {
			writeError(w, s.Logger, err, "failed to cast ballot")
			return
		}
		writeJSON(w, http.StatusOK, ballot)
	}
}

func PollResultsHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pollID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p, err := s.Store.GetPoll(r.Context(), pollID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load poll")
			return
		}
		ballots, err := s.Store.Ballots(r.Context(), pollID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load ballots")
			return
		}
		writeJSON(w, http.StatusOK, poll.Tally(p, ballots))
	}
}

// MVPVoteHandler records the caller's vote for the best player of a game.
// Only confirmed players may vote or be voted for.
func MVPVoteHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		if !sess.HasPlayer() {
			http.Error(w, "caller has no player record", http.StatusForbidden)
			return
		}
		gameID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req mvpVoteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if _, err := s.Store.GetGame(r.Context(), gameID); err != nil {
			writeError(w, s.Logger, err, "failed to load game")
			return
		}
		confirmed, err := s.Store.ConfirmedPlayers(r.Context(), gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load confirmations")
			return
		}
		set := make(map[uuid.UUID]bool, len(confirmed))
		for _, p := range confirmed {
			set[p.ID] = true
		}

		vote := models.MVPVote{GameID: gameID, VoterID: sess.PlayerID, CandidateID: req.CandidateID}
		if err := poll.ValidateMVPVote(vote, set); err != nil {
			writeError(w, s.Logger, err, "invalid mvp vote")
			return
		}
		vote, err = s.Store.CastMVPVote(r.Context(), sess, gameID, req.CandidateID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to cast mvp vote")
			return
		}
		writeJSON(w, http.StatusCreated, vote)
	}
}

func MVPResultsHandler(s *ClubServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := idParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := s.Store.GetGame(r.Context(), gameID); err != nil {
			writeError(w, s.Logger, err, "failed to load game")
			return
		}
		votes, err := s.Store.MVPVotes(r.Context(), gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load mvp votes")
			return
		}
		confirmed, err := s.Store.ConfirmedPlayers(r.Context(), gameID)
		if err != nil {
			writeError(w, s.Logger, err, "failed to load confirmations")
			return
		}
		names := make(map[uuid.UUID]string, len(confirmed))
		for _, p := range confirmed {
			names[p.ID] = p.Name
		}
		writeJSON(w, http.StatusOK, poll.TallyMVP(gameID, votes, names))
	}
}
