// Package poll validates ballots and tallies polls and MVP votes.
package poll

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/models"
)

var (
	ErrClosed        = errors.New("poll is closed")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrSelfVote      = errors.New("players cannot vote for themselves")
	ErrNotConfirmed  = errors.New("player did not confirm attendance")
)

// ValidateBallot checks choices against p at time now and returns them
// deduplicated in ascending order.
func ValidateBallot(p models.Poll, choices []int, now time.Time) ([]int, error) {
	if p.ClosedAt(now) {
		return nil, ErrClosed
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("%w: no option selected", ErrInvalidChoice)
	}

	out := slices.Clone(choices)
	slices.Sort(out)
	out = slices.Compact(out)
	for _, c := range out {
		if c < 0 || c >= len(p.Options) {
			return nil, fmt.Errorf("%w: option %d does not exist", ErrInvalidChoice, c)
		}
	}
	if !p.Multiple && len(out) > 1 {
		return nil, fmt.Errorf("%w: poll accepts a single option", ErrInvalidChoice)
	}
	return out, nil
}

// OptionCount is the number of ballots that selected an option.
type OptionCount struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
	Votes  int    `json:"votes"`
}

type Result struct {
	PollID  uuid.UUID     `json:"poll_id"`
	Counts  []OptionCount `json:"counts"`
	Ballots int           `json:"ballots"`
	Winners []int         `json:"winners"`
}

// Tally counts ballots per option in option order. Winners holds every option
// sharing the top count and is empty when nobody voted. Out of range choices
// are ignored.
func Tally(p models.Poll, ballots []models.Ballot) Result {
	res := Result{
		PollID:  p.ID,
		Counts:  make([]OptionCount, len(p.Options)),
		Winners: []int{},
	}
	for i, o := range p.Options {
		res.Counts[i] = OptionCount{Index: i, Option: o}
	}

	for _, b := range ballots {
		res.Ballots++
		for _, c := range b.Choices {
			if c >= 0 && c < len(res.Counts) {
				res.Counts[c].Votes++
			}
		}
	}

	top := 0
	for _, c := range res.Counts {
		top = max(top, c.Votes)
	}
	if top == 0 {
		return res
	}
	for _, c := range res.Counts {
		if c.Votes == top {
			res.Winners = append(res.Winners, c.Index)
		}
	}
	return res
}

// ValidateMVPVote checks a vote against the set of confirmed players of the game.
func ValidateMVPVote(v models.MVPVote, confirmed map[uuid.UUID]bool) error {
	if v.VoterID == v.CandidateID {
		return ErrSelfVote
	}
	if !confirmed[v.VoterID] {
		return fmt.Errorf("%w: voter", ErrNotConfirmed)
	}
	if !confirmed[v.CandidateID] {
		return fmt.Errorf("%w: candidate", ErrNotConfirmed)
	}
	return nil
}

type CandidateCount struct {
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name,omitempty"`
	Votes    int       `json:"votes"`
}

type MVPResult struct {
	GameID uuid.UUID        `json:"game_id"`
	Counts []CandidateCount `json:"counts"`
	Votes  int              `json:"votes"`
	MVPs   []uuid.UUID      `json:"mvps"`
}

// TallyMVP counts votes per candidate, most voted first (ties by name). MVPs
// lists every candidate sharing the top count.
func TallyMVP(gameID uuid.UUID, votes []models.MVPVote, names map[uuid.UUID]string) MVPResult {
	res := MVPResult{GameID: gameID, Counts: []CandidateCount{}, MVPs: []uuid.UUID{}}

	counts := make(map[uuid.UUID]int)
	for _, v := range votes {
		counts[v.CandidateID]++
		res.Votes++
	}
	for id, n := range counts {
		res.Counts = append(res.Counts, CandidateCount{PlayerID: id, Name: names[id], Votes: n})
	}
	slices.SortFunc(res.Counts, func(a, b CandidateCount) int {
		if c := cmp.Compare(b.Votes, a.Votes); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID.String(), b.PlayerID.String())
	})

	for _, c := range res.Counts {
		if c.Votes != res.Counts[0].Votes {
			break
		}
		res.MVPs = append(res.MVPs, c.PlayerID)
	}
	return res
}
