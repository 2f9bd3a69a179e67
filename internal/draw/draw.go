// Package draw splits the players present at a game into teams.
//
// Two modes are supported: a uniformly random split and a skill-balanced
// snake draft. Teams are capped at a fixed size; players beyond the total
// capacity are collected into a single overflow team appended last.
package draw

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/jason-s-yu/volei/internal/models"
)

// Mode selects how players are distributed.
type Mode string

const (
	ModeRandom  Mode = "random"
	ModeBySkill Mode = "by_skill"
)

// MaxTeams bounds the number of main teams of a single draw.
const MaxTeams = 64

func (m Mode) normalize() Mode {
	if m == "by-skill" {
		return ModeBySkill
	}
	return m
}

// UnmarshalJSON accepts "by-skill" as a spelling of ModeBySkill.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = Mode(s).normalize()
	return nil
}

// Label is the mode as a metric label: one of the known modes or "unknown".
func (m Mode) Label() string {
	switch m = m.normalize(); m {
	case ModeRandom, ModeBySkill:
		return string(m)
	}
	return "unknown"
}

var (
	// ErrNoPlayers is returned, together with an empty team list, when the pool
	// is empty. It is a guidance condition, not a failure of the draw.
	ErrNoPlayers = errors.New("no players to draw")

	// ErrInvalidConfig wraps every configuration rejected before drawing.
	ErrInvalidConfig = errors.New("invalid draw configuration")
)

// OverflowName is the display name of the team holding players beyond capacity.
const OverflowName = "Extra"

// Config is the input of a single draw.
type Config struct {
	NumberOfTeams     int  `json:"number_of_teams"`
	MaxPlayersPerTeam int  `json:"max_players_per_team"`
	Mode              Mode `json:"mode"`
}

// Capacity is the number of players the main teams can hold.
func (c Config) Capacity() int {
	return c.NumberOfTeams * c.MaxPlayersPerTeam
}

func (c Config) Validate() error {
	if c.NumberOfTeams < 1 {
		return fmt.Errorf("%w: number_of_teams must be at least 1, got %d", ErrInvalidConfig, c.NumberOfTeams)
	}
	if c.NumberOfTeams > MaxTeams {
		return fmt.Errorf("%w: number_of_teams must be at most %d, got %d", ErrInvalidConfig, MaxTeams, c.NumberOfTeams)
	}
	if c.MaxPlayersPerTeam < 1 {
		return fmt.Errorf("%w: max_players_per_team must be at least 1, got %d", ErrInvalidConfig, c.MaxPlayersPerTeam)
	}
	if c.MaxPlayersPerTeam > math.MaxInt/c.NumberOfTeams {
		return fmt.Errorf("%w: max_players_per_team %d is too large", ErrInvalidConfig, c.MaxPlayersPerTeam)
	}
	switch c.Mode.normalize() {
	case ModeRandom, ModeBySkill:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// Team is one group of the draw result.
type Team struct {
	Index         int             `json:"index"`
	Name          string          `json:"name"`
	Players       []models.Player `json:"players"`
	AverageRating float64         `json:"average_rating"`
	Overflow      bool            `json:"overflow,omitempty"`
}

// Run partitions players according to cfg. The input slice is never modified.
// rng is only consulted in random mode and may be nil otherwise.
//
// The result holds cfg.NumberOfTeams main teams, plus one overflow team when
// len(players) exceeds cfg.Capacity(). An empty pool yields an empty, non-nil
// team list and ErrNoPlayers.
func Run(players []models.Player, cfg Config, rng *rand.Rand) ([]Team, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Mode = cfg.Mode.normalize()
	if len(players) == 0 {
		return []Team{}, ErrNoPlayers
	}

	ordered := slices.Clone(players)
	var lane func(i int) int
	switch cfg.Mode {
	case ModeRandom:
		if rng == nil {
			return nil, fmt.Errorf("%w: random mode needs a random source", ErrInvalidConfig)
		}
		rng.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
		lane = func(i int) int { return i % cfg.NumberOfTeams }
	case ModeBySkill:
		slices.SortStableFunc(ordered, func(a, b models.Player) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
		lane = func(i int) int { return snakeLane(i, cfg.NumberOfTeams) }
	}

	placed := min(len(ordered), cfg.Capacity())
	perTeam := min(cfg.MaxPlayersPerTeam, placed/cfg.NumberOfTeams+1)

	teams := make([]Team, cfg.NumberOfTeams, cfg.NumberOfTeams+1)
	for i := range teams {
		teams[i] = Team{
			Index:   i,
			Name:    fmt.Sprintf("Team %d", i+1),
			Players: make([]models.Player, 0, perTeam),
		}
	}

	for i, p := range ordered[:placed] {
		t := &teams[lane(i)]
		t.Players = append(t.Players, p)
	}
	if rest := ordered[placed:]; len(rest) > 0 {
		teams = append(teams, Team{
			Index:    cfg.NumberOfTeams,
			Name:     OverflowName,
			Players:  rest,
			Overflow: true,
		})
	}

	for i := range teams {
		teams[i].AverageRating = AverageRating(teams[i].Players)
	}
	return teams, nil
}

// snakeLane maps the i-th pick to a team going 0..n-1, then n-1..0, and so on.
func snakeLane(i, n int) int {
	pos := i % n
	if (i/n)%2 == 1 {
		return n - 1 - pos
	}
	return pos
}

// AverageRating is the arithmetic mean of the players' ratings, 0 for none.
func AverageRating(players []models.Player) float64 {
	if len(players) == 0 {
		return 0
	}
	var sum float64
	for _, p := range players {
		sum += p.Rating
	}
	return sum / float64(len(players))
}

// Spread is the largest difference between the average ratings of the main
// teams. The overflow team is ignored.
func Spread(teams []Team) float64 {
	var lo, hi float64
	first := true
	for _, t := range teams {
		if t.Overflow {
			continue
		}
		if first {
			lo, hi = t.AverageRating, t.AverageRating
			first = false
			continue
		}
		lo = min(lo, t.AverageRating)
		hi = max(hi, t.AverageRating)
	}
	return hi - lo
}
