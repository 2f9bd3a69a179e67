// Package scoreboard applies score commands and fans updates out to live
// subscribers.
package scoreboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/volei/internal/models"
)

var (
	ErrUnknownSide    = errors.New("unknown side")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidDelta   = errors.New("delta must be +1 or -1")
	ErrTiedSet        = errors.New("cannot close a tied set without a winner")
)

type Side string

const (
	Home Side = "home"
	Away Side = "away"
)

type CommandType string

const (
	CommandPoint CommandType = "point"
	CommandSet   CommandType = "set"
	CommandReset CommandType = "reset"
)

// Command is one change requested by the scorekeeper.
type Command struct {
	Type  CommandType `json:"type"`
	Side  Side        `json:"side,omitempty"`
	Delta int         `json:"delta,omitempty"`
}

// Apply returns the state after cmd. Points never go below zero. Closing a
// set awards it to cmd.Side, or to the side ahead when no side is given, and
// clears the points.
func Apply(state models.Scoreboard, cmd Command, now time.Time) (models.Scoreboard, error) {
	next := state
	switch cmd.Type {
	case CommandPoint:
		if cmd.Delta != 1 && cmd.Delta != -1 {
			return state, ErrInvalidDelta
		}
		pts, err := points(&next, cmd.Side)
		if err != nil {
			return state, err
		}
		*pts = max(0, *pts+cmd.Delta)

	case CommandSet:
		winner := cmd.Side
		if winner == "" {
			switch {
			case next.Home > next.Away:
				winner = Home
			case next.Away > next.Home:
				winner = Away
			default:
				return state, ErrTiedSet
			}
		}
		switch winner {
		case Home:
			next.HomeSets++
		case Away:
			next.AwaySets++
		default:
			return state, fmt.Errorf("%w: %q", ErrUnknownSide, winner)
		}
		next.Home, next.Away = 0, 0

	case CommandReset:
		next = models.Scoreboard{GameID: state.GameID}

	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}

	next.UpdatedAt = now
	return next, nil
}

func points(b *models.Scoreboard, side Side) (*int, error) {
	switch side {
	case Home:
		return &b.Home, nil
	case Away:
		return &b.Away, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSide, side)
}
