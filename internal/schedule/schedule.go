// Package schedule turns the start times admins type when creating games
// ("saturday 9am", "tomorrow at 7pm", or RFC 3339) into absolute instants in
// the club's timezone.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	// ErrUnrecognized is returned when the input is neither RFC 3339 nor a phrase the parser understands.
	ErrUnrecognized = errors.New("unrecognized start time")
	// ErrInPast is returned when the parsed start time is not in the future.
	ErrInPast = errors.New("start time must be in the future")
)

var compactTime = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)

// Parser parses start times relative to a clock in a fixed location.
type Parser struct {
	loc *time.Location
	w   *when.Parser
	now func() time.Time
}

// NewParser returns a Parser for loc using the wall clock.
func NewParser(loc *time.Location) *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{loc: loc, w: w, now: time.Now}
}

// WithClock returns a copy of p reading the current time from now.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	cp := *p
	cp.now = now
	return &cp
}

// Location is the timezone phrases are interpreted in.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// ParseStart parses input and checks that the result is in the future. The
// returned time is truncated to the minute and expressed in the club location.
func (p *Parser) ParseStart(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, ErrUnrecognized
	}
	now := p.now().In(p.loc)

	var parsed time.Time
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		parsed = t.In(p.loc)
	} else {
		normalized := strings.ToLower(input)
		normalized = strings.ReplaceAll(normalized, "today ", "today at ")
		normalized = compactTime.ReplaceAllString(normalized, "$1:$2 $3")

		r, err := p.w.Parse(normalized, now)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnrecognized, input, err)
		}
		if r == nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, input)
		}
		parsed = r.Time.In(p.loc)
	}

	parsed = parsed.Truncate(time.Minute)
	if !parsed.After(now.Truncate(time.Minute)) {
		return time.Time{}, fmt.Errorf("%w (parsed: %s, now: %s)", ErrInPast,
			parsed.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	return parsed, nil
}

// ReminderAt is when a reminder for a game starting at start should fire. The
// second result is false when that moment has already passed.
func ReminderAt(start time.Time, lead time.Duration, now time.Time) (time.Time, bool) {
	at := start.Add(-lead)
	if !at.After(now) {
		return time.Time{}, false
	}
	return at, true
}
