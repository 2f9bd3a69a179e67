package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParser(t *testing.T) (*Parser, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	// Wednesday morning
	now := time.Date(2025, time.March, 5, 10, 0, 0, 0, loc)
	return NewParser(loc).WithClock(func() time.Time { return now }), now
}

func TestParseStartRFC3339(t *testing.T) {
	p, _ := testParser(t)

	got, err := p.ParseStart("2025-03-08T12:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, time.March, 8, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "America/Sao_Paulo", got.Location().String())
	assert.Equal(t, 9, got.Hour())
}

func TestParseStartNaturalLanguage(t *testing.T) {
	p, now := testParser(t)

	got, err := p.ParseStart("tomorrow at 7pm")
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 1).Day(), got.Day())
	assert.Equal(t, 19, got.Hour())
	assert.Equal(t, 0, got.Minute())
	assert.True(t, got.After(now))
}

func TestParseStartRejects(t *testing.T) {
	p, _ := testParser(t)

	_, err := p.ParseStart("")
	assert.ErrorIs(t, err, ErrUnrecognized)

	_, err = p.ParseStart("whenever the net is up")
	assert.ErrorIs(t, err, ErrUnrecognized)

	_, err = p.ParseStart("2025-03-01T12:00:00Z")
	assert.ErrorIs(t, err, ErrInPast)
}

func TestReminderAt(t *testing.T) {
	now := time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)
	start := now.Add(5 * time.Hour)

	at, ok := ReminderAt(start, 3*time.Hour, now)
	require.True(t, ok)
	assert.Equal(t, now.Add(2*time.Hour), at)

	_, ok = ReminderAt(start, 6*time.Hour, now)
	assert.False(t, ok)
}
