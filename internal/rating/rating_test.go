package rating

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAttributes(t *testing.T) {
	r, err := FromAttributes(models.Attributes{Serve: 7, Pass: 6, Attack: 8, Block: 5, Defense: 6, Setting: 4})
	require.NoError(t, err)
	assert.Equal(t, 6.0, r)

	r, err = FromAttributes(models.Attributes{Serve: 10, Pass: 9, Attack: 9, Block: 9, Defense: 9, Setting: 9})
	require.NoError(t, err)
	assert.Equal(t, 9.17, r)

	r, err = FromAttributes(models.Attributes{})
	require.NoError(t, err)
	assert.Zero(t, r)
}

func TestFromAttributesRejectsOutOfRange(t *testing.T) {
	_, err := FromAttributes(models.Attributes{Serve: 11})
	require.ErrorIs(t, err, ErrAttributeRange)
	assert.Contains(t, err.Error(), "serve=11")

	_, err = FromAttributes(models.Attributes{Setting: -1})
	require.ErrorIs(t, err, ErrAttributeRange)
	assert.Contains(t, err.Error(), "setting=-1")
}

func TestHistoryChart(t *testing.T) {
	player := uuid.New()
	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	history := []models.RatingChange{
		{PlayerID: player, OldRating: 5, NewRating: 5.5, ChangedAt: start},
		{PlayerID: player, OldRating: 5.5, NewRating: 6.17, ChangedAt: start.AddDate(0, 1, 0)},
		{PlayerID: player, OldRating: 6.17, NewRating: 6, ChangedAt: start.AddDate(0, 2, 0)},
	}

	img, err := HistoryChart(history)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestHistoryChartPlaceholder(t *testing.T) {
	img, err := HistoryChart(nil)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
}
