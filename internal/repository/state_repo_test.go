package repository

import (
	"infinite-buying/internal/model"
	"infinite-buying/pkg/logger"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStateRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "trading_state.json")
	repo := NewFileStateRepository(path, logger.NewNop())

	updated := time.Date(2026, 8, 14, 5, 55, 0, 0, time.UTC)
	saved := &model.TradingState{
		CycleNumber:     4,
		Turn:            12.5,
		InitialPrice:    52.3,
		TotalInvestment: 8400.75,
		IsFirstBuy:      false,
		LastUpdated:     &updated,
	}
	require.NoError(t, repo.Save(saved))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.CycleNumber, loaded.CycleNumber)
	assert.Equal(t, saved.Turn, loaded.Turn)
	assert.Equal(t, saved.InitialPrice, loaded.InitialPrice)
	assert.Equal(t, saved.TotalInvestment, loaded.TotalInvestment)
	assert.Equal(t, saved.IsFirstBuy, loaded.IsFirstBuy)
	require.NotNil(t, loaded.LastUpdated)
	assert.True(t, updated.Equal(*loaded.LastUpdated))
}

func TestFileStateRepositoryMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	repo := NewFileStateRepository(path, logger.NewNop())

	state, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, state.CycleNumber)
	assert.True(t, state.IsFirstBuy)
	assert.Zero(t, state.Turn)
	assert.Nil(t, state.LastUpdated)
}

func TestFileStateRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := NewFileStateRepository(path, logger.NewNop())

	state, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, state.CycleNumber)
	assert.True(t, state.IsFirstBuy)
}

func TestFileStateRepositorySaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	repo := NewFileStateRepository(path, logger.NewNop())

	first := model.NewTradingState()
	require.NoError(t, repo.Save(first))

	first.Turn = 7
	first.IsFirstBuy = false
	require.NoError(t, repo.Save(first))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, 7.0, loaded.Turn)
	assert.False(t, loaded.IsFirstBuy)

	// No leftover temp file from the atomic write.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
