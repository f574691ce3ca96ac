package repository

import (
	"encoding/json"
	"fmt"
	"infinite-buying/internal/model"
	"infinite-buying/pkg/logger"
	"os"
	"path/filepath"
)

// StateRepository persists the bot's TradingState as a single JSON record.
type StateRepository interface {
	Load() (*model.TradingState, error)
	Save(state *model.TradingState) error
}

type fileStateRepository struct {
	path string
	log  *logger.Logger
}

func NewFileStateRepository(path string, log *logger.Logger) StateRepository {
	return &fileStateRepository{
		path: path,
		log:  log,
	}
}

// Load reads the persisted state. A missing file means a fresh bot; an
// unreadable or corrupt file falls back to a fresh state rather than
// crashing, so a damaged record never blocks the scheduling loop.
func (r *fileStateRepository) Load() (*model.TradingState, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewTradingState(), nil
		}
		r.log.Warn("Failed to read state file, starting fresh",
			logger.StringField("path", r.path),
			logger.ErrorField(err),
		)
		return model.NewTradingState(), nil
	}

	var state model.TradingState
	if err := json.Unmarshal(data, &state); err != nil {
		r.log.Warn("State file is corrupt, starting fresh",
			logger.StringField("path", r.path),
			logger.ErrorField(err),
		)
		return model.NewTradingState(), nil
	}
	return &state, nil
}

// Save writes the state atomically: marshal to a temp file in the same
// directory, then rename over the old record.
func (r *fileStateRepository) Save(state *model.TradingState) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
