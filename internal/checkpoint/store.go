package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Store reads and writes the checkpoint file. The file is plain JSON so
// it can be inspected or edited by hand between runs.
type Store struct {
	Path   string
	Logger *slog.Logger
}

// Load reads the checkpoint from disk. A missing file yields an empty
// checkpoint; a corrupt or unreadable file is logged as a warning and
// also yields an empty checkpoint. Load never fails the caller.
func (s *Store) Load() *Checkpoint {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.Logger.Warn("checkpoint unreadable, starting fresh", "path", s.Path, "error", err)
		}
		return New()
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.Logger.Warn("checkpoint corrupted, starting fresh", "path", s.Path, "error", err)
		return New()
	}
	cp.normalize()
	return &cp
}

// Save writes the full checkpoint to disk, via a temp file and rename
// so a crash mid-write cannot corrupt the previously saved state.
func (s *Store) Save(cp *Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
