// Package sinks persists run outputs as write-once JSON files. The
// file layouts are a consumption contract: downstream jobs tail the
// signals directory.
package sinks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumenfin/CouncilGo/internal/council"
	"github.com/lumenfin/CouncilGo/internal/models"
)

// FileSignalSink writes one signal file per run, named
// <symbol>_<timestamp>.json with a lower-case symbol.
type FileSignalSink struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

func NewFileSignalSink(dir string, logger *zap.Logger) *FileSignalSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSignalSink{dir: dir, now: time.Now, logger: logger.Named("signal_sink")}
}

func (s *FileSignalSink) WriteSignal(sig models.Signal) (string, error) {
	name := fmt.Sprintf("%s_%s.json",
		strings.ToLower(sig.Symbol),
		s.now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)
	if err := writeOnceJSON(path, sig); err != nil {
		return "", fmt.Errorf("write signal %s: %w", sig.Symbol, err)
	}
	s.logger.Debug("signal file written", zap.String("path", path))
	return path, nil
}

// FileTrajectorySink writes one trajectory file per run, keyed by the
// run ID so replays of the same symbol never collide.
type FileTrajectorySink struct {
	dir    string
	logger *zap.Logger
}

func NewFileTrajectorySink(dir string, logger *zap.Logger) *FileTrajectorySink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileTrajectorySink{dir: dir, logger: logger.Named("trajectory_sink")}
}

func (s *FileTrajectorySink) WriteTrajectory(t *council.Trajectory) (string, error) {
	name := fmt.Sprintf("%s_%s.json", strings.ToLower(t.Symbol), t.RunID)
	path := filepath.Join(s.dir, name)
	if err := writeOnceJSON(path, t); err != nil {
		return "", fmt.Errorf("write trajectory %s: %w", t.RunID, err)
	}
	s.logger.Debug("trajectory file written", zap.String("path", path))
	return path, nil
}

// writeOnceJSON creates the file exclusively so a run can never
// overwrite an earlier emission.
func writeOnceJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
