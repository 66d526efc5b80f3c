package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/driveturbo/transcriber/internal/logging"
)

// Scheduler periodically sweeps the temp directory for files the per-request
// cleanup never got to delete (crashed runs, kill -9). The pipeline remains
// responsible for its own artifacts; this is only a backstop.
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	logger   *logging.Logger
	stopChan chan struct{}
}

// NewScheduler creates a sweeper for tempDir.
func NewScheduler(tempDir string, interval, maxAge time.Duration, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger.With("component", "cleanup"),
		stopChan: make(chan struct{}),
	}
}

// Start runs an initial sweep and then sweeps on every interval tick.
func (s *Scheduler) Start() {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	s.logger.Info("cleanup scheduler started", "interval", s.interval, "maxAge", s.maxAge)
}

// Stop terminates the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) sweep() {
	now := time.Now()
	var deleted int

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if now.Sub(info.ModTime()) > s.maxAge {
			if rmErr := os.Remove(path); rmErr != nil {
				s.logger.Warn("failed to delete stale temp file", "path", path, "error", rmErr)
			} else {
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("temp sweep failed", "error", err)
	}
	if deleted > 0 {
		s.logger.Info("removed stale temp files", "count", deleted)
	}
}

// EnsureTempDirExists creates the temp directory if it doesn't exist.
func EnsureTempDirExists(tempDir string) error {
	return os.MkdirAll(tempDir, 0755)
}
