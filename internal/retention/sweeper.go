// Package retention removes generated export and template files once they
// have outlived their retention period.
package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSweepInterval is the default interval between two sweeps
	DefaultSweepInterval = 1 * time.Hour

	// DefaultMaxAge is how long a generated file stays downloadable
	DefaultMaxAge = 24 * time.Hour
)

// Only files produced by the export service are swept.
var generatedPrefixes = []string{"produits_export_", "produits_modele_"}

// Sweeper periodically deletes expired files from the uploads directory.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	logger   *logrus.Entry
	now      func() time.Time

	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.Mutex
	running  bool
	stats    SweepStats
}

// SweepStats tracks cleanup statistics.
type SweepStats struct {
	FilesDeleted    int64     `json:"filesDeleted"`
	LastRunAt       time.Time `json:"lastRunAt,omitempty"`
	LastRunDuration string    `json:"lastRunDuration,omitempty"`
	LastError       string    `json:"lastError,omitempty"`
}

// NewSweeper creates a sweeper for dir. Zero durations take the defaults.
func NewSweeper(dir string, maxAge, interval time.Duration, logger *logrus.Logger) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger.WithField("component", "export-retention"),
		now:      time.Now,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the sweep loop. The first sweep runs immediately.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.run()
	s.logger.WithFields(logrus.Fields{
		"dir":      s.dir,
		"maxAge":   s.maxAge.String(),
		"interval": s.interval.String(),
	}).Info("Export retention sweeper started")
}

// Stop ends the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	<-s.doneChan
	s.logger.Info("Export retention sweeper stopped")
}

// Stats returns the current sweep statistics.
func (s *Sweeper) Stats() SweepStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Sweeper) run() {
	defer close(s.doneChan)

	s.sweepAndRecord()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepAndRecord()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Sweeper) sweepAndRecord() {
	start := time.Now()
	removed, err := s.Sweep(s.now())

	s.mu.Lock()
	s.stats.FilesDeleted += int64(len(removed))
	s.stats.LastRunAt = start
	s.stats.LastRunDuration = time.Since(start).String()
	s.stats.LastError = ""
	if err != nil {
		s.stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).Warn("Export retention sweep failed")
	}
}

// Sweep deletes generated files last modified more than maxAge before now
// and returns the ones it removed. A missing directory is not an error.
// Files that cannot be removed are skipped and reported in the error.
func (s *Sweeper) Sweep(now time.Time) ([]models.GeneratedFile, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	cutoff := now.Add(-s.maxAge)
	var (
		removed  []models.GeneratedFile
		failures []string
	)
	for _, entry := range entries {
		if entry.IsDir() || !isGenerated(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			failures = append(failures, entry.Name())
			continue
		}
		removed = append(removed, models.GeneratedFile{Name: entry.Name(), Path: path, ModTime: info.ModTime()})
		s.logger.WithFields(logrus.Fields{
			"file":    entry.Name(),
			"modTime": info.ModTime(),
		}).Debug("Expired export file removed")
	}

	if len(removed) > 0 {
		s.logger.WithField("count", len(removed)).Info("Expired export files removed")
	}
	if len(failures) > 0 {
		return removed, fmt.Errorf("failed to remove %d file(s): %s", len(failures), strings.Join(failures, ", "))
	}
	return removed, nil
}

func isGenerated(name string) bool {
	for _, prefix := range generatedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
