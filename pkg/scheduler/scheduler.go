package scheduler

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cuesplit/pkg/config"
	"cuesplit/pkg/database"
	"cuesplit/pkg/util"
)

// ProcessFunc runs the split pipeline over one album directory.
type ProcessFunc func(dir string) error

// Scheduler debounces filesystem events into directory scans, waits for
// files to stop changing and hands stable directories to the processor.
type Scheduler struct {
	cfg     *config.Config
	ledger  database.Ledger
	process ProcessFunc
	logger  *log.Logger

	scanMutex    sync.Mutex // one directory processed at a time
	pending      map[string]*time.Timer
	pendingMutex sync.Mutex
}

// New creates a Scheduler.
func New(cfg *config.Config, ledger database.Ledger, process ProcessFunc, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		ledger:  ledger,
		process: process,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// InitialScan schedules every unprocessed directory already present under
// the watch root.
func (s *Scheduler) InitialScan() {
	s.logger.Println("Performing initial scan for unprocessed directories...")
	entries, err := os.ReadDir(s.cfg.WatchDir)
	if err != nil {
		s.logger.Printf("ERROR: reading watch directory %s: %v", s.cfg.WatchDir, err)
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.cfg.WatchDir, entry.Name())
		processed, err := s.ledger.IsProcessed(dir)
		if err != nil {
			s.logger.Printf("ERROR: checking processed status for %s: %v", dir, err)
		}
		if processed {
			s.logger.Printf("  -> Directory %s already processed. Skipping.", dir)
			continue
		}
		s.logger.Printf("  -> Found unprocessed directory: %s. Scheduling scan.", dir)
		s.Trigger(dir)
	}
	s.logger.Println("Initial scan completed.")
}

// Trigger queues a directory for a delayed scan, resetting the delay if
// one is already pending.
func (s *Scheduler) Trigger(dirPath string) {
	s.pendingMutex.Lock()
	defer s.pendingMutex.Unlock()
	if timer, ok := s.pending[dirPath]; ok {
		timer.Stop()
	}
	timer := time.AfterFunc(s.cfg.StabilityCheckInterval, func() {
		s.run(dirPath)
		s.pendingMutex.Lock()
		delete(s.pending, dirPath)
		s.pendingMutex.Unlock()
	})
	s.pending[dirPath] = timer
	s.logger.Printf("Scheduled scan for %s in %v", dirPath, s.cfg.StabilityCheckInterval)
}

func (s *Scheduler) run(dir string) {
	s.scanMutex.Lock()
	defer s.scanMutex.Unlock()
	s.logger.Printf("-> Scanning directory: %s", dir)

	if !s.WaitForStability(dir) {
		s.logger.Printf("  -> Files in %s are still changing. Rescheduling scan.", dir)
		s.Trigger(dir)
		return
	}

	processed, err := s.ledger.IsProcessed(dir)
	if err != nil {
		s.logger.Printf("ERROR: checking processed status for %s: %v", dir, err)
	}
	if processed {
		s.logger.Printf("  -> Directory %s already processed. Skipping.", dir)
		return
	}

	if err := s.process(dir); err != nil {
		s.logger.Printf("ERROR: processing %s: %v", dir, err)
		return
	}
	if err := s.ledger.MarkProcessed(dir); err != nil {
		s.logger.Printf("ERROR: %v", err)
	}
}

type fileState struct {
	size    int64
	modTime time.Time
}

// WaitForStability blocks until no relevant file under dir changed for the
// configured quiet duration, or until the maximum wait elapses. It returns
// whether the directory settled in time.
func (s *Scheduler) WaitForStability(dir string) bool {
	s.logger.Printf("  -> Waiting for files in %s to stabilize for %v...", dir, s.cfg.StabilityQuietDuration)
	previous := make(map[string]fileState)
	quietSince := make(map[string]time.Time)
	start := time.Now()

	for time.Since(start) < s.cfg.StabilityMaxWait {
		now := time.Now()
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Printf("ERROR: reading directory %s for stability check: %v", dir, err)
			time.Sleep(s.cfg.StabilityCheckInterval)
			continue
		}

		current := make(map[string]fileState)
		allQuiet := true
		hasRelevant := false

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if !util.IsRelevantFile(path) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				s.logger.Printf("ERROR: file info for %s: %v", path, err)
				allQuiet = false
				hasRelevant = true
				break
			}
			hasRelevant = true
			state := fileState{size: info.Size(), modTime: info.ModTime()}
			current[path] = state

			prev, seen := previous[path]
			if !seen || prev != state {
				quietSince[path] = now
				allQuiet = false
				continue
			}
			since, ok := quietSince[path]
			if !ok {
				quietSince[path] = now
				allQuiet = false
			} else if now.Sub(since) < s.cfg.StabilityQuietDuration {
				allQuiet = false
			}
		}
		previous = current

		if !hasRelevant {
			s.logger.Printf("  -> No relevant files in %s require a stability check. Proceeding.", dir)
			return true
		}
		if allQuiet {
			s.logger.Printf("  -> All relevant files in %s are stable.", dir)
			return true
		}
		time.Sleep(s.cfg.StabilityCheckInterval)
	}

	s.logger.Printf("  -> Max stability wait exceeded for %s.", dir)
	return false
}
