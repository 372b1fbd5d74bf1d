package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"cuesplit/pkg/batch"
	"cuesplit/pkg/config"
	"cuesplit/pkg/converter"
	"cuesplit/pkg/cue"
	"cuesplit/pkg/database"
	"cuesplit/pkg/scheduler"
	"cuesplit/pkg/sox"
	"cuesplit/pkg/util"
)

// newWatchCommand runs the daemon mode: watch a directory for incoming
// album folders and split each one once its files settle.
func newWatchCommand() *cobra.Command {
	var (
		debug bool
		t2s   bool
	)

	watchCmd := &cobra.Command{
		Use:           "watch",
		Short:         "Watch a directory and split new album folders as they arrive",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(debug)
			logger.Println("Starting cuesplit watch daemon...")

			cfg, err := config.Load(logger)
			if err != nil {
				return err
			}

			var conv converter.TextConverter
			if t2s {
				if conv, err = converter.NewOpenCCConverter(logger); err != nil {
					return err
				}
			}

			ledger, err := database.NewSQLiteLedger(cfg.DBPath, logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			parser := cue.NewParser(conv, logger)
			tool := sox.New(cfg.SoxPath, logger)
			tool.Verbose = debug
			if !tool.Available() {
				return batch.ErrToolUnavailable
			}

			process := func(dir string) error {
				splitter, err := batch.New(dir, cfg.DestDir, cfg.Encoding, false, parser, tool, logger)
				if err != nil {
					return err
				}
				// Album folders may hold per-disc subdirectories.
				return splitter.Run(true)
			}

			sched := scheduler.New(cfg, ledger, process, logger)
			sched.InitialScan()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watcher.Add(cfg.WatchDir); err != nil {
				return err
			}
			logger.Printf("Monitoring %s for new album directories...", cfg.WatchDir)

			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					handleEvent(event, cfg.WatchDir, sched)
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Printf("ERROR: watcher error: %v", err)
				}
			}
		},
	}

	watchCmd.Flags().BoolVar(&debug, "debug", false, "Show debug messages while processing")
	watchCmd.Flags().BoolVar(&t2s, "t2s", false, "Convert Traditional Chinese sheet values to Simplified")

	return watchCmd
}

// handleEvent maps a filesystem event onto the top-level album directory
// it concerns, if any, and schedules a scan for it.
func handleEvent(event fsnotify.Event, watchRoot string, sched *scheduler.Scheduler) {
	if event.Op&fsnotify.Create == fsnotify.Create && filepath.Dir(event.Name) == watchRoot {
		if util.IsDirectory(event.Name) {
			sched.Trigger(event.Name)
			return
		}
	}

	candidate := event.Name
	if !util.IsDirectory(candidate) {
		candidate = filepath.Dir(candidate)
	}
	if filepath.Dir(candidate) == watchRoot {
		sched.Trigger(candidate)
	}
}
