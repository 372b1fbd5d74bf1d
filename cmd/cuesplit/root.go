package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"cuesplit/pkg/batch"
	"cuesplit/pkg/converter"
	"cuesplit/pkg/cue"
	"cuesplit/pkg/sox"
)

func newRootCommand() *cobra.Command {
	var (
		recursive bool
		dest      string
		encoding  string
		dryRun    bool
		debug     bool
		t2s       bool
		soxPath   string
	)

	rootCmd := &cobra.Command{
		Use:           "cuesplit [flags] SOURCE",
		Short:         "Split Cue Sheet described CD images into per-track files via SoX",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(debug)

			var conv converter.TextConverter
			if t2s {
				var err error
				if conv, err = converter.NewOpenCCConverter(logger); err != nil {
					return err
				}
			}

			parser := cue.NewParser(conv, logger)
			tool := sox.New(soxPath, logger)
			tool.Verbose = debug

			splitter, err := batch.New(args[0], dest, encoding, dryRun, parser, tool, logger)
			if err != nil {
				return err
			}
			return splitter.Run(recursive)
		},
	}

	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Search for .cue files in subdirectories of SOURCE")
	rootCmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination path for output audio files")
	rootCmd.Flags().StringVarP(&encoding, "encoding", "e", "", "Cue Sheet file(s) encoding (e.g. cp1251, gbk)")
	rootCmd.Flags().BoolVar(&dryRun, "dry", false, "Perform a dry run with no changes done to the filesystem")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Show debug messages while processing")
	rootCmd.Flags().BoolVar(&t2s, "t2s", false, "Convert Traditional Chinese sheet values to Simplified")
	rootCmd.Flags().StringVar(&soxPath, "sox-path", sox.DefaultCommand, "Path to the sox binary")

	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

func newLogger(debug bool) *log.Logger {
	flags := log.LstdFlags
	if debug {
		flags |= log.Lshortfile
	}
	return log.New(os.Stdout, "[cuesplit] ", flags)
}
