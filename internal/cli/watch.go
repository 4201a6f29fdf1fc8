package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yildizm/NgramLens/internal/emoji"
)

var watchDebounce time.Duration

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file> <file> [file...]",
		Short: "Re-run the analysis whenever a document changes",
		Long: `Analyze the documents, print the result, and analyze again every time one
of them is written. The filter settings from the config file (mode, sort,
include-all-common) are re-applied after each analysis.

Uses file system notifications on the documents' directories, so editors
that replace files on save are followed. Press Ctrl+C to stop watching.

Examples:
  ngramlens watch draft.txt reference.txt
  ngramlens watch --output json --min-n 2 a.txt b.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runWatch,
	}

	addAnalysisFlags(cmd)
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "quiet period before re-analyzing")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}

	targets, err := watchTargets(args)
	if err != nil {
		return err
	}

	watcher, err := createWatcher(targets)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	sess, err := newSession(cfg, stderrIndicator{w: os.Stderr}, os.Stderr)
	if err != nil {
		return err
	}
	printNotices(sess.orch.Notices(), os.Stderr)

	analyzeOnce := func(ctx context.Context) {
		if err := analyzeAndFilter(ctx, sess, args); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", emoji.GetEmoji("error"), wrapUserError(err))
			return
		}
		if err := formatAndOutputResults(sess); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", emoji.GetEmoji("error"), err)
		}
	}

	fmt.Fprintf(os.Stderr, "%s Watching %d files, press Ctrl+C to stop...\n", emoji.GetEmoji("watch"), len(targets))
	return runWatchLoop(cmd.Context(), watcher, targets, analyzeOnce)
}

// watchTargets validates the documents and returns their cleaned absolute paths
func watchTargets(paths []string) (map[string]bool, error) {
	targets := make(map[string]bool, len(paths))
	for _, path := range paths {
		if err := validateFilePath(path); err != nil {
			return nil, fmt.Errorf("invalid file path: %w", err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		targets[filepath.Clean(abs)] = true
	}
	return targets, nil
}

// createWatcher watches the directory of every target
func createWatcher(targets map[string]bool) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dirs := make(map[string]bool)
	for target := range targets {
		dirs[filepath.Dir(target)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			cleanupWatcher(watcher)
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Watching directory: %s\n", dir)
		}
	}

	return watcher, nil
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// runWatchLoop runs analyze once, then again after every quiet period that
// followed a change to a target, until interrupted
func runWatchLoop(ctx context.Context, watcher *fsnotify.Watcher, targets map[string]bool, analyze func(context.Context)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	analyze(ctx)

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-signals:
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if isRelevantEvent(event, targets) {
				if isVerbose() {
					fmt.Fprintf(os.Stderr, "Change detected: %s\n", event)
				}
				debounce.Reset(watchDebounce)
			}

		case <-debounce.C:
			analyze(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			}
		}
	}
}

// isRelevantEvent reports whether event wrote or replaced one of the targets
func isRelevantEvent(event fsnotify.Event, targets map[string]bool) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return targets[filepath.Clean(abs)]
}
