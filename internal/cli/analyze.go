package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yildizm/NgramLens/internal/apperr"
	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/config"
	"github.com/yildizm/NgramLens/internal/filter"
	"github.com/yildizm/NgramLens/internal/formatter"
	"github.com/yildizm/NgramLens/internal/locale"
	"github.com/yildizm/NgramLens/internal/table"
	"github.com/yildizm/NgramLens/internal/workflow"
)

var (
	analyzeMinN             int
	analyzeMaxN             int
	analyzeMode             string
	analyzeSort             string
	analyzeFiles            []string
	analyzeIncludeAllCommon bool
	analyzeWordCloud        bool
	analyzeDownload         string
	analyzeHighlight        string
	analyzeHighlightFormat  string
	analyzeNoTUI            bool
	analyzeOutputFile       string
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file> <file> [file...]",
		Short: "Compare n-gram frequencies across documents",
		Long: `Upload two or more documents to the analysis service and print how often
every n-gram occurs in each of them.

Filter flags re-query the service after the analysis: --mode common keeps only
n-grams shared by the files named with --files (all analyzed files by default).

Examples:
  ngramlens analyze a.txt b.txt
  ngramlens analyze --min-n 2 --max-n 3 --sort desc a.txt b.txt c.txt
  ngramlens analyze --mode common --files a.txt,b.txt a.txt b.txt c.txt
  ngramlens analyze --wordcloud --download docx a.txt b.txt
  ngramlens analyze --highlight a.txt --no-tui a.txt b.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	addAnalysisFlags(cmd)
	cmd.Flags().StringVar(&analyzeMode, "mode", "", "filter mode (all, common)")
	cmd.Flags().StringVar(&analyzeSort, "sort", "", "frequency sort order (asc, desc)")
	cmd.Flags().StringSliceVar(&analyzeFiles, "files", nil, "files whose common n-grams are kept in common mode")
	cmd.Flags().BoolVar(&analyzeIncludeAllCommon, "include-all-common", false, "include n-grams common to all files")
	cmd.Flags().BoolVar(&analyzeWordCloud, "wordcloud", false, "generate a word cloud image of the results")
	cmd.Flags().StringVar(&analyzeDownload, "download", "", "export the results (txt, html, docx, hwp)")
	cmd.Flags().StringVar(&analyzeHighlight, "highlight", "", "highlight the result n-grams inside this analyzed file")
	cmd.Flags().StringVar(&analyzeHighlightFormat, "highlight-format", "", "export the highlighted file instead of opening it (html, txt, docx, hwp)")
	cmd.Flags().BoolVar(&analyzeNoTUI, "no-tui", false, "disable terminal UI, output to stdout")
	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "save output to file instead of stdout")

	return cmd
}

// addAnalysisFlags registers the n-gram range flags shared by analyze, tui and watch
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&analyzeMinN, "min-n", 1, "minimum n-gram length")
	cmd.Flags().IntVar(&analyzeMaxN, "max-n", 3, "maximum n-gram length")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}

	if shouldUseTUIMode(cfg) {
		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Launching interactive terminal UI...\n")
		}
		return runInteractive(cfg, args)
	}

	sess, err := newSession(cfg, stderrIndicator{w: os.Stderr}, os.Stderr)
	if err != nil {
		return err
	}
	printNotices(sess.orch.Notices(), os.Stderr)

	ctx := cmd.Context()
	if err := analyzeAndFilter(ctx, sess, args); err != nil {
		return wrapUserError(err)
	}
	if err := runSideOutputs(ctx, sess); err != nil {
		return wrapUserError(err)
	}

	return formatAndOutputResults(sess)
}

// applyAnalyzeFlags folds explicitly set flags into the analysis config
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("min-n") {
		cfg.Analysis.MinN = analyzeMinN
	}
	if cmd.Flags().Changed("max-n") {
		cfg.Analysis.MaxN = analyzeMaxN
	}
	if flagChanged(cmd, "mode") {
		cfg.Analysis.Mode = analyzeMode
	}
	if flagChanged(cmd, "sort") {
		cfg.Analysis.Sort = analyzeSort
	}
	if flagChanged(cmd, "include-all-common") {
		cfg.Analysis.IncludeAllCommon = analyzeIncludeAllCommon
	}
	if flagChanged(cmd, "download") && !workflow.IsExportFormat(analyzeDownload) {
		return fmt.Errorf("unsupported download format: %s (use %v)", analyzeDownload, workflow.ExportFormats())
	}
	if flagChanged(cmd, "highlight-format") && !workflow.IsExportFormat(analyzeHighlightFormat) {
		return fmt.Errorf("unsupported highlight format: %s (use %v)", analyzeHighlightFormat, workflow.ExportFormats())
	}
	if flagChanged(cmd, "highlight-format") && analyzeHighlight == "" {
		return fmt.Errorf("--highlight-format needs --highlight <file>")
	}
	if flagChanged(cmd, "files") {
		mode, err := filter.ParseMode(cfg.Analysis.Mode)
		if err != nil {
			return err
		}
		if mode != filter.ModeCommon {
			return fmt.Errorf("--files only applies in common mode (use --mode common)")
		}
	}
	return nil
}

// shouldUseTUIMode reports whether analyze hands over to the interactive UI
func shouldUseTUIMode(cfg *config.Config) bool {
	return !analyzeNoTUI &&
		cfg.Output.DefaultFormat == "text" &&
		!isVerbose() &&
		analyzeOutputFile == "" &&
		len(analyzeFiles) == 0 &&
		!hasSideOutputs()
}

func hasSideOutputs() bool {
	return analyzeWordCloud || analyzeDownload != "" || analyzeHighlight != ""
}

// analyzeAndFilter runs the analysis and, when the filter controls differ
// from the service defaults, one filter round trip
func analyzeAndFilter(ctx context.Context, sess *session, paths []string) error {
	docs, err := readDocuments(paths)
	if err != nil {
		return err
	}

	set, err := sess.orch.Analyze(ctx, workflow.AnalyzeInput{
		Files: docs,
		MinN:  sess.cfg.Analysis.MinN,
		MaxN:  sess.cfg.Analysis.MaxN,
	})
	if err != nil {
		return err
	}
	sess.log.Info("analyzed %d files, %d n-grams", len(set.Filenames), set.DataCount)

	if len(analyzeFiles) > 0 {
		if err := selectFiles(sess, set.Filenames, analyzeFiles); err != nil {
			return err
		}
	}
	if !needsFilter(sess.orch.Intent()) {
		return nil
	}
	return sess.orch.Filter(ctx)
}

// selectFiles checks exactly names in the file panel
func selectFiles(sess *session, filenames, names []string) error {
	for _, name := range names {
		if !slices.Contains(filenames, name) {
			return apperr.NewValidationError("files", name, fmt.Sprintf("%s was not analyzed (analyzed: %v)", name, filenames))
		}
	}
	sess.orch.UpdateControls(func(c *filter.Controls) {
		c.Files.Only(names)
	})
	return nil
}

// needsFilter reports whether intent asks for anything the analyze response
// does not already reflect
func needsFilter(intent filter.Intent) bool {
	return !intent.IsDefault()
}

// runSideOutputs runs the word cloud, download and highlight workflows the
// flags asked for
func runSideOutputs(ctx context.Context, sess *session) error {
	if analyzeWordCloud {
		if _, err := sess.orch.WordCloud(ctx); err != nil {
			return err
		}
	}
	if analyzeDownload != "" {
		if _, err := sess.orch.Download(ctx, analyzeDownload); err != nil {
			return err
		}
	}
	if analyzeHighlight != "" {
		target := filepath.Base(analyzeHighlight)
		if analyzeHighlightFormat != "" {
			_, err := sess.orch.ExportHighlight(ctx, target, analyzeHighlightFormat)
			return err
		}
		result, err := sess.orch.Highlight(ctx, target)
		if err != nil {
			return err
		}
		if !result.Opened {
			sess.orch.Notices().Success(sess.catalog.Format(locale.SavedTo, map[string]any{"path": result.Path}))
		}
	}
	return nil
}

// readDocuments loads every path into memory so a document can be uploaded
// again on retry or re-analysis
func readDocuments(paths []string) ([]client.Document, error) {
	docs := make([]client.Document, 0, len(paths))
	for _, path := range paths {
		if err := validateFilePath(path); err != nil {
			return nil, fmt.Errorf("invalid file path: %w", err)
		}

		cleanPath := filepath.Clean(path)
		// #nosec G304 - path is validated above
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}

		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Read %s (%d bytes)\n", cleanPath, len(data))
		}
		docs = append(docs, client.Document{Name: filepath.Base(cleanPath), Content: bytes.NewReader(data)})
	}
	return docs, nil
}

// formatAndOutputResults renders the current result set and handles output
func formatAndOutputResults(sess *session) error {
	formatterInstance, err := getFormatter(sess.cfg.Output.DefaultFormat, useColor(sess.cfg))
	if err != nil {
		return fmt.Errorf("failed to get formatter: %w", err)
	}

	view := table.Render(sess.orch.Store().Current(), sess.catalog)
	output, err := formatterInstance.Format(&view)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	return handleOutputDestination(output)
}

// handleOutputDestination writes output to file or stdout
func handleOutputDestination(output []byte) error {
	if analyzeOutputFile != "" {
		if err := validateOutputFilePath(analyzeOutputFile); err != nil {
			return fmt.Errorf("invalid output file path: %w", err)
		}

		if err := writeOutputBytesToFile(output, analyzeOutputFile); err != nil {
			return fmt.Errorf("failed to write output to file: %w", err)
		}

		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Output saved to: %s\n", analyzeOutputFile)
		}
	} else {
		fmt.Print(string(output))
	}

	return nil
}

func validateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", cleanPath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}

	return nil
}

func validateOutputFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	return nil
}

// getFormatter returns the appropriate formatter for the given format
func getFormatter(format string, color bool) (formatter.Formatter, error) {
	switch format {
	case "json":
		return formatter.NewJSON(), nil
	case "markdown", "md":
		return formatter.NewMarkdown(), nil
	case "csv":
		return formatter.NewCSV(), nil
	case "text", "terminal", "":
		return formatter.NewTerminal(color, !isEmojiDisabled()), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)

	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}
