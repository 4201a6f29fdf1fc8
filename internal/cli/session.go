package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yildizm/NgramLens/internal/apperr"
	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/config"
	"github.com/yildizm/NgramLens/internal/emoji"
	"github.com/yildizm/NgramLens/internal/filter"
	"github.com/yildizm/NgramLens/internal/locale"
	"github.com/yildizm/NgramLens/internal/logger"
	"github.com/yildizm/NgramLens/internal/notify"
	"github.com/yildizm/NgramLens/internal/present"
	"github.com/yildizm/NgramLens/internal/store"
	"github.com/yildizm/NgramLens/internal/workflow"
)

// session is everything one command invocation works with
type session struct {
	cfg     *config.Config
	catalog *locale.Catalog
	log     *logger.Logger
	orch    *workflow.Orchestrator
}

// loadConfig loads the configuration and applies the global flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flagChanged(cmd, "lang") {
		if !locale.Supported(language) {
			return nil, fmt.Errorf("unsupported language: %s (use %v)", language, locale.Languages())
		}
		cfg.Output.Language = language
	}
	if flagChanged(cmd, "output") {
		cfg.Output.DefaultFormat = outputFmt
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	verbose = cfg.Output.Verbose

	return cfg, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// useColor resolves the color mode against --no-color and NO_COLOR
func useColor(cfg *config.Config) bool {
	if noColor {
		return false
	}
	switch cfg.Output.ColorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return os.Getenv("NO_COLOR") == ""
	}
}

// newSession wires config, client, store, notices, presenter and the
// orchestrator for one command. indicator may be nil. Log lines go to logOut.
func newSession(cfg *config.Config, indicator workflow.LoadingIndicator, logOut io.Writer) (*session, error) {
	catalog := locale.For(cfg.Output.Language)
	log := logger.NewWithCallback("ngramlens", isVerbose).WithWriter(logOut)

	svc, err := client.New(&client.Config{
		BaseURL:    cfg.Service.Endpoint,
		Timeout:    cfg.Service.Timeout,
		MaxRetries: cfg.Service.MaxRetries,
		RetryDelay: cfg.Service.RetryDelay,
		UserAgent:  client.DefaultUserAgent,
		Fallback:   workflow.Fallback(catalog),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create service client: %w", err)
	}

	opts := []workflow.Option{
		workflow.WithCatalog(catalog),
		workflow.WithLogger(log),
		workflow.WithNotices(notify.NewCenter(cfg.Notice.Timeout)),
		workflow.WithPresenter(present.New(config.ExpandPath(cfg.Output.Directory), cfg.Output.OpenViewer, present.WithLogger(log))),
		workflow.WithExclusive(cfg.Workflow.Exclusive),
	}
	if indicator != nil {
		opts = append(opts, workflow.WithLoadingIndicator(indicator))
	}

	orch := workflow.New(svc, store.New(), opts...)
	if err := applyAnalysisDefaults(orch, cfg); err != nil {
		return nil, err
	}

	log.Debug("service endpoint: %s", svc.BaseURL())
	return &session{cfg: cfg, catalog: catalog, log: log, orch: orch}, nil
}

// applyAnalysisDefaults seeds the filter controls from the analysis section
func applyAnalysisDefaults(orch *workflow.Orchestrator, cfg *config.Config) error {
	mode, err := filter.ParseMode(cfg.Analysis.Mode)
	if err != nil {
		return err
	}
	sort, err := filter.ParseSortOption(cfg.Analysis.Sort)
	if err != nil {
		return err
	}
	orch.UpdateControls(func(c *filter.Controls) {
		c.Mode = mode
		c.Sort = sort
		c.IncludeAllCommon = cfg.Analysis.IncludeAllCommon
	})
	return nil
}

// printNotices mirrors the notification center onto w, one line per notice.
// Danger notices are skipped; their errors are returned to cobra instead.
func printNotices(center *notify.Center, w io.Writer) {
	center.Subscribe(func(n notify.Notice, visible bool) {
		if !visible || n.Level == notify.LevelDanger {
			return
		}
		fmt.Fprintf(w, "%s %s\n", emoji.ForLevel(string(n.Level)), n.Message)
	})
}

// userError prints the user-facing message of err and still unwraps to it
type userError struct {
	err error
}

func (e *userError) Error() string { return apperr.UserMessage(e.err) }
func (e *userError) Unwrap() error { return e.err }

func wrapUserError(err error) error {
	if err == nil {
		return nil
	}
	return &userError{err: err}
}

// stderrIndicator prints the loading message of each workflow in verbose mode
type stderrIndicator struct {
	w io.Writer
}

func (s stderrIndicator) Start(kind workflow.Kind, message string) {
	if isVerbose() {
		fmt.Fprintf(s.w, "%s %s\n", emoji.GetEmoji("loading"), message)
	}
}

func (s stderrIndicator) Stop(workflow.Kind) {}
