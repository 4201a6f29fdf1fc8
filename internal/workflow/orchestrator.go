// Package workflow sequences the user-triggered operations through
// validate, acquire loading, call, apply or report, release.
package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/filter"
	"github.com/yildizm/NgramLens/internal/locale"
	"github.com/yildizm/NgramLens/internal/logger"
	"github.com/yildizm/NgramLens/internal/notify"
	"github.com/yildizm/NgramLens/internal/present"
	"github.com/yildizm/NgramLens/internal/store"
)

// Service is the remote analysis service
type Service interface {
	Analyze(ctx context.Context, req *client.AnalyzeRequest) (*client.AnalyzeResponse, error)
	Filter(ctx context.Context, req *client.FilterRequest) (*client.FilterResponse, error)
	WordCloud(ctx context.Context, lines []string) (*client.Blob, error)
	Download(ctx context.Context, lines []string, format string) (*client.Blob, error)
	ApplyHighlight(ctx context.Context, req *client.HighlightRequest) (string, error)
	DownloadHighlight(ctx context.Context, req *client.HighlightRequest) (*client.Blob, error)
}

// Presenter saves or shows opaque output
type Presenter interface {
	Save(name string, data []byte) (string, error)
	Present(name string, data []byte) (present.Result, error)
}

// LoadingIndicator is shown while a workflow waits on the service
type LoadingIndicator interface {
	Start(kind Kind, message string)
	Stop(kind Kind)
}

type nopIndicator struct{}

func (nopIndicator) Start(Kind, string) {}
func (nopIndicator) Stop(Kind)          {}

// errSkip ends a workflow during validation without an error or a notice
var errSkip = errors.New("skip")

// Orchestrator runs the workflows against one store
type Orchestrator struct {
	service   Service
	store     *store.Store
	session   *filter.Session
	presenter Presenter
	notices   *notify.Center
	loading   LoadingIndicator
	catalog   *locale.Catalog
	log       *logger.Logger
	states    *tracker
	exclusive bool

	mu       sync.Mutex
	controls *filter.Controls
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPresenter sets where binary output goes
func WithPresenter(p Presenter) Option {
	return func(o *Orchestrator) { o.presenter = p }
}

// WithNotices sets the notification center
func WithNotices(c *notify.Center) Option {
	return func(o *Orchestrator) { o.notices = c }
}

// WithLoadingIndicator sets the loading indicator
func WithLoadingIndicator(l LoadingIndicator) Option {
	return func(o *Orchestrator) { o.loading = l }
}

// WithCatalog sets the message catalog
func WithCatalog(c *locale.Catalog) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithExclusive makes a dispatch fail with BusyError while the same
// workflow is still validating or loading
func WithExclusive(exclusive bool) Option {
	return func(o *Orchestrator) { o.exclusive = exclusive }
}

// New creates an orchestrator over st
func New(service Service, st *store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		service:  service,
		store:    st,
		loading:  nopIndicator{},
		log:      logger.Nop(),
		controls: filter.NewControls(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.catalog == nil {
		o.catalog = locale.For(locale.DefaultLanguage)
	}
	if o.notices == nil {
		o.notices = notify.NewCenter(notify.DefaultTimeout)
	}
	if o.presenter == nil {
		o.presenter = present.New("", false)
	}
	o.log = o.log.WithComponent("workflow")
	o.states = newTracker(o.exclusive)
	o.session = filter.NewSession(service, st, o.log)
	return o
}

// Store returns the session's result store
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Notices returns the notification center
func (o *Orchestrator) Notices() *notify.Center {
	return o.notices
}

// Catalog returns the message catalog
func (o *Orchestrator) Catalog() *locale.Catalog {
	return o.catalog
}

// State returns the state tag of kind
func (o *Orchestrator) State(kind Kind) State {
	return o.states.state(kind)
}

// Busy reports whether kind is validating or loading
func (o *Orchestrator) Busy(kind Kind) bool {
	return o.State(kind) != StateIdle
}

// Available reports whether the entry point for kind should be enabled.
// Analyze always is; everything else needs results.
func (o *Orchestrator) Available(kind Kind) bool {
	if o.exclusive && o.Busy(kind) {
		return false
	}
	switch kind {
	case KindAnalyze:
		return true
	case KindHighlight, KindHighlightExport:
		return len(o.store.Filenames()) > 0 && !o.store.IsEmpty()
	default:
		return !o.store.IsEmpty()
	}
}

// Controls returns a copy of the current filter controls
func (o *Orchestrator) Controls() filter.Controls {
	o.mu.Lock()
	defer o.mu.Unlock()
	c := *o.controls
	if o.controls.Files != nil {
		c.Files = filter.NewSelection(o.controls.Files.Files())
		c.Files.Only(o.controls.Files.Checked())
	}
	return c
}

// UpdateControls mutates the live filter controls under the lock
func (o *Orchestrator) UpdateControls(fn func(c *filter.Controls)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(o.controls)
}

// Intent derives a fresh filter intent from the live controls
func (o *Orchestrator) Intent() filter.Intent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.controls.Intent()
}

// run drives one invocation through the state machine. The loading
// indicator is released exactly once on every path out of call.
func (o *Orchestrator) run(ctx context.Context, kind Kind, message string, validate func() error, call func(ctx context.Context) error) error {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	// an accepted response is always applied, even if the caller went away
	ctx = client.WithRequestID(context.WithoutCancel(ctx), id.String())
	log := o.log.WithFields(logger.F("workflow", kind), logger.RequestID(id.String()))

	if err := o.states.enter(kind); err != nil {
		log.Debug("rejected: already running")
		o.notices.Error(err)
		return err
	}

	if err := validate(); err != nil {
		o.states.abort(kind)
		if errors.Is(err, errSkip) {
			log.Debug("nothing to do")
			return nil
		}
		log.DebugWithFields("validation failed", []logger.Field{logger.Error(err)})
		o.notices.Error(err)
		return err
	}

	o.states.load(kind)
	release := o.acquire(kind, message)
	defer release()

	start := time.Now()
	if err := call(ctx); err != nil {
		log.WarnWithFields("workflow failed", []logger.Field{logger.Error(err), logger.Duration(time.Since(start))})
		o.notices.Error(err)
		return err
	}

	log.DebugWithFields("workflow succeeded", []logger.Field{logger.Duration(time.Since(start))})
	return nil
}

// acquire shows the loading indicator and returns its idempotent release
func (o *Orchestrator) acquire(kind Kind, message string) func() {
	o.loading.Start(kind, message)
	var once sync.Once
	return func() {
		once.Do(func() {
			o.loading.Stop(kind)
			o.states.settle(kind)
		})
	}
}

// Fallback maps each service operation to its localized error message, for
// client.Config.Fallback
func Fallback(catalog *locale.Catalog) func(op client.Operation) string {
	keys := map[client.Operation]string{
		client.OpAnalyze:           locale.AnalysisError,
		client.OpFilter:            locale.FilterError,
		client.OpWordCloud:         locale.WordcloudError,
		client.OpDownload:          locale.DownloadError,
		client.OpApplyHighlight:    locale.HighlightError,
		client.OpDownloadHighlight: locale.DownloadError,
	}
	return func(op client.Operation) string {
		if key, ok := keys[op]; ok {
			return catalog.Get(key)
		}
		return ""
	}
}
