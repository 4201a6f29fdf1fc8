package workflow

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yildizm/NgramLens/internal/apperr"
	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/filter"
	"github.com/yildizm/NgramLens/internal/locale"
	"github.com/yildizm/NgramLens/internal/notify"
	"github.com/yildizm/NgramLens/internal/present"
	"github.com/yildizm/NgramLens/internal/store"
)

type fakeService struct {
	calls atomic.Int32

	analyze   func(*client.AnalyzeRequest) (*client.AnalyzeResponse, error)
	filter    func(*client.FilterRequest) (*client.FilterResponse, error)
	blob      func() (*client.Blob, error)
	highlight func(*client.HighlightRequest) (string, error)

	mu         sync.Mutex
	requestIDs []string
	lastLines  []string
	lastFormat string
	lastHL     *client.HighlightRequest
}

func (f *fakeService) record(ctx context.Context) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requestIDs = append(f.requestIDs, client.RequestIDFrom(ctx))
	f.mu.Unlock()
}

func (f *fakeService) Analyze(ctx context.Context, req *client.AnalyzeRequest) (*client.AnalyzeResponse, error) {
	f.record(ctx)
	return f.analyze(req)
}

func (f *fakeService) Filter(ctx context.Context, req *client.FilterRequest) (*client.FilterResponse, error) {
	f.record(ctx)
	return f.filter(req)
}

func (f *fakeService) WordCloud(ctx context.Context, lines []string) (*client.Blob, error) {
	f.record(ctx)
	f.mu.Lock()
	f.lastLines = lines
	f.mu.Unlock()
	return f.blob()
}

func (f *fakeService) Download(ctx context.Context, lines []string, format string) (*client.Blob, error) {
	f.record(ctx)
	f.mu.Lock()
	f.lastLines = lines
	f.lastFormat = format
	f.mu.Unlock()
	return f.blob()
}

func (f *fakeService) ApplyHighlight(ctx context.Context, req *client.HighlightRequest) (string, error) {
	f.record(ctx)
	f.mu.Lock()
	f.lastHL = req
	f.mu.Unlock()
	return f.highlight(req)
}

func (f *fakeService) DownloadHighlight(ctx context.Context, req *client.HighlightRequest) (*client.Blob, error) {
	f.record(ctx)
	f.mu.Lock()
	f.lastHL = req
	f.mu.Unlock()
	return f.blob()
}

// countingIndicator records Start/Stop pairs per kind
type countingIndicator struct {
	mu     sync.Mutex
	starts map[Kind]int
	stops  map[Kind]int
}

func newCountingIndicator() *countingIndicator {
	return &countingIndicator{starts: map[Kind]int{}, stops: map[Kind]int{}}
}

func (c *countingIndicator) Start(kind Kind, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts[kind]++
}

func (c *countingIndicator) Stop(kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops[kind]++
}

func (c *countingIndicator) counts(kind Kind) (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts[kind], c.stops[kind]
}

type memPresenter struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (m *memPresenter) Save(name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = data
	return "out/" + name, nil
}

func (m *memPresenter) Present(name string, data []byte) (present.Result, error) {
	path, err := m.Save(name, data)
	return present.Result{Path: path}, err
}

func docs(names ...string) []client.Document {
	out := make([]client.Document, 0, len(names))
	for _, name := range names {
		out = append(out, client.Document{Name: name, Content: strings.NewReader("text")})
	}
	return out
}

func newTestOrchestrator(svc *fakeService, opts ...Option) (*Orchestrator, *countingIndicator, *memPresenter) {
	indicator := newCountingIndicator()
	presenter := &memPresenter{}
	base := []Option{
		WithLoadingIndicator(indicator),
		WithPresenter(presenter),
		WithCatalog(locale.For("en")),
		WithNotices(notify.NewCenter(time.Minute)),
	}
	return New(svc, store.New(), append(base, opts...)...), indicator, presenter
}

func seeded() store.AnalysisSet {
	return store.AnalysisSet{
		Results:   []string{"的: a.txt: 5, b.txt: 3", "了: a.txt: 2"},
		Filenames: []string{"a.txt", "b.txt"},
		DataCount: 2,
	}
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name string
		in   AnalyzeInput
	}{
		{name: "one file", in: AnalyzeInput{Files: docs("a.txt"), MinN: 1, MaxN: 3}},
		{name: "no files", in: AnalyzeInput{MinN: 1, MaxN: 3}},
		{name: "min below one", in: AnalyzeInput{Files: docs("a.txt", "b.txt"), MinN: 0, MaxN: 3}},
		{name: "max below min", in: AnalyzeInput{Files: docs("a.txt", "b.txt"), MinN: 3, MaxN: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			o, indicator, _ := newTestOrchestrator(svc)

			_, err := o.Analyze(context.Background(), tt.in)
			if !apperr.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if svc.calls.Load() != 0 {
				t.Errorf("network called %d times", svc.calls.Load())
			}
			if starts, _ := indicator.counts(KindAnalyze); starts != 0 {
				t.Errorf("loading entered on validation failure")
			}
			if o.State(KindAnalyze) != StateIdle {
				t.Errorf("State() = %s, want idle", o.State(KindAnalyze))
			}
			if n, ok := o.Notices().Current(); !ok || n.Level != notify.LevelDanger {
				t.Errorf("expected danger notice, got %+v", n)
			}
		})
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	svc := &fakeService{analyze: func(req *client.AnalyzeRequest) (*client.AnalyzeResponse, error) {
		if req.MinN != 1 || req.MaxN != 2 || len(req.Files) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		return &client.AnalyzeResponse{
			Success:   true,
			Results:   seeded().Results,
			Filenames: seeded().Filenames,
			DataCount: 2,
		}, nil
	}}
	o, indicator, _ := newTestOrchestrator(svc)

	if o.Available(KindWordCloud) {
		t.Error("word cloud available before analysis")
	}

	set, err := o.Analyze(context.Background(), AnalyzeInput{Files: docs("a.txt", "b.txt"), MinN: 1, MaxN: 2})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !reflect.DeepEqual(set, seeded()) || !reflect.DeepEqual(o.Store().Current(), seeded()) {
		t.Errorf("store = %+v", o.Store().Current())
	}

	controls := o.Controls()
	if got := controls.Files.Checked(); !reflect.DeepEqual(got, []string{"a.txt", "b.txt"}) {
		t.Errorf("checkbox panel = %v", got)
	}
	for _, kind := range []Kind{KindFilter, KindWordCloud, KindDownload, KindHighlight} {
		if !o.Available(kind) {
			t.Errorf("%s not available after analysis", kind)
		}
	}
	if starts, stops := indicator.counts(KindAnalyze); starts != 1 || stops != 1 {
		t.Errorf("indicator starts/stops = %d/%d", starts, stops)
	}
	if n, _ := o.Notices().Current(); n.Message != "Analysis complete." {
		t.Errorf("notice = %+v", n)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.requestIDs) != 1 || svc.requestIDs[0] == "" {
		t.Errorf("request id not attached: %v", svc.requestIDs)
	}
}

func TestFilterNoopWhenEmpty(t *testing.T) {
	svc := &fakeService{}
	o, indicator, _ := newTestOrchestrator(svc)

	if err := o.Filter(context.Background()); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if svc.calls.Load() != 0 {
		t.Errorf("network called")
	}
	if o.Store().Generation() != 0 {
		t.Errorf("store changed")
	}
	if starts, _ := indicator.counts(KindFilter); starts != 0 {
		t.Errorf("loading shown for no-op")
	}
	if _, ok := o.Notices().Current(); ok {
		t.Errorf("no-op should not notify")
	}
}

func TestFilterUsesControls(t *testing.T) {
	var got *client.FilterRequest
	svc := &fakeService{filter: func(req *client.FilterRequest) (*client.FilterResponse, error) {
		got = req
		return &client.FilterResponse{Success: true, Results: []string{"的: a.txt: 5, b.txt: 3"}, DataCount: 1}, nil
	}}
	o, _, _ := newTestOrchestrator(svc)
	o.Store().Replace(seeded())
	o.UpdateControls(func(c *filter.Controls) {
		c.Files = filter.NewSelection(seeded().Filenames)
		c.Files.Set("b.txt", false)
		c.Mode = filter.ModeCommon
		c.Sort = filter.SortDesc
		c.IncludeAllCommon = true
	})

	if err := o.Filter(context.Background()); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if got.Mode != "common" || !reflect.DeepEqual(got.SelectedFiles, []string{"a.txt"}) || !got.IncludeAllCommon || got.SortOption != "빈도수 내림차순" {
		t.Errorf("request = %+v", got)
	}

	current := o.Store().Current()
	if len(current.Results) != 1 || current.DataCount != 1 || !reflect.DeepEqual(current.Filenames, seeded().Filenames) {
		t.Errorf("store = %+v", current)
	}
}

func TestConcurrentFiltersLastArrivalWins(t *testing.T) {
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	entered := make(chan string, 2)

	svc := &fakeService{filter: func(req *client.FilterRequest) (*client.FilterResponse, error) {
		entered <- req.Mode
		if req.Mode == "all" {
			<-releaseFirst
			return &client.FilterResponse{Results: []string{"first: a.txt: 1"}, DataCount: 1}, nil
		}
		<-releaseSecond
		return &client.FilterResponse{Results: []string{"second: a.txt: 2", "x: b.txt: 1"}, DataCount: 2}, nil
	}}
	o, indicator, _ := newTestOrchestrator(svc)
	o.Store().Replace(seeded())

	var wg sync.WaitGroup
	var firstDone sync.WaitGroup
	wg.Add(2)
	firstDone.Add(1)
	go func() {
		defer wg.Done()
		defer firstDone.Done()
		_ = o.FilterWith(context.Background(), filter.Intent{Mode: filter.ModeAll})
	}()
	<-entered
	go func() {
		defer wg.Done()
		_ = o.FilterWith(context.Background(), filter.Intent{Mode: filter.ModeCommon, SelectedFiles: []string{"a.txt"}})
	}()
	<-entered

	if o.State(KindFilter) != StateLoading {
		t.Errorf("State() = %s, want loading", o.State(KindFilter))
	}

	// the first request resolves first, the second resolves last
	close(releaseFirst)
	firstDone.Wait()
	close(releaseSecond)
	wg.Wait()

	want := store.AnalysisSet{
		Results:   []string{"second: a.txt: 2", "x: b.txt: 1"},
		Filenames: seeded().Filenames,
		DataCount: 2,
	}
	if got := o.Store().Current(); !reflect.DeepEqual(got, want) {
		t.Errorf("store = %+v, want %+v", got, want)
	}
	if starts, stops := indicator.counts(KindFilter); starts != 2 || stops != 2 {
		t.Errorf("indicator starts/stops = %d/%d, want 2/2", starts, stops)
	}
	if o.State(KindFilter) != StateIdle {
		t.Errorf("State() = %s after settle", o.State(KindFilter))
	}
}

func TestConcurrentFiltersReverseOrder(t *testing.T) {
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	entered := make(chan struct{}, 2)

	svc := &fakeService{filter: func(req *client.FilterRequest) (*client.FilterResponse, error) {
		entered <- struct{}{}
		if req.Mode == "all" {
			<-releaseFirst
			return &client.FilterResponse{Results: []string{"first: a.txt: 1"}, DataCount: 1}, nil
		}
		<-releaseSecond
		return &client.FilterResponse{Results: []string{"second: a.txt: 2"}, DataCount: 1}, nil
	}}
	o, _, _ := newTestOrchestrator(svc)
	o.Store().Replace(seeded())

	var wg sync.WaitGroup
	var secondDone sync.WaitGroup
	wg.Add(2)
	secondDone.Add(1)
	go func() {
		defer wg.Done()
		_ = o.FilterWith(context.Background(), filter.Intent{Mode: filter.ModeAll})
	}()
	<-entered
	go func() {
		defer wg.Done()
		defer secondDone.Done()
		_ = o.FilterWith(context.Background(), filter.Intent{Mode: filter.ModeCommon})
	}()
	<-entered

	// issued second, resolves first; the earlier request arrives last and wins
	close(releaseSecond)
	secondDone.Wait()
	close(releaseFirst)
	wg.Wait()

	if got := o.Store().Current().Results; !reflect.DeepEqual(got, []string{"first: a.txt: 1"}) {
		t.Errorf("results = %v, want the last arrival", got)
	}
}

func TestLoadingReleasedOnFailure(t *testing.T) {
	netErr := apperr.NewTransportError("x", "network down", errors.New("connection refused"))

	svc := &fakeService{
		analyze: func(*client.AnalyzeRequest) (*client.AnalyzeResponse, error) { return nil, netErr },
		filter:  func(*client.FilterRequest) (*client.FilterResponse, error) { return nil, netErr },
		blob:    func() (*client.Blob, error) { return nil, netErr },
		highlight: func(*client.HighlightRequest) (string, error) {
			panic("highlight exploded")
		},
	}
	o, indicator, _ := newTestOrchestrator(svc)

	ctx := context.Background()
	if _, err := o.Analyze(ctx, AnalyzeInput{Files: docs("a.txt", "b.txt"), MinN: 1, MaxN: 1}); !apperr.IsTransportError(err) {
		t.Errorf("Analyze() error = %v", err)
	}

	o.Store().Replace(seeded())
	if err := o.Filter(ctx); !apperr.IsTransportError(err) {
		t.Errorf("Filter() error = %v", err)
	}
	if _, err := o.WordCloud(ctx); !apperr.IsTransportError(err) {
		t.Errorf("WordCloud() error = %v", err)
	}
	if _, err := o.Download(ctx, "html"); !apperr.IsTransportError(err) {
		t.Errorf("Download() error = %v", err)
	}
	if _, err := o.ExportHighlight(ctx, "a.txt", "docx"); !apperr.IsTransportError(err) {
		t.Errorf("ExportHighlight() error = %v", err)
	}
	func() {
		defer func() { _ = recover() }()
		_, _ = o.Highlight(ctx, "a.txt")
	}()

	for _, kind := range Kinds() {
		starts, stops := indicator.counts(kind)
		if starts != 1 || stops != 1 {
			t.Errorf("%s: starts/stops = %d/%d, want 1/1", kind, starts, stops)
		}
		if o.State(kind) != StateIdle {
			t.Errorf("%s: state = %s, want idle", kind, o.State(kind))
		}
	}
	if !reflect.DeepEqual(o.Store().Current(), seeded()) {
		t.Error("failed workflows changed the store")
	}
}

func TestWordCloudRequiresResults(t *testing.T) {
	svc := &fakeService{}
	o, _, _ := newTestOrchestrator(svc)

	if _, err := o.WordCloud(context.Background()); !apperr.IsEmptyResultError(err) {
		t.Errorf("expected empty result error, got %v", err)
	}
	if _, err := o.Download(context.Background(), "html"); !apperr.IsEmptyResultError(err) {
		t.Errorf("expected empty result error, got %v", err)
	}
	if svc.calls.Load() != 0 {
		t.Error("network called")
	}
}

func TestWordCloudAndDownload(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G'}
	svc := &fakeService{blob: func() (*client.Blob, error) { return &client.Blob{Data: img}, nil }}
	o, _, presenter := newTestOrchestrator(svc)
	o.Store().Replace(seeded())

	result, err := o.WordCloud(context.Background())
	if err != nil {
		t.Fatalf("WordCloud() error = %v", err)
	}
	if result.Path != "out/wordcloud.png" || string(presenter.saved["wordcloud.png"]) != string(img) {
		t.Errorf("result = %+v", result)
	}
	if !reflect.DeepEqual(svc.lastLines, seeded().Results) {
		t.Errorf("lines sent = %v", svc.lastLines)
	}

	path, err := o.Download(context.Background(), "DOCX")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if path != "out/ngram_analysis.docx" || svc.lastFormat != "docx" {
		t.Errorf("path = %q, format = %q", path, svc.lastFormat)
	}

	if _, err := o.Download(context.Background(), "pdf"); !apperr.IsValidationError(err) {
		t.Errorf("expected validation error for pdf, got %v", err)
	}
}

func TestHighlight(t *testing.T) {
	svc := &fakeService{highlight: func(req *client.HighlightRequest) (string, error) {
		return "<html>" + strings.Join(req.Ngrams, ",") + "</html>", nil
	}}
	o, _, presenter := newTestOrchestrator(svc, WithCatalog(locale.For("zh")))

	if _, err := o.Highlight(context.Background(), "a.txt"); !apperr.IsEmptyResultError(err) {
		t.Errorf("expected empty result error before analysis, got %v", err)
	}

	o.Store().Replace(seeded())

	if _, err := o.Highlight(context.Background(), ""); !apperr.IsNoSelectionError(err) {
		t.Errorf("expected no selection error, got %v", err)
	}
	if _, err := o.Highlight(context.Background(), "c.txt"); !apperr.IsValidationError(err) {
		t.Errorf("expected validation error for unknown file, got %v", err)
	}
	if svc.calls.Load() != 0 {
		t.Fatalf("network called during failed validation")
	}

	result, err := o.Highlight(context.Background(), "a.txt")
	if err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if result.Path != "out/highlight_a.html" {
		t.Errorf("path = %q", result.Path)
	}
	if string(presenter.saved["highlight_a.html"]) != "<html>的,了</html>" {
		t.Errorf("saved = %q", presenter.saved["highlight_a.html"])
	}
	if svc.lastHL.Lang != "zh" || svc.lastHL.FileName != "a.txt" {
		t.Errorf("request = %+v", svc.lastHL)
	}
}

func TestHighlightUsesFilteredResults(t *testing.T) {
	svc := &fakeService{
		filter: func(*client.FilterRequest) (*client.FilterResponse, error) {
			return &client.FilterResponse{Results: []string{"了: a.txt: 2"}, DataCount: 1}, nil
		},
		highlight: func(*client.HighlightRequest) (string, error) { return "<html/>", nil },
	}
	o, _, _ := newTestOrchestrator(svc)
	o.Store().Replace(seeded())

	if err := o.Filter(context.Background()); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if _, err := o.Highlight(context.Background(), "b.txt"); err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if !reflect.DeepEqual(svc.lastHL.Ngrams, []string{"了"}) {
		t.Errorf("ngrams = %v, want only the filtered n-gram", svc.lastHL.Ngrams)
	}
}

func TestExclusiveRejectsReentry(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	svc := &fakeService{filter: func(*client.FilterRequest) (*client.FilterResponse, error) {
		close(entered)
		<-release
		return &client.FilterResponse{Results: []string{"x: a.txt: 1"}, DataCount: 1}, nil
	}}
	o, _, _ := newTestOrchestrator(svc, WithExclusive(true))
	o.Store().Replace(seeded())

	done := make(chan error)
	go func() { done <- o.Filter(context.Background()) }()
	<-entered

	if o.Available(KindFilter) {
		t.Error("filter should be unavailable while loading in exclusive mode")
	}
	if err := o.Filter(context.Background()); !apperr.IsBusyError(err) {
		t.Errorf("expected busy error, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first filter error = %v", err)
	}
	if svc.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", svc.calls.Load())
	}
}

func TestWorkflowIgnoresCallerCancellation(t *testing.T) {
	svc := &fakeService{filter: func(*client.FilterRequest) (*client.FilterResponse, error) {
		return &client.FilterResponse{Results: []string{"kept: a.txt: 1"}, DataCount: 1}, nil
	}}
	o, _, _ := newTestOrchestrator(svc)
	o.Store().Replace(seeded())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := o.Filter(ctx); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if got := o.Store().Current().Results; !reflect.DeepEqual(got, []string{"kept: a.txt: 1"}) {
		t.Errorf("response not applied: %v", got)
	}
}

func TestFallbackMessages(t *testing.T) {
	fallback := Fallback(locale.For("en"))
	if got := fallback(client.OpFilter); got != "An error occurred while filtering." {
		t.Errorf("fallback(filter) = %q", got)
	}
	if got := fallback(client.Operation("unknown")); got != "" {
		t.Errorf("fallback(unknown) = %q", got)
	}
}
