package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yildizm/NgramLens/internal/apperr"
	"github.com/yildizm/NgramLens/internal/config"
	"github.com/yildizm/NgramLens/internal/filter"
	"github.com/yildizm/NgramLens/internal/formatter"
)

// fakeService answers the analysis endpoints and records what it received
type fakeService struct {
	mu       sync.Mutex
	calls    []string
	filter   map[string]string
	uploaded []string
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		f.record("analyze")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		for _, fh := range r.MultipartForm.File["files"] {
			f.uploaded = append(f.uploaded, fh.Filename)
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{
			"success":    true,
			"results":    []string{"的: a.txt: 5, b.txt: 3", "了: a.txt: 2"},
			"filenames":  []string{"a.txt", "b.txt"},
			"data_count": 2,
		})
	})
	mux.HandleFunc("/api/filter", func(w http.ResponseWriter, r *http.Request) {
		f.record("filter")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.filter = map[string]string{
			"mode":               r.FormValue("mode"),
			"selected_files":     r.FormValue("selected_files"),
			"include_all_common": r.FormValue("include_all_common"),
			"sort_option":        r.FormValue("sort_option"),
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{
			"success":    true,
			"results":    []string{"了: a.txt: 2"},
			"data_count": 1,
		})
	})
	mux.HandleFunc("/api/download", func(w http.ResponseWriter, r *http.Request) {
		f.record("download")
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("DOCX" + r.FormValue("format_type")))
	})
	return mux
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	dir     string
	cfgPath string
	docs    []string
	service *fakeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	service := &fakeService{}
	server := httptest.NewServer(service.handler())
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf(`service:
  endpoint: %q
  max_retries: 0
output:
  language: en
  directory: %q
  open_viewer: false
notice:
  timeout: 50ms
`, server.URL, dir)
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	var docs []string
	for _, name := range []string{"a.txt", "b.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("的的了 "+name), 0o600); err != nil {
			t.Fatal(err)
		}
		docs = append(docs, path)
	}

	return &testEnv{dir: dir, cfgPath: cfgPath, docs: docs, service: service}
}

// run executes the root command with the config file and returns the JSON
// written to the output file
func (e *testEnv) run(t *testing.T, args ...string) (*formatter.JSONOutput, error) {
	t.Helper()

	out := filepath.Join(e.dir, "out.json")
	_ = os.Remove(out)

	full := append([]string{"--config", e.cfgPath, "--output", "json", "--no-emoji"}, args...)
	full = append(full, "--no-tui", "--output-file", out)

	root := NewRootCommand("test", "none", "unknown")
	root.SetArgs(full)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	var result formatter.JSONOutput
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, data)
	}
	return &result, nil
}

func TestAnalyzeCommandJSONOutput(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.run(t, append([]string{"analyze"}, env.docs...)...)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	if got := env.service.Calls(); len(got) != 1 || got[0] != "analyze" {
		t.Errorf("calls = %v, want only analyze", got)
	}
	if strings.Join(env.service.uploaded, ",") != "a.txt,b.txt" {
		t.Errorf("uploaded = %v", env.service.uploaded)
	}

	if len(result.Ngrams) != 2 {
		t.Fatalf("ngrams = %d, want 2", len(result.Ngrams))
	}
	first := result.Ngrams[0]
	if first.Ngram != "的" || first.Frequencies["a.txt"] != 5 || first.Frequencies["b.txt"] != 3 {
		t.Errorf("first row = %+v", first)
	}
	if second := result.Ngrams[1]; second.Frequencies["b.txt"] != 0 {
		t.Errorf("missing file should be 0, got %+v", second)
	}
	if result.Summary.DataCount != 2 {
		t.Errorf("data_count = %d, want 2", result.Summary.DataCount)
	}
}

func TestAnalyzeCommandCommonModeFilters(t *testing.T) {
	env := newTestEnv(t)

	args := append([]string{"analyze", "--mode", "common", "--files", "a.txt", "--sort", "desc", "--include-all-common"}, env.docs...)
	result, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	if got := env.service.Calls(); strings.Join(got, ",") != "analyze,filter" {
		t.Fatalf("calls = %v, want analyze then filter", got)
	}

	want := map[string]string{
		"mode":               "common",
		"selected_files":     `["a.txt"]`,
		"include_all_common": "true",
		"sort_option":        filter.SortDesc.Label(),
	}
	for key, value := range want {
		if env.service.filter[key] != value {
			t.Errorf("filter %s = %q, want %q", key, env.service.filter[key], value)
		}
	}

	if len(result.Ngrams) != 1 || result.Ngrams[0].Ngram != "了" {
		t.Errorf("filtered output = %+v", result.Ngrams)
	}
	if len(result.Summary.Files) != 2 {
		t.Errorf("filenames should survive the filter, got %v", result.Summary.Files)
	}
}

func TestAnalyzeCommandRejectsUnknownSelection(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, append([]string{"analyze", "--mode", "common", "--files", "zzz.txt"}, env.docs...)...)
	if !apperr.IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if got := env.service.Calls(); len(got) != 1 {
		t.Errorf("calls = %v, filter must not run", got)
	}
}

func TestAnalyzeCommandRejectsIneffectiveFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{
			name:   "files outside common mode",
			args:   []string{"--files", "a.txt"},
			errMsg: "--files only applies in common mode",
		},
		{
			name:   "files with explicit all mode",
			args:   []string{"--mode", "all", "--files", "a.txt"},
			errMsg: "--files only applies in common mode",
		},
		{
			name:   "highlight format without highlight",
			args:   []string{"--highlight-format", "html"},
			errMsg: "--highlight-format needs --highlight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			args := append(append([]string{"analyze"}, tt.args...), env.docs...)
			_, err := env.run(t, args...)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Fatalf("error = %v, want %q", err, tt.errMsg)
			}
			if got := env.service.Calls(); len(got) != 0 {
				t.Errorf("service called: %v", got)
			}
		})
	}
}

func TestAnalyzeCommandNeedsTwoFiles(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "analyze", env.docs[0])
	if !apperr.IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if err.Error() != "Select at least two files." {
		t.Errorf("error should carry the localized message, got %q", err.Error())
	}
	if got := env.service.Calls(); len(got) != 0 {
		t.Errorf("service called: %v", got)
	}
}

func TestAnalyzeCommandDownload(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, append([]string{"analyze", "--download", "docx"}, env.docs...)...); err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(env.dir, "ngram_analysis.docx"))
	if err != nil {
		t.Fatalf("download not saved: %v", err)
	}
	if string(data) != "DOCXdocx" {
		t.Errorf("saved bytes = %q", data)
	}
}

func TestAnalyzeCommandRejectsUnknownDownloadFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, append([]string{"analyze", "--download", "pdf"}, env.docs...)...)
	if err == nil || !strings.Contains(err.Error(), "unsupported download format") {
		t.Fatalf("error = %v", err)
	}
	if got := env.service.Calls(); len(got) != 0 {
		t.Errorf("service called: %v", got)
	}
}

func TestServiceErrorIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"unsupported file type"}`))
	}))
	defer server.Close()

	env := newTestEnv(t)
	cfg := fmt.Sprintf("service:\n  endpoint: %q\n  max_retries: 0\n", server.URL)
	if err := os.WriteFile(env.cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := env.run(t, append([]string{"analyze"}, env.docs...)...)
	var svcErr *apperr.ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("error = %v, want service error 422", err)
	}
	if err.Error() != "unsupported file type" {
		t.Errorf("message = %q, want the server detail", err.Error())
	}
}

func TestShouldUseTUIMode(t *testing.T) {
	tests := []struct {
		name           string
		noTUI          bool
		outputFormat   string
		verbose        bool
		wordcloud      bool
		files          []string
		expectedResult bool
	}{
		{name: "should use TUI - all conditions met", outputFormat: "text", expectedResult: true},
		{name: "should not use TUI - no-tui flag set", noTUI: true, outputFormat: "text"},
		{name: "should not use TUI - json output", outputFormat: "json"},
		{name: "should not use TUI - verbose mode", outputFormat: "text", verbose: true},
		{name: "should not use TUI - side outputs", outputFormat: "text", wordcloud: true},
		{name: "should not use TUI - file selection", outputFormat: "text", files: []string{"a.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldNoTUI, oldVerbose, oldWordCloud := analyzeNoTUI, verbose, analyzeWordCloud
			oldOutputFile, oldDownload, oldHighlight := analyzeOutputFile, analyzeDownload, analyzeHighlight
			oldFiles := analyzeFiles
			defer func() {
				analyzeNoTUI, verbose, analyzeWordCloud = oldNoTUI, oldVerbose, oldWordCloud
				analyzeOutputFile, analyzeDownload, analyzeHighlight = oldOutputFile, oldDownload, oldHighlight
				analyzeFiles = oldFiles
			}()
			analyzeNoTUI, verbose, analyzeWordCloud = tt.noTUI, tt.verbose, tt.wordcloud
			analyzeOutputFile, analyzeDownload, analyzeHighlight = "", "", ""
			analyzeFiles = tt.files

			cfg := config.DefaultConfig()
			cfg.Output.DefaultFormat = tt.outputFormat

			if got := shouldUseTUIMode(cfg); got != tt.expectedResult {
				t.Errorf("shouldUseTUIMode() = %v, want %v", got, tt.expectedResult)
			}
		})
	}
}

func TestNeedsFilter(t *testing.T) {
	tests := []struct {
		name   string
		intent filter.Intent
		want   bool
	}{
		{"defaults", filter.Intent{Mode: filter.ModeAll, Sort: filter.SortAsc}, false},
		{"common mode", filter.Intent{Mode: filter.ModeCommon, Sort: filter.SortAsc}, true},
		{"descending", filter.Intent{Mode: filter.ModeAll, Sort: filter.SortDesc}, true},
		{"include all common", filter.Intent{Mode: filter.ModeAll, Sort: filter.SortAsc, IncludeAllCommon: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsFilter(tt.intent); got != tt.want {
				t.Errorf("needsFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetFormatter(t *testing.T) {
	for _, format := range []string{"json", "markdown", "md", "csv", "text", "terminal", ""} {
		if _, err := getFormatter(format, false); err != nil {
			t.Errorf("getFormatter(%q) error = %v", format, err)
		}
	}
	if _, err := getFormatter("xml", false); err == nil {
		t.Error("getFormatter(xml) should fail")
	}
}

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "문서.txt")
	if err := os.WriteFile(path, []byte("내용"), 0o600); err != nil {
		t.Fatal(err)
	}

	docs, err := readDocuments([]string{path})
	if err != nil {
		t.Fatalf("readDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "문서.txt" {
		t.Fatalf("docs = %+v", docs)
	}
	data, _ := io.ReadAll(docs[0].Content)
	if !bytes.Equal(data, []byte("내용")) {
		t.Errorf("content = %q", data)
	}

	if _, err := readDocuments([]string{dir}); err == nil {
		t.Error("directory should be rejected")
	}
	if _, err := readDocuments([]string{filepath.Join(dir, "missing.txt")}); err == nil {
		t.Error("missing file should be rejected")
	}
}

func TestHandleOutputDestinationWritesFile(t *testing.T) {
	old := analyzeOutputFile
	defer func() { analyzeOutputFile = old }()

	analyzeOutputFile = filepath.Join(t.TempDir(), "report.md")
	if err := handleOutputDestination([]byte("# report\n")); err != nil {
		t.Fatalf("handleOutputDestination() error = %v", err)
	}
	data, err := os.ReadFile(analyzeOutputFile)
	if err != nil || string(data) != "# report\n" {
		t.Errorf("file = %q, %v", data, err)
	}
}
