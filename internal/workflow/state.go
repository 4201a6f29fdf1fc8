package workflow

import (
	"sync"

	"github.com/yildizm/NgramLens/internal/apperr"
)

// Kind names a user-triggered workflow
type Kind string

const (
	KindAnalyze         Kind = "analyze"
	KindFilter          Kind = "filter"
	KindWordCloud       Kind = "wordcloud"
	KindDownload        Kind = "download"
	KindHighlight       Kind = "highlight"
	KindHighlightExport Kind = "highlight_export"
)

// Kinds lists every workflow in display order
func Kinds() []Kind {
	return []Kind{KindAnalyze, KindFilter, KindWordCloud, KindDownload, KindHighlight, KindHighlightExport}
}

// State is the per-workflow state tag. Succeeded and Failed are transient
// edges back to Idle and are reported through the returned error instead.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateLoading    State = "loading"
)

// tracker counts invocations per state, so overlapping invocations of the
// same workflow in non-exclusive mode keep it Loading until the last settles.
type tracker struct {
	mu         sync.Mutex
	exclusive  bool
	validating map[Kind]int
	loading    map[Kind]int
}

func newTracker(exclusive bool) *tracker {
	return &tracker{
		exclusive:  exclusive,
		validating: make(map[Kind]int),
		loading:    make(map[Kind]int),
	}
}

func (t *tracker) state(kind Kind) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.loading[kind] > 0:
		return StateLoading
	case t.validating[kind] > 0:
		return StateValidating
	default:
		return StateIdle
	}
}

// enter moves one invocation Idle -> Validating
func (t *tracker) enter(kind Kind) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exclusive && (t.loading[kind] > 0 || t.validating[kind] > 0) {
		return apperr.NewBusyError(string(kind))
	}
	t.validating[kind]++
	return nil
}

// load moves one invocation Validating -> Loading
func (t *tracker) load(kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.validating[kind]--
	t.loading[kind]++
}

// abort moves one invocation Validating -> Idle
func (t *tracker) abort(kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.validating[kind]--
}

// settle moves one invocation Loading -> Idle
func (t *tracker) settle(kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading[kind]--
}
