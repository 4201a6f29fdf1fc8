package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/NgramLens/internal/notify"
	"github.com/yildizm/NgramLens/internal/store"
	"github.com/yildizm/NgramLens/internal/workflow"
)

// loadingMsg starts or stops the loading line of one workflow
type loadingMsg struct {
	kind    workflow.Kind
	message string
	active  bool
}

// noticeMsg mirrors the notification center
type noticeMsg struct {
	notice  notify.Notice
	visible bool
}

// resultsMsg reports a store replace
type resultsMsg struct {
	generation uint64
}

// workflowDoneMsg reports a finished workflow invocation
type workflowDoneMsg struct {
	kind workflow.Kind
	err  error
}

// Bridge forwards orchestrator callbacks into the running program. It is the
// orchestrator's loading indicator and a store and notice observer.
// Messages posted before Attach are dropped; the orchestrator keeps the state.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewBridge creates a detached bridge
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach starts forwarding to send, typically (*tea.Program).Send
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

// Detach stops forwarding
func (b *Bridge) Detach() {
	b.Attach(nil)
}

// Start implements workflow.LoadingIndicator
func (b *Bridge) Start(kind workflow.Kind, message string) {
	b.post(loadingMsg{kind: kind, message: message, active: true})
}

// Stop implements workflow.LoadingIndicator
func (b *Bridge) Stop(kind workflow.Kind) {
	b.post(loadingMsg{kind: kind})
}

// Notice is a notify.Center listener
func (b *Bridge) Notice(notice notify.Notice, visible bool) {
	b.post(noticeMsg{notice: notice, visible: visible})
}

// Results is a store observer
func (b *Bridge) Results(_ store.AnalysisSet, generation uint64) {
	b.post(resultsMsg{generation: generation})
}

func (b *Bridge) post(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}
