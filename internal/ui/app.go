// Package ui is the interactive terminal front end over the workflow
// orchestrator.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/emoji"
	"github.com/yildizm/NgramLens/internal/filter"
	"github.com/yildizm/NgramLens/internal/locale"
	"github.com/yildizm/NgramLens/internal/notify"
	"github.com/yildizm/NgramLens/internal/table"
	"github.com/yildizm/NgramLens/internal/ui/components"
	"github.com/yildizm/NgramLens/internal/workflow"
)

// Options configures the interactive session
type Options struct {
	// Documents returns fresh readers for every analysis; nil disables analyze
	Documents       func() ([]client.Document, error)
	MinN            int
	MaxN            int
	ExportFormat    string
	HighlightFormat string
	Color           bool
	Theme           string
}

type focusArea int

const (
	focusFiles focusArea = iota
	focusResults
)

// Model is the bubbletea model of the interactive session. Every workflow
// runs inside a tea.Cmd; progress and notices arrive through the Bridge.
type Model struct {
	orch   *workflow.Orchestrator
	opts   Options
	keys   keyMap
	help   help.Model
	styles *Styles

	spinner spinner.Model
	files   *components.FileList
	results *components.ResultViewer

	// loading counts live invocations per kind; loadingText is the latest message
	loading     map[workflow.Kind]int
	loadingText map[workflow.Kind]string
	// inflight counts dispatched commands that have not reported back
	inflight map[workflow.Kind]int

	notice     notify.Notice
	showNotice bool

	focus    focusArea
	width    int
	height   int
	quitting bool
}

// NewModel creates the model and renders the current store
func NewModel(orch *workflow.Orchestrator, opts Options) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		orch:    orch,
		opts:    opts,
		keys:    newKeyMap(),
		help:    help.New(),
		styles:  GetStyles(),
		spinner: s,
		files:   components.NewFileList(emoji.GetEmoji("file")+" Files", 28, 16),
		results: components.NewResultViewer(emoji.GetEmoji("number")+" Results", 72, 16),
		loading:     make(map[workflow.Kind]int),
		loadingText: make(map[workflow.Kind]string),
		inflight:    make(map[workflow.Kind]int),
	}
	m.files.SetFocused(true)
	m.refresh()
	return m
}

// Init starts the spinner and the first analysis
func (m *Model) Init() tea.Cmd {
	if m.opts.Documents == nil {
		return m.spinner.Tick
	}
	return tea.Batch(m.spinner.Tick, m.analyze())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadingMsg:
		if msg.active {
			m.loading[msg.kind]++
			m.loadingText[msg.kind] = msg.message
		} else if m.loading[msg.kind] > 0 {
			m.loading[msg.kind]--
			if m.loading[msg.kind] == 0 {
				delete(m.loading, msg.kind)
				delete(m.loadingText, msg.kind)
			}
		}
		m.refresh()
		return m, nil
	case noticeMsg:
		m.notice = msg.notice
		m.showNotice = msg.visible
		return m, nil
	case resultsMsg:
		m.refresh()
		return m, nil
	case workflowDoneMsg:
		if m.inflight[msg.kind] > 0 {
			m.inflight[msg.kind]--
		}
		m.refresh()
		return m, nil
	}

	return m, nil
}

func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width

	bodyHeight := max(8, msg.Height-8)
	m.files.Width = max(24, msg.Width/4)
	m.files.Height = bodyHeight
	m.results.Width = max(30, msg.Width-m.files.Width-6)
	m.results.Height = bodyHeight
	m.results.SetView(m.results.View)
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Focus):
		m.switchFocus()
	case key.Matches(msg, m.keys.Up):
		if m.focus == focusFiles {
			m.files.MoveUp()
		} else {
			m.results.ScrollUp()
		}
	case key.Matches(msg, m.keys.Down):
		if m.focus == focusFiles {
			m.files.MoveDown()
		} else {
			m.results.ScrollDown()
		}
	case key.Matches(msg, m.keys.PageUp):
		m.results.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.results.PageDown()
	case key.Matches(msg, m.keys.Dismiss):
		return m, m.dismissNotice()
	case key.Matches(msg, m.keys.Toggle):
		item, ok := m.files.SelectedItem()
		if !ok {
			return m, nil
		}
		return m, m.changeControls(func(c *filter.Controls) {
			c.Files.Toggle(item.Name)
		})
	case key.Matches(msg, m.keys.Mode):
		return m, m.changeControls(func(c *filter.Controls) {
			if c.Mode == filter.ModeCommon {
				c.Mode = filter.ModeAll
			} else {
				c.Mode = filter.ModeCommon
			}
		})
	case key.Matches(msg, m.keys.Sort):
		return m, m.changeControls(func(c *filter.Controls) {
			if c.Sort == filter.SortDesc {
				c.Sort = filter.SortAsc
			} else {
				c.Sort = filter.SortDesc
			}
		})
	case key.Matches(msg, m.keys.Common):
		return m, m.changeControls(func(c *filter.Controls) {
			c.IncludeAllCommon = !c.IncludeAllCommon
		})
	case key.Matches(msg, m.keys.Analyze):
		return m, m.analyze()
	case key.Matches(msg, m.keys.WordCloud):
		return m, m.dispatch(workflow.KindWordCloud, func(ctx context.Context) error {
			_, err := m.orch.WordCloud(ctx)
			return err
		})
	case key.Matches(msg, m.keys.Download):
		format := m.opts.ExportFormat
		return m, m.dispatch(workflow.KindDownload, func(ctx context.Context) error {
			_, err := m.orch.Download(ctx, format)
			return err
		})
	case key.Matches(msg, m.keys.Highlight):
		target := m.highlightTarget()
		return m, m.dispatch(workflow.KindHighlight, func(ctx context.Context) error {
			result, err := m.orch.Highlight(ctx, target)
			if err == nil && !result.Opened {
				m.orch.Notices().Success(m.orch.Catalog().Format(locale.SavedTo, map[string]any{"path": result.Path}))
			}
			return err
		})
	case key.Matches(msg, m.keys.Export):
		target, format := m.highlightTarget(), m.opts.HighlightFormat
		return m, m.dispatch(workflow.KindHighlightExport, func(ctx context.Context) error {
			_, err := m.orch.ExportHighlight(ctx, target, format)
			return err
		})
	}

	return m, nil
}

func (m *Model) switchFocus() {
	if m.focus == focusFiles {
		m.focus = focusResults
	} else {
		m.focus = focusFiles
	}
	m.files.SetFocused(m.focus == focusFiles)
	m.results.SetFocused(m.focus == focusResults)
}

// changeControls applies fn to the live controls and filters with the
// intent as it stands right now, not as it stands when the command runs
func (m *Model) changeControls(fn func(c *filter.Controls)) tea.Cmd {
	if m.filtering() {
		return nil
	}
	m.orch.UpdateControls(fn)
	intent := m.orch.Intent()
	m.refresh()
	return m.dispatch(workflow.KindFilter, func(ctx context.Context) error {
		return m.orch.FilterWith(ctx, intent)
	})
}

func (m *Model) analyze() tea.Cmd {
	if m.opts.Documents == nil {
		return nil
	}
	documents, minN, maxN := m.opts.Documents, m.opts.MinN, m.opts.MaxN
	return m.dispatch(workflow.KindAnalyze, func(ctx context.Context) error {
		files, err := documents()
		if err != nil {
			m.orch.Notices().Error(err)
			return err
		}
		if _, err = m.orch.Analyze(ctx, workflow.AnalyzeInput{Files: files, MinN: minN, MaxN: maxN}); err != nil {
			return err
		}
		// settings that differ from the analyze defaults need a filter pass
		if intent := m.orch.Intent(); !intent.IsDefault() {
			return m.orch.FilterWith(ctx, intent)
		}
		return nil
	})
}

// highlightTarget is the file under the cursor, empty when there is none
func (m *Model) highlightTarget() string {
	item, ok := m.files.SelectedItem()
	if !ok {
		return ""
	}
	return item.Name
}

// dispatch runs a workflow off the event loop. Bridge posts block until the
// loop reads them, so orchestrator calls never happen inside Update.
// A kind that is still in flight is not dispatched again.
func (m *Model) dispatch(kind workflow.Kind, run func(ctx context.Context) error) tea.Cmd {
	if m.busy(kind) {
		return nil
	}
	m.inflight[kind]++
	m.refresh()
	return func() tea.Msg {
		return workflowDoneMsg{kind: kind, err: run(context.Background())}
	}
}

// busy is true from dispatch until the workflow reports back
func (m *Model) busy(kind workflow.Kind) bool {
	return m.inflight[kind] > 0 || m.orch.Busy(kind)
}

// filtering blocks control changes while a filter or analysis is in flight
func (m *Model) filtering() bool {
	return m.busy(workflow.KindFilter) || m.busy(workflow.KindAnalyze)
}

func (m *Model) dismissNotice() tea.Cmd {
	m.showNotice = false
	center := m.orch.Notices()
	return func() tea.Msg {
		center.Dismiss()
		return nil
	}
}

// refresh re-renders the store and re-derives key availability
func (m *Model) refresh() {
	controls := m.orch.Controls()

	var items []components.FileItem
	if controls.Files != nil {
		for _, name := range controls.Files.Files() {
			items = append(items, components.FileItem{Name: name, Checked: controls.Files.IsChecked(name)})
		}
	}
	m.files.SetItems(items)
	m.files.Inactive = controls.Mode != filter.ModeCommon

	m.results.SetView(table.Render(m.orch.Store().Current(), m.orch.Catalog()))

	m.keys.Analyze.SetEnabled(m.opts.Documents != nil && m.ready(workflow.KindAnalyze))
	m.keys.WordCloud.SetEnabled(m.ready(workflow.KindWordCloud))
	m.keys.Download.SetEnabled(m.ready(workflow.KindDownload))
	m.keys.Highlight.SetEnabled(m.ready(workflow.KindHighlight))
	m.keys.Export.SetEnabled(m.ready(workflow.KindHighlightExport))

	filtering := m.filtering()
	m.keys.Toggle.SetEnabled(len(items) > 0 && !filtering)
	m.keys.Mode.SetEnabled(!filtering)
	m.keys.Sort.SetEnabled(!filtering)
	m.keys.Common.SetEnabled(!filtering)
}

func (m *Model) ready(kind workflow.Kind) bool {
	return m.orch.Available(kind) && !m.busy(kind)
}

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.styles.Title.Render(emoji.GetEmoji("rocket") + " NgramLens"),
		m.renderStatus(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.files.Render(), " ", m.results.Render()),
	}
	if loading := m.renderLoading(); loading != "" {
		sections = append(sections, loading)
	}
	if m.showNotice {
		level := m.notice.Level
		sections = append(sections, m.styles.ForLevel(level).Render(emoji.ForLevel(string(level))+" "+m.notice.Message))
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderStatus() string {
	controls := m.orch.Controls()
	set := m.orch.Store().Current()

	common := "off"
	if controls.IncludeAllCommon {
		common = "on"
	}

	bar := components.NewStatusBar(m.width).
		Add("files", fmt.Sprint(len(set.Filenames)), "info").
		Add("n-grams", components.FormatCount(set.DataCount), countStatus(set.DataCount)).
		Add("range", fmt.Sprintf("%d-%d", m.opts.MinN, m.opts.MaxN), "info").
		Add("mode", string(controls.Mode), "info").
		Add("sort", string(controls.Sort), "info").
		Add("all common", common, "info")
	return bar.Render()
}

func countStatus(n int) string {
	if n == 0 {
		return "warning"
	}
	return "success"
}

func (m *Model) renderLoading() string {
	var lines []string
	for _, kind := range workflow.Kinds() {
		if m.loading[kind] > 0 {
			lines = append(lines, m.spinner.View()+" "+m.styles.Loading.Render(m.loadingText[kind]))
		}
	}
	return strings.Join(lines, "\n")
}

// Run starts the interactive session and blocks until the user quits
func Run(orch *workflow.Orchestrator, bridge *Bridge, opts Options) error {
	if !opts.Color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if opts.Theme != "" && !SetThemeByName(opts.Theme) {
		return fmt.Errorf("unknown theme: %s", opts.Theme)
	}

	orch.Notices().Subscribe(bridge.Notice)
	orch.Store().Subscribe(bridge.Results)

	p := tea.NewProgram(NewModel(orch, opts), tea.WithAltScreen())
	bridge.Attach(p.Send)
	defer bridge.Detach()

	_, err := p.Run()
	return err
}
