// Package filter captures the user's filter intent and runs the filter round
// trip against the analysis service.
package filter

import (
	"fmt"
	"strings"

	"github.com/yildizm/NgramLens/internal/apperr"
)

// Mode selects whether results are restricted to n-grams common to a file subset
type Mode string

const (
	ModeAll    Mode = "all"
	ModeCommon Mode = "common"
)

// SortOption is the client-side name of a server sort key
type SortOption string

const (
	SortAsc  SortOption = "asc"
	SortDesc SortOption = "desc"
)

// The service only understands its own sort labels
var sortLabels = map[SortOption]string{
	SortAsc:  "빈도수 오름차순",
	SortDesc: "빈도수 내림차순",
}

// Label returns the wire label for the sort option
func (s SortOption) Label() string {
	if label, ok := sortLabels[s]; ok {
		return label
	}
	return sortLabels[SortAsc]
}

// ParseMode parses a mode name
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeAll, "":
		return ModeAll, nil
	case ModeCommon:
		return ModeCommon, nil
	default:
		return "", apperr.NewValidationError("mode", value, fmt.Sprintf("unknown mode %q (expected all or common)", value))
	}
}

// ParseSortOption parses asc/desc or one of the server labels
func ParseSortOption(value string) (SortOption, error) {
	value = strings.TrimSpace(value)
	switch SortOption(strings.ToLower(value)) {
	case SortAsc, "":
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	for option, label := range sortLabels {
		if value == label {
			return option, nil
		}
	}
	return "", apperr.NewValidationError("sort", value, fmt.Sprintf("unknown sort option %q (expected asc or desc)", value))
}

// Intent is the filter request derived from the current control state. It is
// rebuilt before every round trip and never stored.
type Intent struct {
	Mode             Mode       `json:"mode"`
	SelectedFiles    []string   `json:"selected_files"`
	IncludeAllCommon bool       `json:"include_all_common"`
	Sort             SortOption `json:"sort"`
}

// IsDefault reports whether intent matches what an analyze response already
// reflects: all mode, ascending sort, include-all-common off
func (i Intent) IsDefault() bool {
	return (i.Mode == ModeAll || i.Mode == "") && (i.Sort == SortAsc || i.Sort == "") && !i.IncludeAllCommon
}

// Controls is the live filter control state: mode and sort pickers, the
// include-all-common toggle and the file checkbox panel.
type Controls struct {
	Mode             Mode
	Sort             SortOption
	IncludeAllCommon bool
	Files            *Selection
}

// NewControls returns controls in their initial state
func NewControls() *Controls {
	return &Controls{
		Mode:  ModeAll,
		Sort:  SortAsc,
		Files: NewSelection(nil),
	}
}

// Intent derives a fresh intent. Only common mode reads the checkbox panel;
// all mode transmits an empty selection.
func (c *Controls) Intent() Intent {
	intent := Intent{
		Mode:             c.Mode,
		SelectedFiles:    []string{},
		IncludeAllCommon: c.IncludeAllCommon,
		Sort:             c.Sort,
	}
	if intent.Mode == "" {
		intent.Mode = ModeAll
	}
	if intent.Sort == "" {
		intent.Sort = SortAsc
	}
	if intent.Mode == ModeCommon && c.Files != nil {
		intent.SelectedFiles = c.Files.Checked()
	}
	return intent
}

// Selection is the ordered file checkbox panel
type Selection struct {
	files   []string
	checked map[string]bool
}

// NewSelection derives a panel from filenames with every box checked
func NewSelection(filenames []string) *Selection {
	s := &Selection{
		files:   append([]string(nil), filenames...),
		checked: make(map[string]bool, len(filenames)),
	}
	for _, name := range filenames {
		s.checked[name] = true
	}
	return s
}

// Files returns the panel's files in order
func (s *Selection) Files() []string {
	return append([]string(nil), s.files...)
}

// IsChecked reports whether name is checked
func (s *Selection) IsChecked(name string) bool {
	return s.checked[name]
}

// Set checks or unchecks name; unknown names are ignored
func (s *Selection) Set(name string, checked bool) {
	if _, ok := s.checked[name]; ok {
		s.checked[name] = checked
	}
}

// Toggle flips name and returns its new state
func (s *Selection) Toggle(name string) bool {
	if _, ok := s.checked[name]; !ok {
		return false
	}
	s.checked[name] = !s.checked[name]
	return s.checked[name]
}

// Only checks exactly the given names
func (s *Selection) Only(names []string) {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}
	for _, name := range s.files {
		s.checked[name] = want[name]
	}
}

// Checked returns the checked files in panel order, never nil
func (s *Selection) Checked() []string {
	out := []string{}
	for _, name := range s.files {
		if s.checked[name] {
			out = append(out, name)
		}
	}
	return out
}
