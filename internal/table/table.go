// Package table projects an AnalysisSet into a tabular view.
package table

import (
	"strconv"

	"github.com/yildizm/NgramLens/internal/locale"
	"github.com/yildizm/NgramLens/internal/record"
	"github.com/yildizm/NgramLens/internal/store"
)

// View is the rendered table. Render builds a new View every call.
type View struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`

	// Empty marks the explicit empty state; Rows is then nil
	Empty        bool   `json:"empty"`
	EmptyMessage string `json:"empty_message,omitempty"`

	Filenames []string `json:"filenames"`
	DataCount int      `json:"data_count"`
	// Defects counts pairs that degraded to zero while parsing
	Defects int `json:"defects,omitempty"`
}

// Render projects set into a View: one header per filename in order, one row
// per result line, cells looked up by filename with absent files as 0.
func Render(set store.AnalysisSet, catalog *locale.Catalog) View {
	if catalog == nil {
		catalog = locale.For(locale.DefaultLanguage)
	}

	headers := make([]string, 0, len(set.Filenames)+1)
	headers = append(headers, catalog.Get(locale.NgramHeader))
	headers = append(headers, set.Filenames...)

	view := View{
		Headers:   headers,
		Filenames: append([]string(nil), set.Filenames...),
		DataCount: set.DataCount,
	}

	if set.IsEmpty() {
		view.Empty = true
		view.EmptyMessage = catalog.Get(locale.NoValidData)
		return view
	}

	view.Rows = make([][]string, 0, len(set.Results))
	for _, rec := range record.ParseAll(set.Results) {
		view.Defects += len(rec.Defects)

		row := make([]string, 0, len(headers))
		row = append(row, rec.Ngram)
		for _, file := range set.Filenames {
			row = append(row, strconv.Itoa(record.Lookup(rec, file)))
		}
		view.Rows = append(view.Rows, row)
	}

	return view
}
