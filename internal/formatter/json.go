package formatter

import (
	"encoding/json"

	"github.com/yildizm/NgramLens/internal/record"
	"github.com/yildizm/NgramLens/internal/table"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// JSONOutput is the document written by the JSON formatter
type JSONOutput struct {
	Summary *SummaryOutput `json:"summary"`
	Headers []string       `json:"headers"`
	Ngrams  []*NgramOutput `json:"ngrams"`
	Message string         `json:"message,omitempty"`
}

// SummaryOutput represents the summary section
type SummaryOutput struct {
	Files     []string `json:"files"`
	DataCount int      `json:"data_count"`
	Rows      int      `json:"rows"`
	Defects   int      `json:"defects,omitempty"`
}

// NgramOutput is one table row keyed by filename
type NgramOutput struct {
	Ngram       string         `json:"ngram"`
	Frequencies map[string]int `json:"frequencies"`
	Total       int            `json:"total"`
}

func (f *jsonFormatter) Format(view *table.View) ([]byte, error) {
	output := &JSONOutput{
		Summary: &SummaryOutput{
			Files:     nonNil(view.Filenames),
			DataCount: view.DataCount,
			Rows:      len(view.Rows),
			Defects:   view.Defects,
		},
		Headers: nonNil(view.Headers),
		Ngrams:  createNgramOutputs(view),
	}
	if view.Empty {
		output.Message = view.EmptyMessage
	}

	return json.MarshalIndent(output, "", "  ")
}

// createNgramOutputs re-reads the rendered cells so JSON matches the table exactly
func createNgramOutputs(view *table.View) []*NgramOutput {
	outputs := make([]*NgramOutput, 0, len(view.Rows))
	for _, row := range view.Rows {
		if len(row) == 0 {
			continue
		}
		rec := record.Record{Ngram: row[0], Frequencies: make(map[string]int, len(row)-1)}
		for i, file := range view.Filenames {
			if i+1 < len(row) {
				rec.Frequencies[file] = parseCell(row[i+1])
			}
		}
		outputs = append(outputs, &NgramOutput{
			Ngram:       rec.Ngram,
			Frequencies: rec.Frequencies,
			Total:       record.Total(rec),
		})
	}
	return outputs
}
