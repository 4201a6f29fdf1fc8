package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/yildizm/NgramLens/internal/table"
)

// csvFormatter formats the result table as CSV
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

// Format writes the header row followed by one record per n-gram. An empty
// view produces the header row only.
func (f *csvFormatter) Format(view *table.View) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	if err := writer.Write(view.Headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range view.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}
