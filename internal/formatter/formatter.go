package formatter

import "github.com/yildizm/NgramLens/internal/table"

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(view *table.View) ([]byte, error)
}
