package client

import (
	"io"
)

// Operation names one remote call of the analysis service
type Operation string

const (
	OpAnalyze           Operation = "analyze"
	OpFilter            Operation = "filter"
	OpWordCloud         Operation = "wordcloud"
	OpDownload          Operation = "download"
	OpApplyHighlight    Operation = "apply-highlight"
	OpDownloadHighlight Operation = "download-highlight"
)

// Path returns the endpoint path of op
func (op Operation) Path() string {
	return "/api/" + string(op)
}

// Document is one input file of an analyze call
type Document struct {
	Name    string
	Content io.Reader
}

// AnalyzeRequest is the analyze form
type AnalyzeRequest struct {
	MinN  int
	MaxN  int
	Files []Document
}

// AnalyzeResponse is the analyze JSON body
type AnalyzeResponse struct {
	Success   bool     `json:"success"`
	Results   []string `json:"results"`
	Filenames []string `json:"filenames"`
	DataCount int      `json:"data_count"`
}

// FilterRequest is the filter form. SelectedFiles is always sent, even when
// empty or when the mode ignores it.
type FilterRequest struct {
	Mode             string
	SelectedFiles    []string
	IncludeAllCommon bool
	SortOption       string
}

// FilterResponse is the filter JSON body; it carries no file list
type FilterResponse struct {
	Success   bool     `json:"success"`
	Results   []string `json:"results"`
	DataCount int      `json:"data_count"`
}

// HighlightRequest selects the document and n-grams to highlight
type HighlightRequest struct {
	FileName string
	Ngrams   []string
	Lang     string
	// Format is only used by DownloadHighlight
	Format string
}

// Blob is an opaque binary response. The client never interprets Data.
type Blob struct {
	ContentType string
	// Filename is taken from Content-Disposition when the server sets one
	Filename string
	Data     []byte
}

// errorResponse is the body of a non-success response
type errorResponse struct {
	Detail any `json:"detail"`
}
