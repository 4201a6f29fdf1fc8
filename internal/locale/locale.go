// Package locale provides the user-facing message catalogs.
package locale

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when a requested language has no catalog
const DefaultLanguage = "ko"

// Message keys
const (
	NeedTwo             = "need_two"
	NgramRangeError     = "ngram_range_error"
	AnalysisError       = "analysis_error"
	FilterError         = "filter_error"
	WordcloudError      = "wordcloud_error"
	DownloadError       = "download_error"
	HighlightError      = "highlight_error"
	SelectFile          = "select_file"
	NoValidData         = "no_valid_data"
	AnalyzeFirst        = "analyze_first"
	AnalysisComplete    = "analysis_complete"
	DataCount           = "data_count"
	Analyzing           = "analyzing"
	Processing          = "processing"
	GeneratingWordcloud = "generating_wordcloud"
	Downloading         = "downloading"
	ApplyingHighlight   = "applying_highlight"
	UnsupportedFormat   = "unsupported_format"
	SavedTo             = "saved_to"
	NgramHeader         = "ngram_header"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

var catalogs = mustLoadCatalogs()

// Catalog resolves message keys for one language
type Catalog struct {
	lang     string
	messages map[string]string
	fallback map[string]string
}

// For returns the catalog for lang, falling back to DefaultLanguage
func For(lang string) *Catalog {
	lang = strings.ToLower(strings.TrimSpace(lang))
	messages, ok := catalogs[lang]
	if !ok {
		lang = DefaultLanguage
		messages = catalogs[DefaultLanguage]
	}
	return &Catalog{lang: lang, messages: messages, fallback: catalogs[DefaultLanguage]}
}

// Language returns the resolved language code
func (c *Catalog) Language() string {
	return c.lang
}

// Get returns the message for key; unknown keys return the key itself
func (c *Catalog) Get(key string) string {
	if msg, ok := c.messages[key]; ok && msg != "" {
		return msg
	}
	if msg, ok := c.fallback[key]; ok && msg != "" {
		return msg
	}
	return key
}

// Format returns the message for key with {name} placeholders substituted
func (c *Catalog) Format(key string, args map[string]any) string {
	msg := c.Get(key)
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(value))
	}
	return msg
}

// Languages lists the available catalog languages
func Languages() []string {
	langs := make([]string, 0, len(catalogs))
	for lang := range catalogs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Supported reports whether lang has a catalog
func Supported(lang string) bool {
	_, ok := catalogs[strings.ToLower(lang)]
	return ok
}

func mustLoadCatalogs() map[string]map[string]string {
	loaded, err := loadCatalogs()
	if err != nil {
		panic(err)
	}
	return loaded
}

func loadCatalogs() (map[string]map[string]string, error) {
	entries, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogs: %w", err)
	}

	loaded := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		data, err := catalogFS.ReadFile(path.Join("catalogs", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", name, err)
		}

		var messages map[string]string
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", name, err)
		}
		loaded[strings.TrimSuffix(name, path.Ext(name))] = messages
	}

	if _, ok := loaded[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("missing default catalog %q", DefaultLanguage)
	}
	return loaded, nil
}
