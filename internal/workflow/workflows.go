package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/yildizm/NgramLens/internal/apperr"
	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/filter"
	"github.com/yildizm/NgramLens/internal/locale"
	"github.com/yildizm/NgramLens/internal/present"
	"github.com/yildizm/NgramLens/internal/record"
	"github.com/yildizm/NgramLens/internal/store"
)

// Export formats accepted by the service
const (
	FormatTxt  = "txt"
	FormatHTML = "html"
	FormatDocx = "docx"
	FormatHwp  = "hwp"
)

const (
	wordCloudName    = "wordcloud.png"
	downloadBaseName = "ngram_analysis"
)

// ExportFormats lists the recognized export formats
func ExportFormats() []string {
	return []string{FormatTxt, FormatHTML, FormatDocx, FormatHwp}
}

// IsExportFormat reports whether format is recognized
func IsExportFormat(format string) bool {
	return slices.Contains(ExportFormats(), format)
}

// AnalyzeInput is what the user picked for an analysis
type AnalyzeInput struct {
	Files []client.Document
	MinN  int
	MaxN  int
}

// Analyze uploads the documents and replaces the result set. On success the
// file checkbox panel is rebuilt from the new filenames, all checked.
func (o *Orchestrator) Analyze(ctx context.Context, in AnalyzeInput) (store.AnalysisSet, error) {
	var set store.AnalysisSet

	validate := func() error {
		if len(in.Files) < 2 {
			return apperr.NewValidationError("files", fmt.Sprint(len(in.Files)), o.catalog.Get(locale.NeedTwo))
		}
		if in.MinN < 1 || in.MaxN < in.MinN {
			return apperr.NewValidationError("ngram_range", fmt.Sprintf("%d-%d", in.MinN, in.MaxN), o.catalog.Get(locale.NgramRangeError))
		}
		return nil
	}

	err := o.run(ctx, KindAnalyze, o.catalog.Get(locale.Analyzing), validate, func(ctx context.Context) error {
		resp, err := o.service.Analyze(ctx, &client.AnalyzeRequest{MinN: in.MinN, MaxN: in.MaxN, Files: in.Files})
		if err != nil {
			return err
		}

		set = store.AnalysisSet{
			Results:   nonNil(resp.Results),
			Filenames: nonNil(resp.Filenames),
			DataCount: resp.DataCount,
		}
		o.store.Replace(set)

		o.UpdateControls(func(c *filter.Controls) {
			c.Files = filter.NewSelection(set.Filenames)
		})

		o.notices.Success(o.catalog.Get(locale.AnalysisComplete))
		return nil
	})
	return set, err
}

// Filter applies the current controls. With no results it does nothing.
func (o *Orchestrator) Filter(ctx context.Context) error {
	return o.FilterWith(ctx, o.Intent())
}

// FilterWith applies intent instead of the live controls
func (o *Orchestrator) FilterWith(ctx context.Context, intent filter.Intent) error {
	validate := func() error {
		if o.store.IsEmpty() {
			return errSkip
		}
		return nil
	}

	return o.run(ctx, KindFilter, o.catalog.Get(locale.Processing), validate, func(ctx context.Context) error {
		_, err := o.session.Run(ctx, intent)
		return err
	})
}

// WordCloud renders the current results server-side and presents the image
func (o *Orchestrator) WordCloud(ctx context.Context) (present.Result, error) {
	var result present.Result

	err := o.run(ctx, KindWordCloud, o.catalog.Get(locale.GeneratingWordcloud), o.requireResults(KindWordCloud), func(ctx context.Context) error {
		blob, err := o.service.WordCloud(ctx, o.store.Current().Results)
		if err != nil {
			return err
		}

		result, err = o.presenter.Present(wordCloudName, blob.Data)
		if err != nil {
			return err
		}
		o.notices.Success(o.catalog.Format(locale.SavedTo, map[string]any{"path": result.Path}))
		return nil
	})
	return result, err
}

// Download exports the current results in format and saves the file as
// ngram_analysis.<format>
func (o *Orchestrator) Download(ctx context.Context, format string) (string, error) {
	var path string
	format = strings.ToLower(strings.TrimSpace(format))

	validate := func() error {
		if err := o.requireResults(KindDownload)(); err != nil {
			return err
		}
		if !IsExportFormat(format) {
			return apperr.NewValidationError("format", format, o.catalog.Get(locale.UnsupportedFormat))
		}
		return nil
	}

	err := o.run(ctx, KindDownload, o.catalog.Get(locale.Downloading), validate, func(ctx context.Context) error {
		blob, err := o.service.Download(ctx, o.store.Current().Results, format)
		if err != nil {
			return err
		}

		path, err = o.presenter.Save(downloadBaseName+"."+format, blob.Data)
		if err != nil {
			return err
		}
		o.notices.Success(o.catalog.Format(locale.SavedTo, map[string]any{"path": path}))
		return nil
	})
	return path, err
}

// Highlight marks every n-gram currently displayed in target and presents
// the resulting HTML document
func (o *Orchestrator) Highlight(ctx context.Context, target string) (present.Result, error) {
	var result present.Result
	var ngrams []string

	validate := func() error {
		var err error
		ngrams, err = o.highlightNgrams(target)
		return err
	}

	err := o.run(ctx, KindHighlight, o.catalog.Get(locale.ApplyingHighlight), validate, func(ctx context.Context) error {
		html, err := o.service.ApplyHighlight(ctx, &client.HighlightRequest{
			FileName: target,
			Ngrams:   ngrams,
			Lang:     o.catalog.Language(),
		})
		if err != nil {
			return err
		}

		result, err = o.presenter.Present(highlightName(target, FormatHTML), []byte(html))
		return err
	})
	return result, err
}

// ExportHighlight exports the highlighted target document in format and
// saves it as highlight_<document>.<format>
func (o *Orchestrator) ExportHighlight(ctx context.Context, target, format string) (string, error) {
	var path string
	var ngrams []string
	format = strings.ToLower(strings.TrimSpace(format))

	validate := func() error {
		var err error
		if ngrams, err = o.highlightNgrams(target); err != nil {
			return err
		}
		if !IsExportFormat(format) {
			return apperr.NewValidationError("format", format, o.catalog.Get(locale.UnsupportedFormat))
		}
		return nil
	}

	err := o.run(ctx, KindHighlightExport, o.catalog.Get(locale.Downloading), validate, func(ctx context.Context) error {
		blob, err := o.service.DownloadHighlight(ctx, &client.HighlightRequest{
			FileName: target,
			Ngrams:   ngrams,
			Lang:     o.catalog.Language(),
			Format:   format,
		})
		if err != nil {
			return err
		}

		path, err = o.presenter.Save(highlightName(target, format), blob.Data)
		if err != nil {
			return err
		}
		o.notices.Success(o.catalog.Format(locale.SavedTo, map[string]any{"path": path}))
		return nil
	})
	return path, err
}

func (o *Orchestrator) requireResults(kind Kind) func() error {
	return func() error {
		if o.store.IsEmpty() {
			return apperr.NewEmptyResultError(string(kind), o.catalog.Get(locale.NoValidData))
		}
		return nil
	}
}

// highlightNgrams checks the highlight preconditions and returns the
// n-grams of every record currently held, i.e. after filtering
func (o *Orchestrator) highlightNgrams(target string) ([]string, error) {
	set := o.store.Current()
	if len(set.Filenames) == 0 {
		return nil, apperr.NewEmptyResultError(string(KindHighlight), o.catalog.Get(locale.AnalyzeFirst))
	}
	if target == "" {
		return nil, apperr.NewNoSelectionError(o.catalog.Get(locale.SelectFile))
	}
	if !slices.Contains(set.Filenames, target) {
		return nil, apperr.NewValidationError("file_name", target, o.catalog.Get(locale.SelectFile))
	}

	ngrams := record.Ngrams(set.Results)
	if len(ngrams) == 0 {
		return nil, apperr.NewEmptyResultError(string(KindHighlight), o.catalog.Get(locale.NoValidData))
	}
	return ngrams, nil
}

func highlightName(target, ext string) string {
	base := filepath.Base(target)
	return "highlight_" + strings.TrimSuffix(base, filepath.Ext(base)) + "." + ext
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
