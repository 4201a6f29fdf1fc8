// Package client talks to the n-gram analysis service over its multipart
// form contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/yildizm/NgramLens/internal/apperr"
	"github.com/yildizm/NgramLens/internal/logger"
	"github.com/yildizm/NgramLens/internal/record"
)

// RequestIDHeader carries the workflow invocation id
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID attaches an invocation id to ctx; it is sent as X-Request-ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the invocation id attached to ctx
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Client is the analysis service client
type Client struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
	log     *logger.Logger
}

// New creates a client. A nil config uses DefaultConfig, a nil logger discards.
func New(config *Config, log *logger.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, apperr.NewValidationError("base_url", config.BaseURL, fmt.Sprintf("invalid base URL: %v", err))
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
		log:     log.WithComponent("client"),
	}, nil
}

// BaseURL returns the service base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Analyze uploads the documents and returns per-document frequencies
func (c *Client) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	if req == nil {
		return nil, apperr.NewValidationError("request", "nil", "analyze request is required")
	}

	form := newForm()
	form.field("min_n", strconv.Itoa(req.MinN))
	form.field("max_n", strconv.Itoa(req.MaxN))
	for _, doc := range req.Files {
		if err := form.file("files", doc.Name, doc.Content); err != nil {
			return nil, apperr.NewTransportError(string(OpAnalyze), "failed to read "+doc.Name, err)
		}
	}

	var resp AnalyzeResponse
	if err := c.postJSON(ctx, OpAnalyze, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Filter requests a filtered and sorted result list
func (c *Client) Filter(ctx context.Context, req *FilterRequest) (*FilterResponse, error) {
	if req == nil {
		return nil, apperr.NewValidationError("request", "nil", "filter request is required")
	}

	selected, err := record.EncodeNames(req.SelectedFiles)
	if err != nil {
		return nil, apperr.NewTransportError(string(OpFilter), "failed to encode selected files", err)
	}

	form := newForm()
	form.field("mode", req.Mode)
	form.field("selected_files", selected)
	form.field("include_all_common", strconv.FormatBool(req.IncludeAllCommon))
	form.field("sort_option", req.SortOption)

	var resp FilterResponse
	if err := c.postJSON(ctx, OpFilter, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WordCloud renders the given result lines into an image
func (c *Client) WordCloud(ctx context.Context, lines []string) (*Blob, error) {
	payload, err := record.EncodeLines(lines)
	if err != nil {
		return nil, apperr.NewTransportError(string(OpWordCloud), "failed to encode results", err)
	}

	form := newForm()
	form.field("ngrams_data", payload)
	return c.postBlob(ctx, OpWordCloud, form)
}

// Download exports the given result lines in format
func (c *Client) Download(ctx context.Context, lines []string, format string) (*Blob, error) {
	payload, err := record.EncodeLines(lines)
	if err != nil {
		return nil, apperr.NewTransportError(string(OpDownload), "failed to encode results", err)
	}

	form := newForm()
	form.field("results_data", payload)
	form.field("format_type", format)
	return c.postBlob(ctx, OpDownload, form)
}

// ApplyHighlight returns the HTML document with the n-grams highlighted
func (c *Client) ApplyHighlight(ctx context.Context, req *HighlightRequest) (string, error) {
	if req == nil {
		return "", apperr.NewValidationError("request", "nil", "highlight request is required")
	}

	selected, err := record.EncodeNames(req.Ngrams)
	if err != nil {
		return "", apperr.NewTransportError(string(OpApplyHighlight), "failed to encode n-grams", err)
	}

	form := newForm()
	form.field("file_name", req.FileName)
	form.field("selected_ngrams", selected)
	form.field("lang", req.Lang)

	blob, err := c.postBlob(ctx, OpApplyHighlight, form)
	if err != nil {
		return "", err
	}
	return string(blob.Data), nil
}

// DownloadHighlight exports the highlighted document in req.Format
func (c *Client) DownloadHighlight(ctx context.Context, req *HighlightRequest) (*Blob, error) {
	if req == nil {
		return nil, apperr.NewValidationError("request", "nil", "highlight request is required")
	}

	selected, err := record.EncodeNames(req.Ngrams)
	if err != nil {
		return nil, apperr.NewTransportError(string(OpDownloadHighlight), "failed to encode n-grams", err)
	}

	query := url.Values{}
	query.Set("file_name", req.FileName)
	query.Set("selected_ngrams", selected)
	query.Set("lang", req.Lang)
	query.Set("format_type", req.Format)

	endpoint := c.baseURL.JoinPath(OpDownloadHighlight.Path())
	endpoint.RawQuery = query.Encode()

	resp, err := c.do(ctx, OpDownloadHighlight, http.MethodGet, endpoint.String(), "", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.readBlob(OpDownloadHighlight, resp)
}

func (c *Client) postJSON(ctx context.Context, op Operation, form *formBody, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return apperr.NewTransportError(string(op), "failed to build request", err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, c.baseURL.JoinPath(op.Path()).String(), contentType, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.NewTransportError(string(op), c.fallback(op), fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) postBlob(ctx context.Context, op Operation, form *formBody) (*Blob, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, apperr.NewTransportError(string(op), "failed to build request", err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, c.baseURL.JoinPath(op.Path()).String(), contentType, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.readBlob(op, resp)
}

func (c *Client) readBlob(op Operation, resp *http.Response) (*Blob, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.handleErrorResponse(op, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NewTransportError(string(op), c.fallback(op), fmt.Errorf("failed to read response: %w", err))
	}

	blob := &Blob{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			blob.Filename = params["filename"]
		}
	}
	return blob, nil
}

// do sends one request, retrying transport failures only. A response, once
// received, is never retried: the service may already have acted on it.
func (c *Client) do(ctx context.Context, op Operation, method, endpoint, contentType string, body []byte) (*http.Response, error) {
	requestID := RequestIDFrom(ctx)
	log := c.log.WithFields(logger.F("op", op), logger.RequestID(requestID))

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<(attempt-1))
			log.Debug("retrying in %s (attempt %d)", delay, attempt+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, apperr.NewTransportError(string(op), c.fallback(op), ctx.Err())
			}
		}

		var reader io.Reader = http.NoBody
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, apperr.NewTransportError(string(op), "failed to create request", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		if requestID != "" {
			req.Header.Set(RequestIDHeader, requestID)
		}

		start := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			log.WarnWithFields("request failed", []logger.Field{logger.Error(err)})
			if ctx.Err() != nil {
				break
			}
			continue
		}

		log.DebugWithFields("response received", []logger.Field{
			logger.F("status", resp.StatusCode),
			logger.Duration(time.Since(start)),
		})
		return resp, nil
	}

	return nil, apperr.NewTransportError(string(op), c.fallback(op), lastErr)
}

// handleErrorResponse turns a non-success response into a ServiceError
// carrying the server detail, or the localized fallback when there is none.
func (c *Client) handleErrorResponse(op Operation, resp *http.Response) error {
	message := c.fallback(op)

	body, err := io.ReadAll(resp.Body)
	if err == nil {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil {
			if detail, ok := errResp.Detail.(string); ok && detail != "" {
				message = detail
			}
		}
	}

	c.log.WarnWithFields("service returned an error", []logger.Field{
		logger.F("op", op),
		logger.F("status", resp.StatusCode),
	})

	if op == OpFilter {
		return apperr.NewFilterError(resp.StatusCode, message)
	}
	return apperr.NewServiceError(string(op), resp.StatusCode, message)
}

func (c *Client) fallback(op Operation) string {
	if c.config.Fallback != nil {
		if msg := c.config.Fallback(op); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("%s request failed", op)
}

// formBody collects multipart fields in order and encodes them once, so a
// retried request resends identical bytes.
type formBody struct {
	parts []formPart
}

type formPart struct {
	name     string
	filename string
	value    []byte
}

func newForm() *formBody {
	return &formBody{}
}

func (f *formBody) field(name, value string) {
	f.parts = append(f.parts, formPart{name: name, value: []byte(value)})
}

func (f *formBody) file(name, filename string, content io.Reader) error {
	if content == nil {
		content = bytes.NewReader(nil)
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.parts = append(f.parts, formPart{name: name, filename: filename, value: data})
	return nil
}

func (f *formBody) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, part := range f.parts {
		if part.filename == "" {
			if err := w.WriteField(part.name, string(part.value)); err != nil {
				return nil, "", err
			}
			continue
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     part.name,
			"filename": part.filename,
		}))
		header.Set("Content-Type", "text/plain; charset=utf-8")
		pw, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := pw.Write(part.value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
