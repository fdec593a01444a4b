// Package fetch retrieves the vendor's client requirements page and extracts its
// table into header labels and rows of cell text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; VersionAuditor/1.0)"

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error is returned when the source page cannot be retrieved or holds no usable table.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// UseBrowser renders the page in headless Chrome instead of a plain GET.
	UseBrowser bool
	// BrowserFallback retries with headless Chrome when the static HTML has no table.
	BrowserFallback bool
	Logger          *zerolog.Logger
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

func (o *Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}

// URL retrieves HTML content from a URL. Any status outside 2xx is an error; the
// partial Result is still returned so callers can inspect the status code.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: opts.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	opts.logger().Debug().
		Str("url", urlStr).
		Int("status", resp.StatusCode).
		Int("bytes", len(bodyBytes)).
		Msg("fetched page")

	return result, nil
}

// FetchTable retrieves urlStr and extracts the first table on the page.
// With UseBrowser set the page is rendered in headless Chrome; with BrowserFallback
// set a static page without a table is retried through the browser.
func FetchTable(ctx context.Context, urlStr string, opts *Options) (*Table, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.logger()

	if opts.UseBrowser {
		return browserTable(ctx, urlStr, opts)
	}

	result, err := URL(ctx, urlStr, opts)
	if err != nil {
		return nil, err
	}

	table, err := ExtractTable(result.HTML)
	if err == nil {
		table.SourceURL = urlStr
		return table, nil
	}
	if !opts.BrowserFallback || !ShouldUseBrowser(result.HTML) {
		return nil, &Error{URL: urlStr, Message: "no usable table in page", Cause: err}
	}

	log.Debug().Str("url", urlStr).Msg("static page has no table, falling back to browser rendering")
	return browserTable(ctx, urlStr, opts)
}

func browserTable(ctx context.Context, urlStr string, opts *Options) (*Table, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}
	html, err := WithBrowser(ctx, urlStr, opts.Timeout, opts.logger())
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "browser rendering failed", Cause: err}
	}
	table, err := ExtractTable(html)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "no usable table in rendered page", Cause: err}
	}
	table.SourceURL = urlStr
	return table, nil
}

func validateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}
	return nil
}

// Fetcher retrieves tables with a fixed set of options.
type Fetcher struct {
	Options *Options
}

// FetchTable retrieves urlStr and extracts its first table.
func (f *Fetcher) FetchTable(ctx context.Context, urlStr string) (*Table, error) {
	return FetchTable(ctx, urlStr, f.Options)
}
