package jobdesc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultMaxBytes  = 5 << 20
	defaultUserAgent = "Mozilla/5.0"
)

var (
	ErrInvalidURL    = errors.New("invalid url")
	ErrUnreachable   = errors.New("url unreachable")
	ErrBadStatus     = errors.New("unexpected http status")
	ErrMalformedPage = errors.New("malformed page")
)

// FetchError is returned for every failed fetch. It is the "no data" outcome,
// distinct from a successful fetch of a page without text.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %v (status %d)", e.URL, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Page is the visible text of a fetched job posting.
type Page struct {
	URL        string
	Text       string
	StatusCode int
}

// Empty reports whether the page was fetched but held no visible text.
func (p Page) Empty() bool {
	return p.Text == ""
}

// Options tune a Fetcher. Zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	Client    *http.Client
}

// Fetcher retrieves a job posting with a single GET and reduces it to text.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// NewFetcher constructs a Fetcher with a shared HTTP client.
func NewFetcher(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Fetcher{client: client, maxBytes: maxBytes, userAgent: ua}
}

// Fetch performs exactly one GET. Any status other than 200 is a failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	target := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Page{}, &FetchError{URL: target, Err: ErrInvalidURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return Page{}, &FetchError{URL: target, Err: ErrInvalidURL}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, &FetchError{URL: target, Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Page{}, &FetchError{URL: target, StatusCode: resp.StatusCode, Err: ErrBadStatus}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return Page{}, &FetchError{URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
	}

	text, err := VisibleText(body)
	if err != nil {
		return Page{}, &FetchError{URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedPage, err)}
	}
	return Page{URL: target, Text: text, StatusCode: resp.StatusCode}, nil
}

// VisibleText joins every visible text node with a single space and
// collapses whitespace runs.
func VisibleText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	for _, n := range doc.Selection.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

func collectText(n *html.Node, parts *[]string) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
