package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inbucket/html2text"
	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/pkg/retry"
)

const (
	maxResponseSize      = 256 << 10
	defaultLookupTimeout = 5 * time.Second
	DefaultWikipediaURL  = "https://en.wikipedia.org/api/rest_v1"
)

// Wikipedia looks topics up through the REST page summary endpoint.
type Wikipedia struct {
	client  *http.Client
	baseURL string
	retrier *retry.Retrier
}

func NewWikipedia(baseURL string, timeout time.Duration) *Wikipedia {
	if baseURL == "" {
		baseURL = DefaultWikipediaURL
	}
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &Wikipedia{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		retrier: retry.NewRetrier(&retry.Config{
			MaxRetries:    1,
			BackoffFactor: 2,
			InitialDelay:  200 * time.Millisecond,
		}).WithRetryable(retryableLookup),
	}
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, e.status)
}

// retryableLookup accepts network failures, 429 and 5xx. Other statuses and
// undecodable bodies would fail the same way again.
func retryableLookup(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= http.StatusInternalServerError
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

type pageSummary struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
}

// Summarize returns the first paragraph of the page for topic.
// Missing pages and disambiguation pages yield an empty string and no error.
func (w *Wikipedia) Summarize(ctx context.Context, topic string) (string, error) {
	title := strings.ReplaceAll(strings.TrimSpace(topic), " ", "_")
	if title == "" {
		return "", nil
	}
	endpoint := w.baseURL + "/page/summary/" + url.PathEscape(title)

	var summary string
	err := w.retrier.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", core.AppUserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch summary: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			summary = ""
			return nil
		}
		if resp.StatusCode >= 400 {
			return &statusError{code: resp.StatusCode, status: resp.Status}
		}

		var page pageSummary
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&page); err != nil {
			return fmt.Errorf("decode summary: %w", err)
		}

		summary, err = extractText(page)
		return err
	})
	if err != nil {
		return "", err
	}
	return summary, nil
}

func extractText(page pageSummary) (string, error) {
	if page.Type == "disambiguation" {
		return "", nil
	}

	text := page.Extract
	if strings.TrimSpace(text) == "" && page.ExtractHTML != "" {
		var err error
		text, err = html2text.FromString(page.ExtractHTML, html2text.Options{OmitLinks: true})
		if err != nil {
			return "", fmt.Errorf("convert extract: %w", err)
		}
	}

	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(first), nil
}
