package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meltforce/racecountdown/internal/schedule"
)

// Source retrieves a schedule table. The first row is the header.
type Source interface {
	Fetch(ctx context.Context, url string) ([][]string, error)
}

// HTTPSource downloads a CSV export over HTTP.
type HTTPSource struct {
	httpClient *http.Client
}

// NewHTTPSource creates an HTTP feed source with the given timeout.
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	return &HTTPSource{httpClient: &http.Client{Timeout: timeout}}
}

// maxFeedBytes bounds the size of a downloaded feed.
const maxFeedBytes = 4 << 20

func (s *HTTPSource) Fetch(ctx context.Context, url string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating feed request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed request failed (status %d)", resp.StatusCode)
	}
	return schedule.SplitRows(string(body)), nil
}

// Router sends Google Sheets document URLs to the Sheets API source when
// one is configured and everything else to plain HTTP.
type Router struct {
	HTTP   Source
	Sheets Source
}

func (r *Router) Fetch(ctx context.Context, url string) ([][]string, error) {
	if r.Sheets != nil {
		if _, ok := SpreadsheetID(url); ok {
			return r.Sheets.Fetch(ctx, url)
		}
	}
	return r.HTTP.Fetch(ctx, url)
}
