package alert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFeed fetches the document from a URL on every call.
type HTTPFeed struct {
	URL    string
	Client *http.Client
}

func NewHTTPFeed(url string) *HTTPFeed {
	return &HTTPFeed{URL: url, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (h *HTTPFeed) Current(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("build alert request: %w", err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch alert feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
		return Snapshot{}, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("alert feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read alert feed: %w", err)
	}
	return Parse(body)
}
