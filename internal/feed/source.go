package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"UpdatesScanner/internal/domain"
	"UpdatesScanner/internal/ports"
)

// Source fetches the configured feed URL and parses it into updates.
type Source struct {
	feedURL string
	client  *http.Client
}

var _ ports.FeedSource = (*Source)(nil)

// NewSource wires an HTTP client; the default carries a bounded timeout
// so a stalled feed endpoint fails the invocation instead of hanging it.
func NewSource(feedURL string, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Source{feedURL: feedURL, client: client}
}

// Fetch performs one blocking read of the feed. Any transport or parse
// failure here is fatal to the invocation: a corrupt or unreachable feed
// leaves no items that can be trusted.
func (s *Source) Fetch(ctx context.Context) ([]domain.Update, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", "UpdatesScanner/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	return Parse(raw)
}
