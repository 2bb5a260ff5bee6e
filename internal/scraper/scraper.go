// Package scraper fetches raw post records from the supported platforms.
// Each source returns loosely-typed RawRecords; coercion and filtering
// happen downstream in the normalizer.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/okarpachev/promopulse/internal/config"
	"github.com/okarpachev/promopulse/internal/models"
)

// Source fetches the recent raw records for one tracked account.
type Source interface {
	Platform() models.Platform
	Fetch(ctx context.Context, account *models.TrackedAccount) ([]models.RawRecord, error)
}

// Registry maps platforms to their sources.
type Registry map[models.Platform]Source

// NewRegistry wires up one source per supported platform.
func NewRegistry(cfg *config.Config) Registry {
	client := newFetchClient(cfg)
	return Registry{
		models.PlatformTikTok:    newTikTokSource(client),
		models.PlatformInstagram: newInstagramSource(client),
		models.PlatformYouTube:   newYouTubeSource(client),
	}
}

// ForPlatform returns the source for a platform, or an error for platforms
// without one.
func (r Registry) ForPlatform(platform models.Platform) (Source, error) {
	src, ok := r[platform]
	if !ok {
		return nil, fmt.Errorf("no source registered for platform %q", platform)
	}
	return src, nil
}

const maxFetchRetries = 3

// fetchClient is the HTTP plumbing shared by all sources.
type fetchClient struct {
	httpClient *http.Client
	userAgent  string
}

func newFetchClient(cfg *config.Config) *fetchClient {
	return &fetchClient{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		userAgent:  cfg.UserAgent,
	}
}

// get performs one GET with retries and exponential backoff, mirroring the
// list-page retry loop this service has always used for flaky upstreams.
func (c *fetchClient) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var body []byte
	var lastErr error
	for attempt := 0; attempt < maxFetchRetries; attempt++ {
		body, lastErr = c.attemptGet(ctx, url, headers)
		if lastErr == nil {
			return body, nil
		}
		if attempt < maxFetchRetries-1 {
			backoff := time.Duration(1<<attempt) * time.Second
			slog.Warn("Fetch attempt failed, retrying", "url", url, "attempt", attempt+1, "error", lastErr, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", maxFetchRetries, lastErr)
}

func (c *fetchClient) attemptGet(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status code %d", url, res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

func (c *fetchClient) getJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	body, err := c.get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func (c *fetchClient) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", url, err)
	}
	return doc, nil
}
