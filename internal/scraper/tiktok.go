package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/okarpachev/promopulse/internal/models"
)

// tiktokSource loads profile pages through a headless browser: the embedded
// state only materializes after client-side rendering. The SIGI_STATE JSON
// blob is then lifted out of the resulting DOM.
type tiktokSource struct {
	client        *fetchClient
	renderTimeout time.Duration
}

func newTikTokSource(client *fetchClient) *tiktokSource {
	return &tiktokSource{client: client, renderTimeout: 60 * time.Second}
}

func (s *tiktokSource) Platform() models.Platform { return models.PlatformTikTok }

// sigiState is the slice of TikTok's embedded page state the tracker needs.
type sigiState struct {
	ItemModule map[string]tiktokItem `json:"ItemModule"`
}

type tiktokItem struct {
	ID         string `json:"id"`
	Desc       string `json:"desc"`
	CreateTime string `json:"createTime"` // unix seconds as string
	Author     string `json:"author"`
	Stats      struct {
		DiggCount    json.Number `json:"diggCount"`
		ShareCount   json.Number `json:"shareCount"`
		CommentCount json.Number `json:"commentCount"`
		PlayCount    json.Number `json:"playCount"`
	} `json:"stats"`
}

func (s *tiktokSource) Fetch(ctx context.Context, account *models.TrackedAccount) ([]models.RawRecord, error) {
	stateJSON, err := s.pageState(ctx, account.AccountURL)
	if err != nil {
		return nil, err
	}

	var state sigiState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("failed to decode SIGI_STATE from %s: %w", account.AccountURL, err)
	}

	records := make([]models.RawRecord, 0, len(state.ItemModule))
	for _, item := range state.ItemModule {
		records = append(records, models.RawRecord{
			SourceID:    item.ID,
			Title:       item.Desc,
			Text:        item.Desc,
			ContentURL:  fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", item.Author, item.ID),
			AccountName: item.Author,
			AccountURL:  account.AccountURL,
			PostedAt:    item.CreateTime,
			Views:       item.Stats.PlayCount.String(),
			Likes:       item.Stats.DiggCount.String(),
			Comments:    item.Stats.CommentCount.String(),
			Shares:      item.Stats.ShareCount.String(),
		})
	}
	return records, nil
}

// pageState fetches the profile's SIGI_STATE blob. A plain GET is tried
// first; when the returned document has no state (TikTok served the
// JS-only shell) the page is rendered in a headless browser instead.
func (s *tiktokSource) pageState(ctx context.Context, profileURL string) (string, error) {
	if doc, err := s.client.getDocument(ctx, profileURL); err == nil {
		if stateJSON := doc.Find("script#SIGI_STATE").Text(); strings.TrimSpace(stateJSON) != "" {
			return stateJSON, nil
		}
	}

	html, err := s.renderProfile(ctx, profileURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered tiktok page: %w", err)
	}
	stateJSON := doc.Find("script#SIGI_STATE").Text()
	if strings.TrimSpace(stateJSON) == "" {
		return "", fmt.Errorf("no SIGI_STATE found on %s: possible block or layout change", profileURL)
	}
	return stateJSON, nil
}

// renderProfile loads the profile in a fresh headless-browser tab and
// returns the rendered document.
func (s *tiktokSource) renderProfile(ctx context.Context, profileURL string) (string, error) {
	browserCtx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()
	renderCtx, cancelTimeout := context.WithTimeout(browserCtx, s.renderTimeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(renderCtx,
		chromedp.Navigate(profileURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", profileURL, err)
	}
	return html, nil
}
