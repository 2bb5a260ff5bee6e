package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/okarpachev/promopulse/internal/models"
)

const youtubeFeedEndpoint = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// youtubeSource resolves a channel handle to its channel ID via the public
// channel page, then reads the channel's video RSS feed. The feed carries
// no like or comment counts; those default to zero downstream.
type youtubeSource struct {
	client *fetchClient
}

func newYouTubeSource(client *fetchClient) *youtubeSource {
	return &youtubeSource{client: client}
}

func (s *youtubeSource) Platform() models.Platform { return models.PlatformYouTube }

type youtubeFeed struct {
	Author struct {
		Name string `xml:"name"`
		URI  string `xml:"uri"`
	} `xml:"author"`
	Entries []youtubeEntry `xml:"entry"`
}

type youtubeEntry struct {
	VideoID   string `xml:"videoId"`
	Title     string `xml:"title"`
	Published string `xml:"published"` // RFC3339
	Link      struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Group struct {
		Description string `xml:"description"`
		Community   struct {
			Statistics struct {
				Views string `xml:"views,attr"`
			} `xml:"statistics"`
		} `xml:"community"`
	} `xml:"group"`
}

func (s *youtubeSource) Fetch(ctx context.Context, account *models.TrackedAccount) ([]models.RawRecord, error) {
	channelID, err := s.resolveChannelID(ctx, account.AccountURL)
	if err != nil {
		return nil, err
	}

	body, err := s.client.get(ctx, fmt.Sprintf(youtubeFeedEndpoint, url.QueryEscape(channelID)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch youtube feed for %s: %w", channelID, err)
	}

	var feed youtubeFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode youtube feed for %s: %w", channelID, err)
	}

	records := make([]models.RawRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		records = append(records, models.RawRecord{
			SourceID:    entry.VideoID,
			Title:       entry.Title,
			Text:        entry.Group.Description,
			ContentURL:  entry.Link.Href,
			AccountName: feed.Author.Name,
			AccountURL:  account.AccountURL,
			PostedAt:    entry.Published,
			Views:       entry.Group.Community.Statistics.Views,
		})
	}
	return records, nil
}

// resolveChannelID scrapes the channel ID out of the channel page metadata.
func (s *youtubeSource) resolveChannelID(ctx context.Context, channelURL string) (string, error) {
	doc, err := s.client.getDocument(ctx, channelURL)
	if err != nil {
		return "", fmt.Errorf("failed to load channel page %s: %w", channelURL, err)
	}

	if id, ok := doc.Find(`meta[itemprop="identifier"]`).Attr("content"); ok && id != "" {
		return id, nil
	}
	// Older pages expose the canonical /channel/UC... link instead.
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if parsed, err := url.Parse(href); err == nil {
			segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
			for i, seg := range segments {
				if seg == "channel" && i+1 < len(segments) {
					return segments[i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("no channel id found on %s", channelURL)
}
