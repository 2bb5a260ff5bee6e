package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/okarpachev/promopulse/internal/models"
)

const (
	instagramProfileEndpoint = "https://www.instagram.com/api/v1/users/web_profile_info/?username=%s"
	// Public web-app ID Instagram expects on anonymous API calls.
	instagramAppID = "936619743392459"
)

// instagramSource reads the public web-profile JSON endpoint.
type instagramSource struct {
	client *fetchClient
}

func newInstagramSource(client *fetchClient) *instagramSource {
	return &instagramSource{client: client}
}

func (s *instagramSource) Platform() models.Platform { return models.PlatformInstagram }

type instagramProfileResponse struct {
	Data struct {
		User struct {
			Username string `json:"username"`
			FullName string `json:"full_name"`
			Media    struct {
				Edges []struct {
					Node instagramNode `json:"node"`
				} `json:"edges"`
			} `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
}

type instagramNode struct {
	ID        string `json:"id"`
	Shortcode string `json:"shortcode"`
	TakenAt   int64  `json:"taken_at_timestamp"`
	Caption   struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
	Likes struct {
		Count int `json:"count"`
	} `json:"edge_liked_by"`
	Comments struct {
		Count int `json:"count"`
	} `json:"edge_media_to_comment"`
	VideoViews *float64 `json:"video_view_count"`
}

func (s *instagramSource) Fetch(ctx context.Context, account *models.TrackedAccount) ([]models.RawRecord, error) {
	username := instagramUsername(account)
	if username == "" {
		return nil, fmt.Errorf("cannot derive instagram username from %q", account.AccountURL)
	}

	var profile instagramProfileResponse
	endpoint := fmt.Sprintf(instagramProfileEndpoint, url.QueryEscape(username))
	headers := map[string]string{"X-IG-App-ID": instagramAppID}
	if err := s.client.getJSON(ctx, endpoint, headers, &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch instagram profile %s: %w", username, err)
	}

	user := profile.Data.User
	records := make([]models.RawRecord, 0, len(user.Media.Edges))
	for _, edge := range user.Media.Edges {
		node := edge.Node
		var caption string
		if len(node.Caption.Edges) > 0 {
			caption = node.Caption.Edges[0].Node.Text
		}
		var views any
		if node.VideoViews != nil {
			views = *node.VideoViews
		}
		records = append(records, models.RawRecord{
			SourceID:    node.ID,
			Text:        caption,
			ContentURL:  fmt.Sprintf("https://www.instagram.com/p/%s/", node.Shortcode),
			AccountName: user.Username,
			AccountURL:  account.AccountURL,
			PostedAt:    node.TakenAt,
			Views:       views,
			Likes:       node.Likes.Count,
			Comments:    node.Comments.Count,
		})
	}
	return records, nil
}

// instagramUsername prefers the declared account name, falling back to the
// last path segment of the profile URL.
func instagramUsername(account *models.TrackedAccount) string {
	if account.AccountName != "" {
		return strings.TrimPrefix(account.AccountName, "@")
	}
	parsed, err := url.Parse(account.AccountURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return strings.TrimPrefix(segments[len(segments)-1], "@")
}
