package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	redditAuthURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIURL  = "https://oauth.reddit.com"
)

// RedditSource implements Reddit API search
type RedditSource struct {
	clientID     string
	clientSecret string
	authURL      string
	apiURL       string
	client       *resty.Client
}

var _ Source = (*RedditSource)(nil)

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	Author        string  `json:"author"`
	Subreddit     string  `json:"subreddit"`
	Permalink     string  `json:"permalink"`
	Created       float64 `json:"created_utc"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
	NumCrossposts int     `json:"num_crossposts"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(clientID, clientSecret string) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      redditAuthURL,
		apiURL:       redditAPIURL,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", "Sentinel-Alerts/1.0"),
	}
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

func (r *RedditSource) FetchRecent(ctx context.Context, query string, max int) ([]models.Post, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials")
		return nil, nil
	}

	token, err := r.authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetQueryParams(map[string]string{
			"q":     query,
			"sort":  "new",
			"limit": strconv.Itoa(max),
		}).
		Get(r.apiURL + "/search.json")

	if err != nil {
		return nil, fmt.Errorf("reddit request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Reddit response: %w", err)
	}

	var posts []models.Post
	for _, child := range searchResp.Data.Children {
		if len(posts) >= max {
			break
		}
		post := child.Data

		// net score goes negative on downvoted posts
		likes := post.Score
		if likes < 0 {
			likes = 0
		}

		author := post.Author
		if author == "" || author == "[deleted]" {
			author = "Anonymous"
		}

		posts = append(posts, models.Post{
			ID:       post.ID,
			Source:   r.GetName(),
			Platform: "Reddit",
			Author:   author,
			Text:     strings.TrimSpace(post.Title + "\n" + post.Selftext),
			URL:      fmt.Sprintf("https://reddit.com%s", post.Permalink),
			// Reddit does not expose impressions
			Likes:     likes,
			Reshares:  post.NumCrossposts,
			CreatedAt: time.Unix(int64(post.Created), 0).UTC(),
		})
	}

	logrus.Infof("Reddit API returned %d posts for query '%s'", len(posts), query)
	return posts, nil
}

// authenticate fetches a client-credentials token for one fetch
func (r *RedditSource) authenticate(ctx context.Context) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.authURL)

	if err != nil {
		return "", err
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return "", err
	}
	if authResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	return authResp.AccessToken, nil
}
