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

// The recent-search endpoint rejects max_results outside [10, 100]
const (
	twitterMinResults = 10
	twitterMaxResults = 100
)

// TwitterSource implements Twitter/X API v2 recent search
type TwitterSource struct {
	bearerToken string
	baseURL     string
	client      *resty.Client
}

var _ Source = (*TwitterSource)(nil)

type twitterSearchResponse struct {
	Data     []twitterTweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type twitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount    int `json:"retweet_count"`
		LikeCount       int `json:"like_count"`
		ReplyCount      int `json:"reply_count"`
		ImpressionCount int `json:"impression_count"`
	} `json:"public_metrics"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// NewTwitterSource creates a new Twitter source against baseURL (https://api.twitter.com)
func NewTwitterSource(bearerToken, baseURL string) *TwitterSource {
	return &TwitterSource{
		bearerToken: bearerToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", "Sentinel-Alerts/1.0"),
	}
}

func (t *TwitterSource) GetName() string {
	return "twitter"
}

func (t *TwitterSource) IsEnabled() bool {
	return t.bearerToken != ""
}

func (t *TwitterSource) FetchRecent(ctx context.Context, query string, max int) ([]models.Post, error) {
	if !t.IsEnabled() {
		logrus.Debug("Twitter source disabled - missing bearer token")
		return nil, nil
	}

	requested := max
	if requested < twitterMinResults {
		requested = twitterMinResults
	}
	if requested > twitterMaxResults {
		requested = twitterMaxResults
	}

	logrus.Debugf("Searching Twitter for query: %s", query)

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.bearerToken).
		SetQueryParams(map[string]string{
			"query":        query,
			"max_results":  strconv.Itoa(requested),
			"tweet.fields": "author_id,public_metrics,created_at",
			"expansions":   "author_id",
			"user.fields":  "username",
		}).
		Get(t.baseURL + "/2/tweets/search/recent")

	if err != nil {
		return nil, fmt.Errorf("twitter request failed: %w", err)
	}

	if resp.StatusCode() == 429 {
		return nil, fmt.Errorf("twitter API rate limit hit (reset at %s)", resp.Header().Get("x-rate-limit-reset"))
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("twitter API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Twitter response: %w", err)
	}

	usernames := make(map[string]string, len(searchResp.Includes.Users))
	for _, user := range searchResp.Includes.Users {
		usernames[user.ID] = user.Username
	}

	var posts []models.Post
	for _, tweet := range searchResp.Data {
		if len(posts) >= max {
			break
		}

		createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			logrus.Debugf("Failed to parse Twitter timestamp %q: %v", tweet.CreatedAt, err)
			createdAt = time.Now().UTC()
		}

		author := usernames[tweet.AuthorID]
		if author == "" {
			author = "Anonymous"
		}

		posts = append(posts, models.Post{
			ID:          tweet.ID,
			Source:      t.GetName(),
			Platform:    "Twitter",
			Author:      author,
			Text:        tweet.Text,
			URL:         fmt.Sprintf("https://twitter.com/i/status/%s", tweet.ID),
			Impressions: tweet.PublicMetrics.ImpressionCount,
			Likes:       tweet.PublicMetrics.LikeCount,
			Reshares:    tweet.PublicMetrics.RetweetCount,
			CreatedAt:   createdAt,
		})
	}

	logrus.Infof("Twitter API returned %d tweets for query '%s'", len(posts), query)
	return posts, nil
}
