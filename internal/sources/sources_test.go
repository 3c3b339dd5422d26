package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedditSource_GetName(t *testing.T) {
	source := NewRedditSource("client_id", "client_secret")
	assert.Equal(t, "reddit", source.GetName())
}

func TestRedditSource_IsEnabled(t *testing.T) {
	tests := []struct {
		name         string
		clientID     string
		clientSecret string
		expected     bool
	}{
		{
			name:         "Both credentials provided",
			clientID:     "client_id",
			clientSecret: "client_secret",
			expected:     true,
		},
		{
			name:         "Missing client ID",
			clientID:     "",
			clientSecret: "client_secret",
			expected:     false,
		},
		{
			name:         "Missing client secret",
			clientID:     "client_id",
			clientSecret: "",
			expected:     false,
		},
		{
			name:         "Both missing",
			clientID:     "",
			clientSecret: "",
			expected:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewRedditSource(tt.clientID, tt.clientSecret)
			assert.Equal(t, tt.expected, source.IsEnabled())
		})
	}
}

func TestTwitterSource_GetName(t *testing.T) {
	source := NewTwitterSource("bearer_token", "https://api.twitter.com")
	assert.Equal(t, "twitter", source.GetName())
}

func TestTwitterSource_IsEnabled(t *testing.T) {
	tests := []struct {
		name        string
		bearerToken string
		expected    bool
	}{
		{
			name:        "Token provided",
			bearerToken: "bearer_token",
			expected:    true,
		},
		{
			name:        "No token",
			bearerToken: "",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewTwitterSource(tt.bearerToken, "https://api.twitter.com")
			assert.Equal(t, tt.expected, source.IsEnabled())
		})
	}
}

func TestTwitterSource_DisabledFetchIsNoop(t *testing.T) {
	posts, err := NewTwitterSource("", "http://127.0.0.1:1").FetchRecent(context.Background(), "brand", 10)
	assert.NoError(t, err)
	assert.Empty(t, posts)
}

func TestTwitterSource_FetchRecent(t *testing.T) {
	var query map[string][]string
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		query = r.URL.Query()
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id": "1", "text": "worst app ever", "author_id": "u2", "created_at": "2026-10-01T10:00:00Z",
				 "public_metrics": {"retweet_count": 3, "like_count": 4, "reply_count": 1, "impression_count": 900}},
				{"id": "2", "text": "love it", "author_id": "u9", "created_at": "2026-10-01T11:00:00Z",
				 "public_metrics": {"retweet_count": 0, "like_count": 1, "reply_count": 0}}
			],
			"includes": {"users": [{"id": "u1", "username": "first"}, {"id": "u2", "username": "angry_customer"}]},
			"meta": {"result_count": 2}
		}`))
	}))
	defer server.Close()

	source := NewTwitterSource("token", server.URL+"/")
	posts, err := source.FetchRecent(context.Background(), "SentinelAI", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "Bearer token", auth)
	assert.Equal(t, []string{"SentinelAI"}, query["query"])
	assert.Equal(t, []string{"10"}, query["max_results"])
	assert.Equal(t, []string{"author_id"}, query["expansions"])

	first := posts[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "twitter", first.Source)
	assert.Equal(t, "Twitter", first.Platform)
	assert.Equal(t, "angry_customer", first.Author)
	assert.Equal(t, 900, first.Impressions)
	assert.Equal(t, 4, first.Likes)
	assert.Equal(t, 3, first.Reshares)
	assert.Equal(t, "twitter_1", first.Ref())

	// author missing from includes
	assert.Equal(t, "Anonymous", posts[1].Author)
	assert.Equal(t, 0, posts[1].Impressions)
}

func TestTwitterSource_ClampsAndTruncates(t *testing.T) {
	var maxResults string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		maxResults = r.URL.Query().Get("max_results")
		w.Write([]byte(`{"data": [{"id": "1", "text": "a"}, {"id": "2", "text": "b"}, {"id": "3", "text": "c"}]}`))
	}))
	defer server.Close()

	posts, err := NewTwitterSource("token", server.URL).FetchRecent(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, "10", maxResults)
	assert.Len(t, posts, 2)
}

func TestTwitterSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "Rate limited", status: http.StatusTooManyRequests},
		{name: "Unauthorized", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := NewTwitterSource("token", server.URL).FetchRecent(context.Background(), "q", 10)
			assert.Error(t, err)
		})
	}
}

func TestRedditSource_FetchRecent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		w.Write([]byte(`{"access_token": "abc", "token_type": "bearer", "expires_in": 3600}`))
	})
	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "SentinelAI", r.URL.Query().Get("q"))
		w.Write([]byte(`{"data": {"children": [
			{"data": {"id": "x1", "title": "Broken again", "selftext": "refund please", "author": "bob",
			          "permalink": "/r/foo/comments/x1", "created_utc": 1790000000, "score": 12, "num_crossposts": 2}},
			{"data": {"id": "x2", "title": "meh", "author": "[deleted]", "created_utc": 1790000100, "score": -7}}
		]}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	source := NewRedditSource("id", "secret")
	source.authURL = server.URL + "/token"
	source.apiURL = server.URL

	posts, err := source.FetchRecent(context.Background(), "SentinelAI", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "Reddit", posts[0].Platform)
	assert.Equal(t, "Broken again\nrefund please", posts[0].Text)
	assert.Equal(t, 12, posts[0].Likes)
	assert.Equal(t, 2, posts[0].Reshares)
	assert.Equal(t, 0, posts[0].Impressions)
	assert.Equal(t, "https://reddit.com/r/foo/comments/x1", posts[0].URL)
	assert.Equal(t, "reddit_x1", posts[0].Ref())
	assert.Equal(t, "Anonymous", posts[1].Author)
	assert.Equal(t, 0, posts[1].Likes, "downvoted posts have no negative engagement")
}

func TestRedditSource_ConcurrentFetchesUseTheirOwnToken(t *testing.T) {
	var issued int32
	var mu sync.Mutex
	used := map[string]int{}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&issued, 1)
		fmt.Fprintf(w, `{"access_token": "tok-%d", "token_type": "bearer", "expires_in": 3600}`, n)
	})
	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		used[r.Header.Get("Authorization")]++
		mu.Unlock()
		w.Write([]byte(`{"data": {"children": []}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	source := NewRedditSource("id", "secret")
	source.authURL = server.URL + "/token"
	source.apiURL = server.URL

	const fetches = 8
	var wg sync.WaitGroup
	errs := make(chan error, fetches)
	for i := 0; i < fetches; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := source.FetchRecent(context.Background(), "q", 10)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, used, fetches)
	for i := 1; i <= fetches; i++ {
		assert.Equal(t, 1, used[fmt.Sprintf("Bearer tok-%d", i)])
	}
}

func TestRedditSource_EmptyTokenIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type": "bearer"}`))
	}))
	defer server.Close()

	source := NewRedditSource("id", "secret")
	source.authURL = server.URL
	source.apiURL = server.URL

	_, err := source.FetchRecent(context.Background(), "q", 10)
	assert.ErrorContains(t, err, "no access token")
}

func TestRedditSource_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := NewRedditSource("id", "secret")
	source.authURL = server.URL
	source.apiURL = server.URL

	_, err := source.FetchRecent(context.Background(), "q", 10)
	assert.Error(t, err)
}
