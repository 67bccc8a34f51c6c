package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cinematch/cinematch/pkg/config"
	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/interfaces"
)

// Placeholder images served when the API is disabled, unavailable, or
// has no artwork for the subject.
const (
	PosterPlaceholder  = "https://via.placeholder.com/500x750?text=No+Poster"
	ProfilePlaceholder = "https://via.placeholder.com/185x278?text=No+Image"

	posterSize  = "w500"
	profileSize = "w185"

	cacheTTL = time.Hour
)

// PersonInfo holds the profile details fetched for a cast member.
type PersonInfo struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	Biography  string `json:"biography"`
}

// Client fetches poster and cast artwork from TMDB. Lookups are rate
// limited, cached, and guarded by a circuit breaker; any failure
// degrades to a placeholder image rather than an error.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	httpClient   *http.Client
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[[]byte]
	cache        interfaces.Cache
	logger       interfaces.Logger
	maxRetries   int
	retryDelay   time.Duration
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, cache interfaces.Cache, logger interfaces.Logger) *Client {
	c := &Client{
		baseURL:      cfg.BaseURL,
		imageBaseURL: cfg.ImageBaseURL,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		cache:        cache,
		logger:       logger,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "tmdb",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("TMDB circuit breaker state change",
				interfaces.String("from", from.String()),
				interfaces.String("to", to.String()))
		},
	})

	return c
}

// Enabled reports whether an API key is configured. Without a key every
// lookup returns a placeholder immediately.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// MoviePoster returns the poster image URL for a TMDB movie ID, or a
// placeholder when no poster can be fetched.
func (c *Client) MoviePoster(ctx context.Context, movieID int) string {
	if !c.Enabled() {
		return PosterPlaceholder
	}

	cacheKey := fmt.Sprintf("tmdb:poster:%d", movieID)
	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		if s, ok := cached.(string); ok {
			return s
		}
	}

	var payload struct {
		PosterPath string `json:"poster_path"`
	}

	endpoint := fmt.Sprintf("%s/movie/%d", c.baseURL, movieID)
	if err := c.getJSON(ctx, endpoint, nil, &payload); err != nil {
		c.logger.Warn("Failed to fetch movie poster",
			interfaces.Int("movie_id", movieID),
			interfaces.Error(err))

		return PosterPlaceholder
	}

	poster := PosterPlaceholder
	if payload.PosterPath != "" {
		poster = fmt.Sprintf("%s/%s%s", c.imageBaseURL, posterSize, payload.PosterPath)
	}

	_ = c.cache.Set(ctx, cacheKey, poster, cacheTTL)

	return poster
}

// PersonProfile looks up a person by name and returns their profile
// image and biography. Missing people and API failures both yield a
// placeholder profile rather than an error.
func (c *Client) PersonProfile(ctx context.Context, name string) *PersonInfo {
	fallback := &PersonInfo{Name: name, ProfileURL: ProfilePlaceholder}

	if !c.Enabled() || name == "" {
		return fallback
	}

	cacheKey := "tmdb:person:" + name
	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		if info, ok := cached.(*PersonInfo); ok {
			return info
		}
	}

	var search struct {
		Results []struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			ProfilePath string `json:"profile_path"`
		} `json:"results"`
	}

	query := url.Values{"query": {name}}
	if err := c.getJSON(ctx, c.baseURL+"/search/person", query, &search); err != nil {
		c.logger.Warn("Failed to search person",
			interfaces.String("name", name),
			interfaces.Error(err))

		return fallback
	}

	if len(search.Results) == 0 {
		_ = c.cache.Set(ctx, cacheKey, fallback, cacheTTL)

		return fallback
	}

	match := search.Results[0]

	info := &PersonInfo{Name: match.Name, ProfileURL: ProfilePlaceholder}
	if match.ProfilePath != "" {
		info.ProfileURL = fmt.Sprintf("%s/%s%s", c.imageBaseURL, profileSize, match.ProfilePath)
	}

	var person struct {
		Biography string `json:"biography"`
	}

	endpoint := fmt.Sprintf("%s/person/%d", c.baseURL, match.ID)
	if err := c.getJSON(ctx, endpoint, nil, &person); err == nil {
		info.Biography = person.Biography
	}

	_ = c.cache.Set(ctx, cacheKey, info, cacheTTL)

	return info
}

// getJSON performs a rate-limited GET through the circuit breaker and
// decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)

	requestURL := endpoint + "?" + query.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, requestURL)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to decode TMDB response", err)
	}

	return nil
}

// fetch retries transient failures a bounded number of times with a
// fixed delay between attempts.
func (c *Client) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doRequest(ctx, requestURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}
