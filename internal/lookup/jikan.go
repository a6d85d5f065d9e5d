package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/animerec/internal/metrics"
	"github.com/hyperjump/animerec/internal/models"
)

const (
	// JikanBaseURL is the public Jikan v4 API.
	JikanBaseURL = "https://api.jikan.moe/v4"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 5 * time.Second

	// DefaultRate is the request rate allowed against Jikan (3 requests per second).
	DefaultRate = 3.0

	breakerName = "jikan"
)

// Client looks titles up in the Jikan API. Requests are rate limited and guarded by a
// circuit breaker so a failing service is skipped quickly instead of slowing every request.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*models.TitleInfo]
	baseURL    string
	logger     *zap.Logger
}

var _ ImageLookup = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRate sets the allowed requests per second. Zero or less disables limiting.
func WithRate(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Jikan client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRate), 1),
		baseURL:    JikanBaseURL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(c.logger)
	return c
}

// newBreaker opens after 5 consecutive failures, or a 60% failure rate over at least
// 10 requests, and probes again after 30 seconds. Missing titles and cancelled or
// expired caller contexts are not failures.
func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker[*models.TitleInfo] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[*models.TitleInfo](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State returns the circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

type searchResponse struct {
	Data []struct {
		Title    string `json:"title"`
		Synopsis string `json:"synopsis"`
		Images   struct {
			JPG struct {
				ImageURL string `json:"image_url"`
			} `json:"jpg"`
		} `json:"images"`
	} `json:"data"`
}

// Lookup searches Jikan for name and returns the first hit. It returns ErrNotFound when
// the search has no results.
func (c *Client) Lookup(ctx context.Context, name string) (*models.TitleInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	start := time.Now()
	// Waiting on the limiter happens outside the breaker: a caller's deadline is not an upstream failure.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	info, err := c.breaker.Execute(func() (*models.TitleInfo, error) {
		return c.search(ctx, name)
	})
	metrics.LookupDuration.Observe(time.Since(start).Seconds())
	return info, err
}

func (c *Client) search(ctx context.Context, name string) (*models.TitleInfo, error) {
	params := url.Values{}
	params.Set("q", name)
	params.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/anime?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jikan request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("jikan returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode jikan response: %w", err)
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	hit := body.Data[0]
	return &models.TitleInfo{
		Name:     name,
		ImageURL: hit.Images.JPG.ImageURL,
		Synopsis: strings.TrimSpace(hit.Synopsis),
	}, nil
}
