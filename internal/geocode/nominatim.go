package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"geotext/internal/domain"
	"geotext/internal/logging"
)

// Client is a Nominatim-compatible geocoding client implementing domain.Geocoder.
type Client struct {
	baseURL    string
	userAgent  string
	email      string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// Config configures the geocoding client.
type Config struct {
	BaseURL   string
	UserAgent string
	Email     string
	Timeout   time.Duration
	// RequestsPerSecond throttles outgoing requests. Nominatim's public instance
	// allows one per second.
	RequestsPerSecond float64
	MaxRetries        int
}

var _ domain.Geocoder = (*Client)(nil)

// NewClient creates a new geocoding client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid geocoder base url: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, errors.New("geocoder user agent is required")
	}
	t := cfg.Timeout
	if t == 0 {
		t = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		email:      cfg.Email,
		client:     &http.Client{Timeout: t},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: retries,
	}, nil
}

// place is one element of the search response. Nominatim encodes coordinates as strings.
type place struct {
	Lon         coord  `json:"lon"`
	Lat         coord  `json:"lat"`
	Class       string `json:"class"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
}

// coord accepts both "12.5" and 12.5.
type coord float64

func (c *coord) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", b, err)
	}
	*c = coord(f)
	return nil
}

// Search queries the geocoder for name. An empty slice means nothing matched.
// Any other failure is returned as a *domain.TransientError.
func (c *Client) Search(ctx context.Context, name string) ([]domain.GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "json")
	q.Set("limit", "1")
	if c.email != "" {
		q.Set("email", c.email)
	}
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode())

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transient(name, err)
		}
		payload, retryAfter, err := c.get(ctx, endpoint)
		if err == nil {
			return decode(name, payload)
		}
		lastErr = err
		var perm permanentError
		if errors.As(err, &perm) || ctx.Err() != nil || attempt == c.maxRetries {
			break
		}
		delay := retryAfter
		if delay == 0 {
			delay = retryDelay(attempt)
		}
		logging.Debug("Retrying geocode request", "name", name, "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, transient(name, ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, transient(name, lastErr)
}

// permanentError marks responses that retrying will not fix.
type permanentError struct{ status string }

func (e permanentError) Error() string { return "geocoder request failed: " + e.status }

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, permanentError{status: err.Error()}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		var wait time.Duration
		// Respect Retry-After if provided
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		return nil, wait, fmt.Errorf("geocoder request failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return nil, 0, permanentError{status: resp.Status}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return payload, 0, nil
}

func decode(name string, payload []byte) ([]domain.GeocodeResult, error) {
	var places []place
	if err := json.Unmarshal(payload, &places); err != nil {
		return nil, transient(name, fmt.Errorf("malformed geocoder response: %w", err))
	}
	out := make([]domain.GeocodeResult, 0, len(places))
	for _, p := range places {
		class := p.Class
		if class == "" {
			class = p.Category
		}
		out = append(out, domain.GeocodeResult{
			Lon:         float64(p.Lon),
			Lat:         float64(p.Lat),
			Class:       class,
			Type:        p.Type,
			DisplayName: p.DisplayName,
		})
	}
	return out, nil
}

func transient(name string, err error) error {
	return &domain.TransientError{Op: "geocode", Name: name, Err: err}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
