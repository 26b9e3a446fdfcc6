// Package dmi fetches the hourly point forecast from the DMI NinJo feed.
package dmi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/dmi-forecast/internal/forecast"
)

// DefaultBaseURL is the NinJo endpoint serving dmi.dk's city forecasts.
const DefaultBaseURL = "https://www.dmi.dk/NinJo2DmiDk/ninjo2dmidk"

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrCircuitOpen      = errors.New("circuit breaker open")
	errNoHTTPClient     = errors.New("http client not configured")
)

// Config selects the area and how its points are parsed.
type Config struct {
	BaseURL string
	AreaID  int
	Parser  forecast.Parser
}

// Client implements weather.Provider for a single DMI area.
type Client struct {
	name    string
	client  *http.Client
	cfg     Config
	circuit *gobreaker.CircuitBreaker
}

// envelope is the top-level llj response; only the series is used.
type envelope struct {
	Timeserie []forecast.Record `json:"timeserie"`
}

func NewClient(client *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dmi",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Client{
		name:    "dmi",
		client:  client,
		cfg:     cfg,
		circuit: cb,
	}
}

func (c *Client) Name() string {
	return c.name
}

// Area returns the DMI area id this client fetches.
func (c *Client) Area() int {
	return c.cfg.AreaID
}

// Fetch downloads the current forecast and builds a Forecast from its series.
func (c *Client) Fetch(ctx context.Context) (*forecast.Forecast, error) {
	if c.client == nil {
		return nil, errNoHTTPClient
	}

	values := url.Values{}
	values.Set("cmd", "llj")
	values.Set("id", strconv.Itoa(c.cfg.AreaID))
	u := fmt.Sprintf("%s?%s", c.cfg.BaseURL, values.Encode())

	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}

		var payload envelope
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("dmi decode: %w", err)
		}
		return payload.Timeserie, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, fmt.Errorf("dmi request failed: %w", err)
	}

	records, ok := result.([]forecast.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	f, err := forecast.New(records, c.cfg.Parser)
	if err != nil {
		return nil, fmt.Errorf("dmi area %d: %w", c.cfg.AreaID, err)
	}
	return f, nil
}
