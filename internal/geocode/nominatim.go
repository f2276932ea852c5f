// Package geocode resolves GPS coordinates to readable addresses via the
// OpenStreetMap Nominatim API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rsawant/fieldledger/internal/service"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org/reverse"
	userAgent      = "fieldledger/1.0 (Telegram Bot)"
	requestTimeout = 10 * time.Second
	maxAttempts    = 3

	// Nominatim's usage policy allows at most one request per second.
	minRequestGap = time.Second
)

// Client is a Nominatim reverse geocoder. It self-limits to one request
// per second and implements the Geocoder interface.
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	now         func() time.Time
	sleep       func(time.Duration)
	baseURL     string
	lastRequest time.Time
	mu          sync.Mutex
}

// NewClient creates a Nominatim geocoder.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// nominatimResponse is the subset of the reverse-geocode payload we use.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		Municipality  string `json:"municipality"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		Quarter       string `json:"quarter"`
		District      string `json:"district"`
		State         string `json:"state"`
		Province      string `json:"province"`
		Country       string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to an address. It returns nil when
// every attempt fails; callers fall back to a raw coordinate string.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) *service.Address {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.logger.Warn("invalid coordinates", "lat", lat, "lon", lon)
		return nil
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.throttle()

		addr, retryable, err := c.lookup(ctx, lat, lon)
		if err == nil {
			return addr
		}

		if !retryable || attempt == maxAttempts {
			c.logger.Warn("reverse geocode failed",
				"lat", lat, "lon", lon, "attempt", attempt, "error", err)
			return nil
		}

		c.logger.Debug("retrying reverse geocode",
			"lat", lat, "lon", lon, "attempt", attempt, "error", err)
		c.sleep(time.Duration(attempt) * time.Second)
	}

	return nil
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) (addr *service.Address, retryable bool, err error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("zoom", "18")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("nominatim rate limited")
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var payload nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	return parseAddress(payload), false, nil
}

// throttle enforces the one-request-per-second gap.
func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := c.now().Sub(c.lastRequest)
	if elapsed < minRequestGap {
		c.sleep(minRequestGap - elapsed)
	}
	c.lastRequest = c.now()
}

// parseAddress maps the Nominatim payload onto an Address, preferring the
// most specific locality names available.
func parseAddress(payload nominatimResponse) *service.Address {
	a := payload.Address

	city := firstNonEmpty(a.City, a.Town, a.Village, a.Municipality)
	area := firstNonEmpty(a.Suburb, a.Neighbourhood, a.Quarter, a.District)
	state := firstNonEmpty(a.State, a.Province)

	short := city
	if area != "" && city != "" {
		short = area + ", " + city
	} else if area != "" {
		short = area
	}
	if short == "" {
		short = payload.DisplayName
	}

	return &service.Address{
		ShortAddress: short,
		City:         city,
		Area:         area,
		State:        state,
		Country:      a.Country,
		Accuracy:     classifyAccuracy(city, area),
	}
}

func classifyAccuracy(city, area string) service.GeocodeAccuracy {
	switch {
	case city != "" && area != "":
		return service.AccuracyHigh
	case city != "":
		return service.AccuracyMedium
	default:
		return service.AccuracyLow
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
