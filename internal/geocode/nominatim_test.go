package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rsawant/fieldledger/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client at a test server and removes all waiting.
func newTestClient(serverURL string) *Client {
	c := NewClient(slog.Default())
	c.baseURL = serverURL
	c.sleep = func(time.Duration) {}
	return c
}

const mumbaiPayload = `{
	"display_name": "Bandra West, Mumbai, Maharashtra, India",
	"address": {
		"suburb": "Bandra West",
		"city": "Mumbai",
		"state": "Maharashtra",
		"country": "India"
	}
}`

func TestReverseGeocode(t *testing.T) {
	t.Run("resolves an address", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "19.076000", r.URL.Query().Get("lat"))
			assert.Equal(t, "72.877700", r.URL.Query().Get("lon"))
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Write([]byte(mumbaiPayload))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		addr := client.ReverseGeocode(context.Background(), 19.0760, 72.8777)

		require.NotNil(t, addr)
		assert.Equal(t, "Bandra West, Mumbai", addr.ShortAddress)
		assert.Equal(t, "Mumbai", addr.City)
		assert.Equal(t, "Bandra West", addr.Area)
		assert.Equal(t, "Maharashtra", addr.State)
		assert.Equal(t, "India", addr.Country)
		assert.Equal(t, service.AccuracyHigh, addr.Accuracy)
	})

	t.Run("rejects out-of-range coordinates without a request", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		assert.Nil(t, client.ReverseGeocode(context.Background(), 91, 0))
		assert.Nil(t, client.ReverseGeocode(context.Background(), -91, 0))
		assert.Nil(t, client.ReverseGeocode(context.Background(), 0, 181))
		assert.Nil(t, client.ReverseGeocode(context.Background(), 0, -181))
		assert.Zero(t, hits.Load())
	})

	t.Run("retries rate limiting then succeeds", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(mumbaiPayload))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		addr := client.ReverseGeocode(context.Background(), 19.0760, 72.8777)

		require.NotNil(t, addr)
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("gives up after repeated rate limiting", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		assert.Nil(t, client.ReverseGeocode(context.Background(), 19.0760, 72.8777))
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("server errors are not retried", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		assert.Nil(t, client.ReverseGeocode(context.Background(), 19.0760, 72.8777))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("malformed payload returns nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		assert.Nil(t, client.ReverseGeocode(context.Background(), 19.0760, 72.8777))
	})
}

func TestThrottle(t *testing.T) {
	t.Run("waits out the one second gap", func(t *testing.T) {
		current := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
		var slept time.Duration

		client := NewClient(slog.Default())
		client.now = func() time.Time { return current }
		client.sleep = func(d time.Duration) { slept += d }

		client.throttle()
		assert.Zero(t, slept) // first request, lastRequest is the zero time

		current = current.Add(300 * time.Millisecond)
		client.throttle()
		assert.Equal(t, 700*time.Millisecond, slept)
	})

	t.Run("no wait after the gap has passed", func(t *testing.T) {
		current := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
		var slept time.Duration

		client := NewClient(slog.Default())
		client.now = func() time.Time { return current }
		client.sleep = func(d time.Duration) { slept += d }

		client.throttle()
		current = current.Add(2 * time.Second)
		client.throttle()
		assert.Zero(t, slept)
	})
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name         string
		payload      nominatimResponse
		wantShort    string
		wantAccuracy service.GeocodeAccuracy
	}{
		{
			name: "area and city",
			payload: func() nominatimResponse {
				var p nominatimResponse
				p.Address.Suburb = "Bandra West"
				p.Address.City = "Mumbai"
				return p
			}(),
			wantShort:    "Bandra West, Mumbai",
			wantAccuracy: service.AccuracyHigh,
		},
		{
			name: "town stands in for city",
			payload: func() nominatimResponse {
				var p nominatimResponse
				p.Address.Town = "Lonavala"
				return p
			}(),
			wantShort:    "Lonavala",
			wantAccuracy: service.AccuracyMedium,
		},
		{
			name: "area only",
			payload: func() nominatimResponse {
				var p nominatimResponse
				p.Address.Neighbourhood = "Sector 12"
				return p
			}(),
			wantShort:    "Sector 12",
			wantAccuracy: service.AccuracyLow,
		},
		{
			name: "display name fallback",
			payload: func() nominatimResponse {
				var p nominatimResponse
				p.DisplayName = "Somewhere remote, India"
				return p
			}(),
			wantShort:    "Somewhere remote, India",
			wantAccuracy: service.AccuracyLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := parseAddress(tt.payload)
			assert.Equal(t, tt.wantShort, addr.ShortAddress)
			assert.Equal(t, tt.wantAccuracy, addr.Accuracy)
		})
	}
}
