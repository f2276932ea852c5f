// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"
)

// Store is the append-only persistence collaborator. Rows are fully formed
// by the caller; company selects the partition (one spreadsheet per
// company). A false return means the append failed; no error propagates.
type Store interface {
	Append(ctx context.Context, row []any, company string) bool
}

// GeocodeAccuracy grades how precise a reverse-geocoded address is.
type GeocodeAccuracy string

// Accuracy levels.
const (
	AccuracyHigh   GeocodeAccuracy = "high"
	AccuracyMedium GeocodeAccuracy = "medium"
	AccuracyLow    GeocodeAccuracy = "low"
)

// Address is the result of a reverse-geocode lookup.
type Address struct {
	ShortAddress string
	City         string
	Area         string
	State        string
	Country      string
	Accuracy     GeocodeAccuracy
}

// Geocoder resolves GPS coordinates to a readable address. A nil result
// means the lookup failed and the caller should fall back to a
// coordinate string.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) *Address
}

// Registry answers company-registration questions for a Telegram user.
// Read-only from the pipeline's perspective.
type Registry interface {
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	Company(ctx context.Context, userID int64) (string, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
