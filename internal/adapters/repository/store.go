// Package repository stores raw athlete documents as fetched from upstream.
// Documents are kept verbatim; normalization happens in the domain layer.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/athletix/pkg/metrics"
)

// Kind tells genetic documents from biometric ones.
type Kind string

const (
	KindGenetic   Kind = "genetic"
	KindBiometric Kind = "biometric"
)

// Store provides read/write access to raw athlete documents.
type Store interface {
	// AppendGenetic appends genetic documents for an athlete.
	AppendGenetic(ctx context.Context, athleteID string, docs []json.RawMessage) error
	// Genetic returns an athlete's genetic documents in insertion order.
	// Returns ErrNotFound if there are none.
	Genetic(ctx context.Context, athleteID string) ([]json.RawMessage, error)

	// AppendBiometrics appends biometric documents for an athlete.
	AppendBiometrics(ctx context.Context, athleteID string, docs []json.RawMessage) error
	// Biometrics returns an athlete's biometric documents in insertion order.
	// Returns ErrNotFound if there are none.
	Biometrics(ctx context.Context, athleteID string) ([]json.RawMessage, error)
	// AllBiometrics returns every biometric document of every athlete.
	AllBiometrics(ctx context.Context) ([]json.RawMessage, error)

	// Athletes lists athlete IDs that have at least one document, sorted.
	Athletes(ctx context.Context) ([]string, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) int

	Close() error
}

// Open builds the store selected by driver.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func athleteKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidAthlete
	}
	return id, nil
}

// observe records the latency of a store operation started at start.
func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && *err != nil && !errors.Is(*err, ErrNotFound) {
		metrics.RecordStoreError(op)
	}
}
