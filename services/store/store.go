// Package store persists discovered leads. Every backend is keyed by the
// normalized website URL.
package store

import (
	"context"

	"sjsage522/leadworker/internal/lead"
)

// Store is a persistent lead store
type Store interface {
	// Exists reports whether a lead with the website URL is stored
	Exists(ctx context.Context, websiteURL string) (bool, error)

	// UpsertDiscovered inserts the lead or updates the one with the same website URL
	UpsertDiscovered(ctx context.Context, l lead.Lead) error

	// ListByStatus returns up to limit leads with the status, newest first.
	// A limit of zero or less returns every match.
	ListByStatus(ctx context.Context, status lead.Status, limit int) ([]lead.Lead, error)

	// Close releases the backend
	Close() error
}
