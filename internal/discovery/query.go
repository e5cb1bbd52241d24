package discovery

import (
	"fmt"
	"strings"

	apperrors "sjsage522/leadworker/pkg/errors"
)

// Query is one crawl request: find Target new leads for a niche in a location
type Query struct {
	Niche    string
	Location string
	Target   int
}

// SearchText is the text typed into the search surface
func (q Query) SearchText() string {
	return BuildQuery(q.Niche, q.Location)
}

// Validate rejects queries that cannot drive a crawl
func (q Query) Validate() error {
	if strings.TrimSpace(q.Niche) == "" {
		return apperrors.NewValidation("niche must be a non-empty string")
	}
	if strings.TrimSpace(q.Location) == "" {
		return apperrors.NewValidation("location must be a non-empty string")
	}
	if q.Target <= 0 {
		return apperrors.NewValidation(fmt.Sprintf("limit must be a positive integer, got %d", q.Target))
	}
	return nil
}

// BuildQuery composes the search text for a niche and location
func BuildQuery(niche, location string) string {
	return fmt.Sprintf("%s in %s", strings.TrimSpace(niche), strings.TrimSpace(location))
}
