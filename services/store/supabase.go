package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"sjsage522/leadworker/internal/lead"
	"sjsage522/leadworker/logger"
	apperrors "sjsage522/leadworker/pkg/errors"
)

const backendSupabase = "supabase"

// SupabaseStore talks to a Supabase table through its PostgREST API
type SupabaseStore struct {
	client *postgrest.Client
	table  string
	log    *logger.Logger
}

// leadRow is the record written on upsert
type leadRow struct {
	Niche       string      `json:"niche"`
	Location    string      `json:"location"`
	CompanyName string      `json:"company_name"`
	WebsiteURL  string      `json:"website_url"`
	Rating      *float64    `json:"rating"`
	ReviewCount *int        `json:"review_count"`
	Status      lead.Status `json:"status"`
	EngineUsed  string      `json:"engine_used"`
}

// NewSupabaseStore creates a store for table at the project baseURL
func NewSupabaseStore(baseURL, key, table string) (*SupabaseStore, error) {
	client := postgrest.NewClient(strings.TrimRight(baseURL, "/")+"/rest/v1", "", map[string]string{
		"apikey":        key,
		"Authorization": "Bearer " + key,
	})
	if client.ClientError != nil {
		return nil, apperrors.NewStore(backendSupabase, "invalid project URL", client.ClientError)
	}

	return &SupabaseStore{
		client: client,
		table:  table,
		log:    logger.ForStore(backendSupabase),
	}, nil
}

// Exists implements Store
func (s *SupabaseStore) Exists(ctx context.Context, websiteURL string) (bool, error) {
	q := s.client.From(s.table).
		Select("website_url", "", false).
		Eq("website_url", websiteURL).
		Limit(1, "")

	var rows []struct {
		WebsiteURL string `json:"website_url"`
	}
	if err := s.execute(ctx, "select", q, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// UpsertDiscovered implements Store
func (s *SupabaseStore) UpsertDiscovered(ctx context.Context, l lead.Lead) error {
	row := leadRow{
		Niche:       l.Niche,
		Location:    l.Location,
		CompanyName: l.CompanyName,
		WebsiteURL:  l.WebsiteURL,
		Rating:      l.Rating,
		ReviewCount: l.ReviewCount,
		Status:      l.Status,
		EngineUsed:  l.EngineUsed,
	}
	q := s.client.From(s.table).Upsert([]leadRow{row}, "website_url", "minimal", "")

	if err := s.execute(ctx, "upsert", q, nil); err != nil {
		return err
	}
	s.log.Debug().Str("website", l.WebsiteURL).Msg("Lead upserted")
	return nil
}

// ListByStatus implements Store
func (s *SupabaseStore) ListByStatus(ctx context.Context, status lead.Status, limit int) ([]lead.Lead, error) {
	q := s.client.From(s.table).
		Select("*", "", false).
		Eq("status", string(status)).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		q = q.Limit(limit, "")
	}

	var leads []lead.Lead
	if err := s.execute(ctx, "list", q, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// Close implements Store
func (s *SupabaseStore) Close() error {
	return nil
}

// execute runs q and decodes the response into out when it is non-nil.
// The client has no context support, so ctx only bounds the wait.
func (s *SupabaseStore) execute(ctx context.Context, op string, q *postgrest.FilterBuilder, out interface{}) error {
	type response struct {
		body []byte
		err  error
	}
	done := make(chan response, 1)
	go func() {
		body, _, err := q.Execute()
		done <- response{body: body, err: err}
	}()

	var r response
	select {
	case <-ctx.Done():
		return apperrors.NewStore(backendSupabase, op+" "+s.table, ctx.Err())
	case r = <-done:
	}
	if r.err != nil {
		return apperrors.NewStore(backendSupabase, op+" "+s.table, r.err)
	}

	if out == nil || len(r.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return apperrors.NewStore(backendSupabase, "decode response", err)
	}
	return nil
}
