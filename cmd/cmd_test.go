package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/helpers"
	"sjsage522/leadworker/internal/browser"
	"sjsage522/leadworker/internal/discovery"
	"sjsage522/leadworker/internal/lead"
	apperrors "sjsage522/leadworker/pkg/errors"
	"sjsage522/leadworker/services/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJob(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		niche    string
		location string
		target   int
		wantErr  bool
	}{
		{name: "full", arg: "dentists:Austin, TX:10", niche: "dentists", location: "Austin, TX", target: 10},
		{name: "default limit", arg: "plumbers:Denver", niche: "plumbers", location: "Denver", target: 10},
		{name: "colon in location", arg: "cafes:Paris: 11e arrondissement:3", niche: "cafes", location: "Paris: 11e arrondissement", target: 3},
		{name: "trims spaces", arg: " roofers : Miami : 5 ", niche: "roofers", location: "Miami", target: 5},
		{name: "no separator", arg: "dentists", wantErr: true},
		{name: "empty niche", arg: ":Austin:5", wantErr: true},
		{name: "empty location", arg: "dentists::5", wantErr: true},
		{name: "zero limit", arg: "dentists:Austin:0", wantErr: true},
		{name: "negative limit", arg: "dentists:Austin:-2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := parseJob(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.niche, job.Query.Niche)
			assert.Equal(t, tt.location, job.Query.Location)
			assert.Equal(t, tt.target, job.Query.Target)
		})
	}
}

func TestParseJobs(t *testing.T) {
	jobs, err := parseJobs([]string{"dentists:Austin:2", "plumbers:Denver:4"})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "plumbers in Denver", jobs[1].Query.SearchText())

	_, err = parseJobs(nil)
	assert.Error(t, err)

	_, err = parseJobs([]string{"dentists:Austin:2", "broken"})
	assert.Error(t, err)
}

func testConfig(t *testing.T, searchURL string) *config.Config {
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "leads.db")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("MEMCACHE_ADDR", "")
	t.Setenv("SEARCH_URL", searchURL)
	return config.LoadConfig()
}

func TestPreflight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div id="app">Maps</div></body></html>`))
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	q := discovery.Query{Niche: "dentists", Location: "Austin", Target: 5}

	assert.NoError(t, preflight(context.Background(), cfg, q, true))
}

func TestPreflightRejectsInput(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	err := preflight(context.Background(), cfg, discovery.Query{Niche: "", Location: "Austin", Target: 5}, true)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	err = preflight(context.Background(), cfg, discovery.Query{Niche: "dentists", Location: "Austin", Target: 0}, true)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestPreflightMissingCredentials(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.StoreBackend = config.BackendSupabase
	cfg.SupabaseURL = ""
	cfg.SupabaseKey = ""

	err := preflight(context.Background(), cfg, discovery.Query{Niche: "dentists", Location: "Austin", Target: 5}, false)
	assert.ErrorContains(t, err, "store credentials")
}

func TestPreflightBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Our systems have detected unusual traffic from your computer network.</body></html>`))
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	err := preflight(context.Background(), cfg, discovery.Query{Niche: "dentists", Location: "Austin", Target: 5}, true)

	assert.ErrorIs(t, err, helpers.ErrBlocked)
}

func TestPreflightSkipConnectivity(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	err := preflight(context.Background(), cfg, discovery.Query{Niche: "dentists", Location: "Austin", Target: 5}, false)
	assert.NoError(t, err)
}

func TestNewLauncher(t *testing.T) {
	l, err := newLauncher(config.EngineChromedp)
	require.NoError(t, err)
	assert.Equal(t, lead.EngineChromedp, l.Engine())

	l, err = newLauncher(config.EngineRod)
	require.NoError(t, err)
	assert.Equal(t, lead.EngineRod, l.Engine())
	assert.IsType(t, &browser.RodLauncher{}, l)

	_, err = newLauncher("playwright")
	assert.Error(t, err)
}

func TestDiscoveryOptions(t *testing.T) {
	cfg := testConfig(t, "https://maps.example")
	cfg.Headless = false
	cfg.NavigationTimeout = 45 * time.Second
	cfg.ScrollDelayMin = time.Second
	cfg.ScrollDelayMax = 3 * time.Second
	cfg.MaxStaleScrolls = 7

	opts := discoveryOptions(cfg)

	assert.Equal(t, "https://maps.example", opts.SearchURL)
	assert.False(t, opts.Headless)
	assert.Equal(t, 45*time.Second, opts.NavigationTimeout)
	assert.Equal(t, discovery.RandomDelay{Min: time.Second, Max: 3 * time.Second}, opts.ScrollDelay)
	assert.Equal(t, 7, opts.MaxStaleScrolls)
	assert.Equal(t, cfg.ScreenshotPath, opts.ScreenshotPath)
}

func TestRenderLeads(t *testing.T) {
	var buf bytes.Buffer
	renderLeads(&buf, []lead.Lead{
		lead.NewDiscovered("dentists", "Austin", "Acme Dental", "https://acme.example", lead.EngineRod),
		lead.NewDiscovered("dentists", "Austin", "Bright Smiles", "https://bright.example", lead.EngineRod),
	})

	out := buf.String()
	assert.Contains(t, out, "Acme Dental")
	assert.Contains(t, out, "https://bright.example")
	assert.Contains(t, out, "google_maps_rod")
	assert.Contains(t, out, "2")
}

func TestRenderResults(t *testing.T) {
	q := discovery.Query{Niche: "dentists", Location: "Austin", Target: 5}
	var buf bytes.Buffer
	renderResults(&buf, []worker.JobResult{
		{Job: worker.Job{Query: q}, Result: discovery.Result{Accepted: 5, Outcome: discovery.OutcomeSuccess}},
		{Job: worker.Job{Query: q}, Result: discovery.Result{Outcome: discovery.OutcomeError, Err: errors.New("search box not found")}},
	})

	out := buf.String()
	assert.Contains(t, out, "dentists in Austin")
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "search box not found")
}

func TestCountFailed(t *testing.T) {
	results := []worker.JobResult{
		{Result: discovery.Result{Outcome: discovery.OutcomeError}},
		{Result: discovery.Result{Outcome: discovery.OutcomeExhausted}},
	}
	assert.Equal(t, 1, countFailed(results))
}
