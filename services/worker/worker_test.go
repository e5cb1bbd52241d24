package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sjsage522/leadworker/internal/discovery"
	apperrors "sjsage522/leadworker/pkg/errors"
	"sjsage522/leadworker/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRunner implements Runner for testing
type MockRunner struct {
	mu       sync.Mutex
	queries  []discovery.Query
	accepted map[string]int
	failures map[string]error
	delay    time.Duration

	active    int32
	maxActive int32
}

var _ Runner = (*MockRunner)(nil)

func NewMockRunner() *MockRunner {
	return &MockRunner{
		accepted: make(map[string]int),
		failures: make(map[string]error),
	}
}

func (m *MockRunner) Crawl(ctx context.Context, q discovery.Query) discovery.Result {
	n := atomic.AddInt32(&m.active, 1)
	defer atomic.AddInt32(&m.active, -1)
	for {
		cur := atomic.LoadInt32(&m.maxActive)
		if n <= cur || atomic.CompareAndSwapInt32(&m.maxActive, cur, n) {
			break
		}
	}

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)

	if err := m.failures[q.Niche]; err != nil {
		return discovery.Result{Query: q, Outcome: discovery.OutcomeError, Err: err}
	}
	return discovery.Result{Query: q, Accepted: m.accepted[q.Niche], Outcome: discovery.OutcomeSuccess}
}

func (m *MockRunner) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// MockPublisher implements publisher.Publisher for testing
type MockPublisher struct {
	mu       sync.Mutex
	trims    int
	trimErr  error
	messages map[string][][]byte
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[key] = append(m.messages[key], message)
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return m.trimErr
}

func (m *MockPublisher) Close() error {
	return nil
}

func (m *MockPublisher) trimCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trims
}

func jobs(niches ...string) []Job {
	out := make([]Job, 0, len(niches))
	for _, n := range niches {
		out = append(out, Job{Query: discovery.Query{Niche: n, Location: "Austin", Target: 3}})
	}
	return out
}

func TestWorkerRunOnce(t *testing.T) {
	runner := NewMockRunner()
	runner.accepted["dentists"] = 3
	runner.accepted["plumbers"] = 1
	pub := NewMockPublisher()

	w := NewWorker(context.Background(), runner, jobs("dentists", "plumbers"), pub, 2, 0)
	results := w.RunOnce()

	require.Len(t, results, 2)
	assert.Equal(t, "dentists", results[0].Job.Query.Niche)
	assert.Equal(t, 3, results[0].Result.Accepted)
	assert.Equal(t, "plumbers", results[1].Job.Query.Niche)
	assert.Equal(t, 1, results[1].Result.Accepted)
	assert.Equal(t, 4, totalAccepted(results))
	assert.Equal(t, 1, pub.trimCount())
}

func TestWorkerRunOnceIsolatesFailures(t *testing.T) {
	runner := NewMockRunner()
	runner.accepted["plumbers"] = 2
	runner.failures["dentists"] = errors.New("search box not found")

	w := NewWorker(context.Background(), runner, jobs("dentists", "plumbers"), NewMockPublisher(), 2, 0)
	results := w.RunOnce()

	require.Len(t, results, 2)
	assert.Equal(t, discovery.OutcomeError, results[0].Result.Outcome)
	assert.EqualError(t, results[0].Result.Err, "search box not found")
	assert.Equal(t, discovery.OutcomeSuccess, results[1].Result.Outcome)
	assert.Equal(t, 2, results[1].Result.Accepted)
}

func TestWorkerRespectsConcurrency(t *testing.T) {
	runner := NewMockRunner()
	runner.delay = 20 * time.Millisecond

	w := NewWorker(context.Background(), runner, jobs("a", "b", "c", "d", "e"), nil, 2, 0)
	results := w.RunOnce()

	assert.Len(t, results, 5)
	assert.Equal(t, 5, runner.calls())
	assert.LessOrEqual(t, atomic.LoadInt32(&runner.maxActive), int32(2))
}

func TestWorkerNilPublisher(t *testing.T) {
	runner := NewMockRunner()
	w := NewWorker(context.Background(), runner, jobs("dentists"), nil, 0, 0)

	assert.NotPanics(t, func() { w.RunOnce() })
	assert.Equal(t, 1, w.concurrency)
}

func TestWorkerTrimErrorDoesNotFailCycle(t *testing.T) {
	runner := NewMockRunner()
	runner.accepted["dentists"] = 1
	pub := NewMockPublisher()
	pub.trimErr = errors.New("connection refused")

	w := NewWorker(context.Background(), runner, jobs("dentists"), pub, 1, 0)
	results := w.RunOnce()

	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Result.Accepted)
}

func TestWorkerCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewMockRunner()
	w := NewWorker(ctx, runner, jobs("a", "b", "c"), nil, 1, 0)
	results := w.RunOnce()

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, jobs("a", "b", "c")[i].Query, r.Job.Query)
		assert.Equal(t, discovery.OutcomeError, r.Result.Outcome)
		assert.ErrorIs(t, r.Result.Err, context.Canceled)
	}
	assert.Equal(t, 0, runner.calls())
}

func TestWorkerLogsFatalSetupFailures(t *testing.T) {
	runner := NewMockRunner()
	runner.failures["dentists"] = apperrors.NewFatalSetup("google_maps_mock", "search input not found", errors.New("timeout"))
	runner.failures["plumbers"] = apperrors.NewBrowser("google_maps_mock", "scroll failed", errors.New("target closed"))

	w := NewWorker(context.Background(), runner, jobs("dentists", "plumbers"), nil, 2, 0)
	results := w.RunOnce()

	require.Len(t, results, 2)
	assert.True(t, apperrors.IsType(results[0].Result.Err, apperrors.ErrorTypeFatalSetup))
	assert.True(t, apperrors.IsType(results[1].Result.Err, apperrors.ErrorTypeBrowser))
}

func TestWorkerStartSingleCycle(t *testing.T) {
	runner := NewMockRunner()
	pub := NewMockPublisher()

	w := NewWorker(context.Background(), runner, jobs("dentists"), pub, 1, 0)
	results := w.Start()

	assert.Len(t, results, 1)
	assert.Equal(t, 1, runner.calls())
	assert.Equal(t, 1, pub.trimCount())
}

func TestWorkerStartRepeatsUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewMockRunner()
	pub := NewMockPublisher()

	w := NewWorker(ctx, runner, jobs("dentists"), pub, 1, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	assert.Eventually(t, func() bool { return runner.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.GreaterOrEqual(t, pub.trimCount(), 2)
}
