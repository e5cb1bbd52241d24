package store

import (
	"context"
	"sync"
	"time"

	"sjsage522/leadworker/internal/lead"
	"sjsage522/leadworker/services/cache"
	"sjsage522/leadworker/services/publisher"
)

// MockStore is an in-memory Store
type MockStore struct {
	mu          sync.Mutex
	leads       map[string]lead.Lead
	existsCalls int
	existsErr   error
	upsertErr   error
}

var _ Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{leads: make(map[string]lead.Lead)}
}

func (m *MockStore) Exists(ctx context.Context, websiteURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.leads[websiteURL]
	return ok, nil
}

func (m *MockStore) UpsertDiscovered(ctx context.Context, l lead.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.leads[l.WebsiteURL] = l
	return nil
}

func (m *MockStore) ListByStatus(ctx context.Context, status lead.Status, limit int) ([]lead.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []lead.Lead
	for _, l := range m.leads {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *MockStore) Close() error {
	return nil
}

// MockCache is an in-memory CacheService
type MockCache struct {
	mu     sync.Mutex
	items  map[string][]byte
	getErr error
	setErr error
}

var _ cache.CacheService = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.items[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (m *MockCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.items[key] = value
	return nil
}

// MockPublisher records published messages
type MockPublisher struct {
	mu         sync.Mutex
	messages   map[string][][]byte
	publishErr error
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	m.messages[key] = append(m.messages[key], messageCopy)
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}
