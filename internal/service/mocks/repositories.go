package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/SergeiKhy/campaign-dashboard/internal/repository"
)

// MockStateRepository implements repository.StateRepository for testing
type MockStateRepository struct {
	mu       sync.RWMutex
	snapshot *engine.Snapshot
	saves    int
	failures int // сколько ближайших Save вернут SaveErr
	SaveErr  error
}

func NewMockStateRepository() *MockStateRepository {
	return &MockStateRepository{}
}

func (m *MockStateRepository) Save(ctx context.Context, snap engine.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.failures > 0 {
		m.failures--
		return m.SaveErr
	}
	if m.snapshot != nil && m.snapshot.Version >= snap.Version {
		return repository.ErrStaleSnapshot
	}
	m.snapshot = &snap
	return nil
}

func (m *MockStateRepository) Load(ctx context.Context) (engine.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot == nil {
		return engine.Snapshot{}, repository.ErrSnapshotNotFound
	}
	return *m.snapshot, nil
}

// FailNext заставляет следующие n вызовов Save вернуть err
func (m *MockStateRepository) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
	m.SaveErr = err
}

// Stored последний принятый снимок
func (m *MockStateRepository) Stored() (engine.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return engine.Snapshot{}, false
	}
	return *m.snapshot, true
}

func (m *MockStateRepository) SaveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// MockViewCache implements repository.ViewCache for testing
type MockViewCache struct {
	mu    sync.RWMutex
	views map[string]models.DashboardView
	hits  int
}

func NewMockViewCache() *MockViewCache {
	return &MockViewCache{views: make(map[string]models.DashboardView)}
}

func (m *MockViewCache) Get(ctx context.Context, epoch string, version uint64, sel models.Selection) (*models.DashboardView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	view, exists := m.views[repository.ViewKey(epoch, version, sel)]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	m.hits++
	return &view, nil
}

func (m *MockViewCache) Set(ctx context.Context, view *models.DashboardView, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[repository.ViewKey(view.Epoch, view.Version, view.Selection)] = *view
	return nil
}

func (m *MockViewCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.views)
}

func (m *MockViewCache) Hits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits
}
