package sdk

import (
	"context"
	"errors"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/kailas-cloud/estemplate/internal/db"
	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/batch"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	renderuc "github.com/kailas-cloud/estemplate/internal/usecase/render"
)

// --- db.Store mock ---

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	pingErr error
	closed  bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) Close() { m.closed = true }

func (m *memStore) WaitForReady(context.Context, time.Duration) error { return m.pingErr }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *memStore) SetMulti(ctx context.Context, items []db.SetItem) error {
	for _, it := range items {
		if err := m.Set(ctx, it.Key, it.Value); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return db.ErrKeyNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// --- renderUseCase mock ---

var errMock = errors.New("mock failure")

type mockRenderUC struct {
	mappingFn  func(ctx context.Context, name, role string, timestamp bool) (mapping.Mapping, error)
	templateFn func(ctx context.Context, name, title, role, docType string) (*mapping.Template, error)
	publishFn  func(ctx context.Context, name, title, role, docType string) (domain.PublishedTemplate, error)
}

func (m *mockRenderUC) Documents() []renderuc.DocumentInfo { return nil }

func (m *mockRenderUC) Mapping(ctx context.Context, name, role string, timestamp bool) (mapping.Mapping, error) {
	return m.mappingFn(ctx, name, role, timestamp)
}

func (m *mockRenderUC) Template(ctx context.Context, name, title, role, docType string) (*mapping.Template, error) {
	return m.templateFn(ctx, name, title, role, docType)
}

func (m *mockRenderUC) Publish(
	ctx context.Context, name, title, role, docType string,
) (domain.PublishedTemplate, error) {
	return m.publishFn(ctx, name, title, role, docType)
}

func (m *mockRenderUC) PublishRoles(context.Context, string, string, []string, string) ([]batch.Result, error) {
	return nil, errMock
}

func (m *mockRenderUC) Published(context.Context, string) (domain.PublishedTemplate, error) {
	return domain.PublishedTemplate{}, errMock
}

func (m *mockRenderUC) ListPublished(context.Context) ([]domain.PublishedTemplate, error) {
	return nil, errMock
}

func (m *mockRenderUC) Unpublish(context.Context, string) error { return errMock }
