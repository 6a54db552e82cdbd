package templatestore

import (
	"context"
	"path"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estemplate/internal/db"
)

// mockKVStore is an in-memory implementation of the consumer interface.
type mockKVStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	scanFn func(pattern string) ([]string, error)
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockKVStore) SetMulti(ctx context.Context, items []db.SetItem) error {
	if m.setErr != nil {
		return m.setErr
	}
	for _, it := range items {
		m.data[it.Key] = it.Value
	}
	return nil
}

func (m *mockKVStore) Del(_ context.Context, key string) error {
	if _, ok := m.data[key]; !ok {
		return db.ErrKeyNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(pattern)
	}
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockKVStore) {
	t.Helper()
	ms := newMockKVStore()
	return New(ms, "test:", nil, zap.NewNop()), ms
}
