// Package templatestore keeps published index templates in a key-value store.
package templatestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estemplate/internal/db"
	"github.com/kailas-cloud/estemplate/internal/domain"
)

const keySegment = "template:"

// store is the consumer interface for the template repository (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMulti(ctx context.Context, items []db.SetItem) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores published templates as JSON records under {prefix}template:{name}.
type Repo struct {
	store   store
	prefix  string
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New creates a template repository.
// lookups is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(s store, keyPrefix string, lookups *prometheus.CounterVec, logger *zap.Logger) *Repo {
	return &Repo{
		store:   s,
		prefix:  keyPrefix + keySegment,
		lookups: lookups,
		logger:  logger,
	}
}

// Save writes or replaces a template record.
func (r *Repo) Save(ctx context.Context, t domain.PublishedTemplate) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template %q: %w", t.Name, err)
	}
	if err := r.store.Set(ctx, r.key(t.Name), data); err != nil {
		return fmt.Errorf("save template %q: %w", t.Name, err)
	}
	return nil
}

// SaveMulti writes several template records in one round trip.
func (r *Repo) SaveMulti(ctx context.Context, ts []domain.PublishedTemplate) error {
	if len(ts) == 0 {
		return nil
	}
	items := make([]db.SetItem, len(ts))
	for i, t := range ts {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal template %q: %w", t.Name, err)
		}
		items[i] = db.SetItem{Key: r.key(t.Name), Value: data}
	}
	if err := r.store.SetMulti(ctx, items); err != nil {
		return fmt.Errorf("save %d templates: %w", len(ts), err)
	}
	return nil
}

// Get returns a template record by name.
func (r *Repo) Get(ctx context.Context, name string) (domain.PublishedTemplate, error) {
	data, err := r.store.Get(ctx, r.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			r.inc("miss")
			return domain.PublishedTemplate{}, fmt.Errorf("template %q: %w", name, domain.ErrNotFound)
		}
		r.inc("error")
		return domain.PublishedTemplate{}, fmt.Errorf("get template %q: %w", name, err)
	}
	r.inc("hit")

	var t domain.PublishedTemplate
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.PublishedTemplate{}, fmt.Errorf("decode template %q: %w", name, err)
	}
	return t, nil
}

// List returns all template records sorted by name. Records that vanish or
// fail to decode between scan and read are skipped.
func (r *Repo) List(ctx context.Context) ([]domain.PublishedTemplate, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan templates: %w", err)
	}
	slices.Sort(keys)

	out := make([]domain.PublishedTemplate, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, r.prefix)
		t, err := r.Get(ctx, name)
		switch {
		case err == nil:
			out = append(out, t)
		case errors.Is(err, domain.ErrNotFound):
			continue
		case ctx.Err() != nil:
			return nil, fmt.Errorf("list templates: %w", ctx.Err())
		default:
			r.logger.Warn("Skipping unreadable template", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// Delete removes a template record.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if err := r.store.Del(ctx, r.key(name)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("template %q: %w", name, domain.ErrNotFound)
		}
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	return nil
}

func (r *Repo) key(name string) string {
	return r.prefix + name
}

func (r *Repo) inc(result string) {
	if r.lookups != nil {
		r.lookups.WithLabelValues(result).Inc()
	}
}
