// Package streaming implements the streaming service the registry loads
// through: blocking resolution, asynchronous batch loads with an
// exactly-once aggregate completion signal, and a resident-asset cache
// whose reclamation timing stays with the cache janitor.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/cachemanager"
	"github.com/zjrosen/cachebox/internal/catalog"
	"github.com/zjrosen/cachebox/internal/log"
	"github.com/zjrosen/cachebox/internal/pubsub"
)

// ErrManagerClosed is returned when loading through a closed manager.
var ErrManagerClosed = errors.New("streaming manager is closed")

// Config holds configuration for the streaming manager.
type Config struct {
	// Source resolves paths to catalog entries. Required.
	Source catalog.Source

	// Classes receives classes materialized from class entries.
	// A fresh set is created when nil.
	Classes *asset.ClassSet

	// ReleaseTTL is how long a released asset stays resident before the
	// cache janitor may reclaim it (default: cachemanager.DefaultExpiration).
	ReleaseTTL time.Duration

	// CleanupInterval is the cache janitor period
	// (default: cachemanager.DefaultCleanupInterval).
	CleanupInterval time.Duration
}

// Manager resolves soft paths to live objects. Loaded assets are pinned
// resident until released; released assets expire on the janitor's clock.
type Manager struct {
	source     catalog.Source
	classes    *asset.ClassSet
	resident   *cachemanager.InMemoryCacheManager[asset.Object]
	releaseTTL time.Duration
	broker     *pubsub.Broker[LoadEvent]
	tracer     trace.Tracer
	wg         sync.WaitGroup
	mu         sync.Mutex // orders Close against batch submission
	closed     atomic.Bool
}

// NewManager creates a streaming manager over the given source.
func NewManager(cfg Config) *Manager {
	if cfg.Classes == nil {
		cfg.Classes = asset.NewClassSet()
	}
	if cfg.ReleaseTTL <= 0 {
		cfg.ReleaseTTL = cachemanager.DefaultExpiration
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = cachemanager.DefaultCleanupInterval
	}

	return &Manager{
		source:     cfg.Source,
		classes:    cfg.Classes,
		resident:   cachemanager.NewInMemoryCacheManager[asset.Object]("resident-assets", cfg.ReleaseTTL, cfg.CleanupInterval),
		releaseTTL: cfg.ReleaseTTL,
		broker:     pubsub.NewBroker[LoadEvent](),
		tracer:     otel.Tracer("cachebox/streaming"),
	}
}

// LoadBlocking resolves a path synchronously, blocking the caller until
// the asset is resident. Resolution failures are published and returned.
func (m *Manager) LoadBlocking(ctx context.Context, path asset.Path) (asset.Object, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	if path.IsNull() {
		return nil, asset.ErrNullReference
	}

	ctx, span := m.tracer.Start(ctx, "stream.load_blocking",
		trace.WithAttributes(attribute.String("asset.path", path.String())))
	defer span.End()

	if obj, ok := m.resident.Get(ctx, path.String()); ok {
		// The entry may be sitting on the release TTL after an earlier
		// Release; loading it again pins it.
		m.resident.SetPinned(ctx, path.String(), obj)
		return obj, nil
	}

	entry, err := m.source.Resolve(ctx, path)
	if err != nil {
		log.ErrorErr(log.CatStream, "Failed to resolve path", err, "path", path)
		m.broker.Publish(pubsub.FailedEvent, LoadEvent{Path: path, Err: err})
		return nil, err
	}

	obj, err := m.materialize(entry)
	if err != nil {
		log.ErrorErr(log.CatStream, "Failed to materialize entry", err, "path", path)
		m.broker.Publish(pubsub.FailedEvent, LoadEvent{Path: path, Err: err})
		return nil, err
	}

	m.resident.SetPinned(ctx, path.String(), obj)
	log.Debug(log.CatStream, "Resolved path", "path", path, "name", obj.Name())
	m.broker.Publish(pubsub.ResolvedEvent, LoadEvent{Path: path, Name: obj.Name()})
	return obj, nil
}

// RequestAsyncLoad submits a batch of paths for background resolution.
// onComplete is invoked exactly once after every path has been attempted,
// successes and failures alike; for an empty batch it is invoked
// synchronously before RequestAsyncLoad returns. The caller never blocks
// on the resolution work itself.
func (m *Manager) RequestAsyncLoad(paths []asset.Path, onComplete func()) {
	if len(paths) == 0 {
		// Nothing will be attempted; the aggregate signal still fires once.
		if onComplete != nil {
			onComplete()
		}
		return
	}

	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
		return
	}

	batch := make([]asset.Path, len(paths))
	copy(batch, paths)

	m.wg.Add(1)
	m.mu.Unlock()
	go func() {
		defer m.wg.Done()

		ctx, span := m.tracer.Start(context.Background(), "stream.async_batch",
			trace.WithAttributes(attribute.Int("batch.size", len(batch))))
		defer span.End()

		for _, p := range batch {
			// Per-path failures were already published and logged;
			// the batch completes regardless.
			_, _ = m.LoadBlocking(ctx, p)
		}
		if onComplete != nil {
			onComplete()
		}
	}()
}

// Resolve returns the already-resident object for a path without
// touching the source.
func (m *Manager) Resolve(path asset.Path) (asset.Object, bool) {
	if path.IsNull() {
		return nil, false
	}
	return m.resident.Get(context.Background(), path.String())
}

// Release signals that the caller no longer needs the asset resident.
// The entry is demoted from pinned to the release TTL; reclamation timing
// stays with the cache janitor.
func (m *Manager) Release(path asset.Path) {
	if path.IsNull() {
		return
	}
	if m.resident.Demote(context.Background(), path.String(), m.releaseTTL) {
		log.Debug(log.CatStream, "Released path", "path", path, "ttl", m.releaseTTL)
		m.broker.Publish(pubsub.ReleasedEvent, LoadEvent{Path: path})
	}
}

// Flush drops every resident asset so subsequent loads re-resolve from
// the source. Used when the catalog manifest changes.
func (m *Manager) Flush() {
	_ = m.resident.Flush(context.Background())
	log.Info(log.CatStream, "Flushed resident assets")
	m.broker.Publish(pubsub.FlushedEvent, LoadEvent{})
}

// Broker returns the pub/sub broker for load events.
func (m *Manager) Broker() *pubsub.Broker[LoadEvent] {
	return m.broker
}

// Source returns the catalog source the manager resolves through.
func (m *Manager) Source() catalog.Source {
	return m.source
}

// Classes returns the class set populated by class-entry loads.
func (m *Manager) Classes() *asset.ClassSet {
	return m.classes
}

// Close waits for in-flight batches and shuts the manager down.
// After Close, loads fail with ErrManagerClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed.Swap(true) {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.wg.Wait()
	m.broker.Close()
}

// materialize turns a catalog entry into a live object.
func (m *Manager) materialize(entry catalog.Entry) (asset.Object, error) {
	switch entry.Kind {
	case catalog.KindClass:
		var parent *asset.Class
		if entry.Parent != "" {
			parent = m.classes.GetOrCreate(entry.Parent, nil)
		}
		return m.classes.GetOrCreate(entry.Name, parent), nil
	case catalog.KindObject:
		var class *asset.Class
		if entry.Class != "" {
			class = m.classes.GetOrCreate(entry.Class, nil)
		}
		return asset.NewResource(entry.Name, class, entry.Payload), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", catalog.ErrInvalidEntry, entry.Kind)
	}
}
