package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/logging"
	"github.com/dd0wney/campusnav/pkg/metrics"
)

// Holder owns the snapshot that routing reads. Readers call Current and keep
// the returned pointer for the whole request; Reload and Publish replace it
// wholesale.
type Holder struct {
	current atomic.Pointer[Snapshot]
	store   Store
	opts    BuildOptions
	logger  logging.Logger
	metrics *metrics.Registry

	reloadMu sync.Mutex
}

// HolderOption configures a Holder
type HolderOption func(*Holder)

// WithLogger sets the logger used for reload events
func WithLogger(l logging.Logger) HolderOption {
	return func(h *Holder) { h.logger = l }
}

// WithMetrics records reloads and snapshot sizes
func WithMetrics(m *metrics.Registry) HolderOption {
	return func(h *Holder) { h.metrics = m }
}

// WithBuildOptions sets how loaded documents are validated
func WithBuildOptions(opts BuildOptions) HolderOption {
	return func(h *Holder) { h.opts = opts }
}

// NewHolder creates an empty holder backed by store
func NewHolder(store Store, opts ...HolderOption) *Holder {
	h := &Holder{
		store:  store,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.opts.Source == "" && store != nil {
		h.opts.Source = store.Kind()
	}
	return h
}

// Current returns the published snapshot, or nil before the first load
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Graph returns the published graph or ErrNotLoaded
func (h *Holder) Graph() (*campus.Graph, error) {
	s := h.current.Load()
	if s == nil {
		return nil, ErrNotLoaded
	}
	return s.Graph, nil
}

// Store returns the backing store
func (h *Holder) Store() Store { return h.store }

// Reload reads the store and swaps in the result. It reports false when the
// stored document has the fingerprint already published. A failed reload
// keeps the previous snapshot.
func (h *Holder) Reload(ctx context.Context) (bool, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	if h.store == nil {
		return false, fmt.Errorf("%w: holder has no store", ErrNotLoaded)
	}

	start := time.Now()
	doc, err := h.store.Load(ctx)
	if err != nil {
		h.reloadFailed(err)
		return false, err
	}

	fp, err := Fingerprint(doc)
	if err != nil {
		h.reloadFailed(err)
		return false, err
	}
	if cur := h.current.Load(); cur != nil && cur.Fingerprint == fp {
		h.logger.Debug("snapshot unchanged", logging.Fingerprint(fp))
		if h.metrics != nil {
			h.metrics.RecordSnapshotReload("unchanged")
		}
		return false, nil
	}

	snap, err := Build(doc, h.opts)
	if err != nil {
		h.reloadFailed(err)
		return false, err
	}
	h.swap(snap, time.Since(start))
	return true, nil
}

// Publish validates doc, saves it to the store and swaps it in. Nothing is
// saved or swapped when validation fails.
func (h *Holder) Publish(ctx context.Context, doc *campus.Document) (*Snapshot, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	start := time.Now()
	opts := h.opts
	opts.AllowInvalid = false
	snap, err := Build(doc, opts)
	if err != nil {
		return nil, err
	}
	if h.store != nil {
		if err := h.store.Save(ctx, doc); err != nil {
			h.reloadFailed(err)
			return nil, err
		}
	}
	h.swap(snap, time.Since(start))
	return snap, nil
}

// Swap publishes an already built snapshot without touching the store
func (h *Holder) Swap(snap *Snapshot) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.swap(snap, 0)
}

func (h *Holder) swap(snap *Snapshot, took time.Duration) {
	prev := h.current.Swap(snap)

	fields := []logging.Field{
		logging.Fingerprint(snap.Fingerprint),
		logging.Source(snap.Source),
		logging.Int("nodes", snap.Graph.NodeCount()),
		logging.Int("edges", snap.Graph.EdgeCount()),
		logging.Int("buildings", snap.Graph.BuildingCount()),
		logging.Latency(took),
	}
	if prev != nil {
		fields = append(fields, logging.String("previous", prev.Fingerprint))
	}
	h.logger.Info("snapshot swapped", fields...)

	if h.metrics != nil {
		h.metrics.RecordSnapshotSwap(h.opts.Source, took, metrics.SnapshotStats{
			Nodes:        snap.Graph.NodeCount(),
			Edges:        snap.Graph.EdgeCount(),
			Buildings:    snap.Graph.BuildingCount(),
			BlockedEdges: snap.BlockedEdgeCount(),
			SizeBytes:    snap.SizeBytes,
		})
	}
}

func (h *Holder) reloadFailed(err error) {
	level := h.logger.Error
	if errors.Is(err, context.Canceled) {
		level = h.logger.Warn
	}
	level("snapshot reload failed", logging.Source(h.opts.Source), logging.Error(err))
	if h.metrics != nil {
		h.metrics.RecordSnapshotReload("error")
	}
}
