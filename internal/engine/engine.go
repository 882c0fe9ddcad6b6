// Package engine provides the core database engine implementation for the
// capsule store.
//
// The engine is the central coordinator and entry point for every capsule
// operation. It wires together the subsystems that make content-addressed,
// deduplicated, encrypted-at-rest storage possible:
//   - Segmentlog: the append-only segment data file + sidecar metadata
//   - Catalog: capsule records, the content-hash dedup index, and the
//     segment-id allocator
//   - Compress, Hasher, Keymanager/Crypto: the per-segment processing
//     steps the write pipeline drives in order
//   - Pipeline: the write and read orchestration built on top of the above
//   - GC: reference-counted sweep and startup reconciliation
//
// The engine implements a thread-safe interface with proper lifecycle
// management, ensuring resources are properly initialized and cleaned up.
// It uses atomic operations for state management to provide consistent
// behavior across concurrent operations.
package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/internal/catalog"
	"github.com/iamNilotpal/capsule/internal/compress"
	"github.com/iamNilotpal/capsule/internal/crypto"
	"github.com/iamNilotpal/capsule/internal/gc"
	"github.com/iamNilotpal/capsule/internal/keymanager"
	"github.com/iamNilotpal/capsule/internal/pipeline"
	"github.com/iamNilotpal/capsule/internal/segmentlog"
	"github.com/iamNilotpal/capsule/pkg/options"
)

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// Engine is the main database engine that coordinates all subsystems. It is
// the primary interface for capsule operations and manages the lifecycle of
// every internal component. The engine is safe for concurrent use.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	seglog *segmentlog.Log
	cat    *catalog.Catalog
	comp   *compress.Engine
	crypt  *crypto.Engine
	keys   *keymanager.Manager // nil when no master key was supplied
	gcol   *gc.Collector
	pipe   *pipeline.Pipeline

	gcStop chan struct{}
	gcWG   sync.WaitGroup
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger

	// MaxConcurrency bounds the concurrent write pipeline's in-flight
	// preparation tasks. Zero means "let the pipeline pick a default".
	MaxConcurrency int
}

// New creates and initializes a new Engine instance with the provided
// configuration, following the dependency-injection pattern so the engine
// stays testable. It opens the segment log and catalog (recovering any
// existing state), reconciles refcounts against the capsule catalog, sweeps
// any segments that reconciliation orphaned, and — if GCInterval is
// positive — starts a background sweep timer.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.New("engine: invalid configuration")
	}
	opts := config.Options
	lg := config.Logger

	segDir := filepath.Join(opts.DataDir, opts.SegmentOptions.Directory)
	seglog, err := segmentlog.Open(ctx, segDir, lg)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(ctx, opts.DataDir, lg)
	if err != nil {
		_ = seglog.Close()
		return nil, err
	}

	comp := compress.New(lg)
	crypt := crypto.New()

	var keys *keymanager.Manager
	if opts.HasMasterKey {
		keys = keymanager.New(opts.MasterKey, lg)
	}

	pipe := pipeline.New(pipeline.Config{
		Log:            seglog,
		Catalog:        cat,
		Compress:       comp,
		Crypto:         crypt,
		Keys:           keys,
		MaxConcurrency: config.MaxConcurrency,
		Logger:         lg,
	})

	gcol := gc.New(seglog, cat, lg)

	e := &Engine{
		options: opts,
		log:     lg,
		seglog:  seglog,
		cat:     cat,
		comp:    comp,
		crypt:   crypt,
		keys:    keys,
		gcol:    gcol,
		pipe:    pipe,
		gcStop:  make(chan struct{}),
	}

	reclaimed, err := gcol.Reconcile()
	if err != nil {
		_ = cat.Close()
		_ = seglog.Close()
		return nil, err
	}
	lg.Infow("startup reconciliation complete", "reclaimedSegments", reclaimed)

	if opts.GCInterval > 0 {
		e.startBackgroundGC(opts.GCInterval)
	}

	return e, nil
}

// startBackgroundGC runs Sweep on a fixed interval until the engine is
// closed. Sweeps run one at a time on a single goroutine, so a run never
// overlaps the next; the ticker keeps its fixed schedule, and ticks that
// arrive while a sweep is still running are dropped.
func (e *Engine) startBackgroundGC(interval time.Duration) {
	e.gcWG.Add(1)
	go func() {
		defer e.gcWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-e.gcStop:
				return
			case <-ticker.C:
				reclaimed, err := e.gcol.Sweep()
				if err != nil {
					e.log.Errorw("background garbage collection sweep failed", "error", err)
					continue
				}
				if reclaimed > 0 {
					e.log.Infow("background garbage collection sweep reclaimed segments", "count", reclaimed)
				}
			}
		}
	}()
}

// WriteCapsule runs the sequential write pipeline. See pipeline.WriteCapsule.
func (e *Engine) WriteCapsule(data []byte, policy options.Policy) (uuid.UUID, error) {
	if e.closed.Load() {
		return uuid.Nil, ErrEngineClosed
	}
	return e.pipe.WriteCapsule(data, policy)
}

// WriteCapsuleConcurrent runs the concurrent write pipeline. See
// pipeline.WriteCapsuleConcurrent.
func (e *Engine) WriteCapsuleConcurrent(ctx context.Context, data []byte, policy options.Policy) (uuid.UUID, error) {
	if e.closed.Load() {
		return uuid.Nil, ErrEngineClosed
	}
	return e.pipe.WriteCapsuleConcurrent(ctx, data, policy)
}

// ReadCapsule runs the read pipeline. See pipeline.ReadCapsule.
func (e *Engine) ReadCapsule(id uuid.UUID) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	return e.pipe.ReadCapsule(id)
}

// ReadRange runs a bounded read. See pipeline.ReadRange.
func (e *Engine) ReadRange(id uuid.UUID, offset uint64, length int) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	return e.pipe.ReadRange(id, offset, length)
}

// DeleteCapsule removes a capsule and decrements its segments' refcounts.
// See pipeline.DeleteCapsule.
func (e *Engine) DeleteCapsule(id uuid.UUID) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.pipe.DeleteCapsule(id)
}

// GarbageCollect runs an on-demand sweep of zero-refcount segments, in
// addition to whatever the background timer is doing. Returns the number of
// segments reclaimed.
func (e *Engine) GarbageCollect() (int, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	return e.gcol.Sweep()
}

// RotateKey begins rotation to a new key version; writes immediately start
// using it while reads of older segments keep working via the cached prior
// versions. Returns an error if no master key was configured.
func (e *Engine) RotateKey() (uint32, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	if e.keys == nil {
		return 0, errors.New("engine: no master key configured, cannot rotate")
	}
	return e.keys.Rotate()
}

// CompleteKeyRotation marks an in-progress rotation as finished, allowing a
// future rotation to begin.
func (e *Engine) CompleteKeyRotation() {
	if e.keys != nil {
		e.keys.CompleteRotation()
	}
}

// Close gracefully shuts down the engine: stops the background GC timer,
// then closes the catalog and segment log. Safe to call exactly once.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	close(e.gcStop)
	e.gcWG.Wait()

	if err := e.cat.Close(); err != nil {
		return err
	}
	return e.seglog.Close()
}
