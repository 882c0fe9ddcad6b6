package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/iamNilotpal/capsule/internal/model"
	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
	"github.com/iamNilotpal/capsule/pkg/options"
)

// WriteCapsuleConcurrent runs the concurrent write pipeline: the CPU-bound
// preparation step (compress + hash + encrypt) for every segment runs in
// parallel, bounded by a semaphore sized to the configured max concurrency,
// while a single coordinator — this call's own goroutine — drains prepared
// segments out of order and commits them strictly in plaintext order, using
// an index-keyed staging vector so out-of-order results still commit in
// order. A single log transaction stages every new append; the dedup
// decision for segment i can see every segment 0..i-1 this same write has
// already committed (persistent, and staged-within-this-transaction),
// matching the sequential variant's semantics exactly but with parallel
// preparation.
func (p *Pipeline) WriteCapsuleConcurrent(ctx context.Context, data []byte, policy options.Policy) (uuid.UUID, error) {
	policy, clamped := policy.Normalize()
	if clamped {
		p.lg.Warnw("compression level out of range; clamped",
			"kind", string(policy.Compression.Kind), "level", policy.Compression.Level)
	}
	capsuleID := uuid.New()

	segmentChunks := chunks(data)
	total := len(segmentChunks)
	if total == 0 {
		capRec := model.Capsule{
			ID:            capsuleID,
			PlaintextSize: uint64(len(data)),
			CreatedAt:     time.Now(),
			Policy:        policy,
		}
		if err := p.cat.CreateCapsuleWithSegments(capRec); err != nil {
			return uuid.Nil, err
		}
		return capsuleID, nil
	}

	for idx, chunk := range segmentChunks {
		if len(chunk) > p.memoryLimitPerTask {
			return uuid.Nil, sperrors.NewCapsuleError(nil, sperrors.ErrorCodeResourceExceeded,
				"segment exceeds configured per-task memory limit").WithSegmentID(uint64(idx))
		}
	}

	results := make(chan prepared, total)
	sem := semaphore.NewWeighted(int64(p.maxConcurrency))
	group, gctx := errgroup.WithContext(ctx)

	for idx, chunk := range segmentChunks {
		idx, chunk := idx, chunk
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			pr, err := p.prepareSegment(idx, chunk, policy)
			if err != nil {
				return err
			}

			select {
			case results <- pr:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		err := group.Wait()
		close(results)
		waitErr <- err
	}()

	txn := p.log.BeginTransaction()

	segmentIDs := make([]model.SegmentId, 0, total)
	persistentHits := make([]model.SegmentId, 0, 4)
	newlyHashed := make([]hashedSegment, 0, total)
	var dedupedBytes uint64

	ordered := make([]*prepared, total)
	nextIndex := 0
	var commitErr error

	for pr := range results {
		item := pr
		ordered[item.index] = &item

		for nextIndex < total && ordered[nextIndex] != nil {
			outcome, err := p.commitPrepared(txn, policy, *ordered[nextIndex])
			if err != nil {
				commitErr = err
				break
			}

			segmentIDs = append(segmentIDs, outcome.segmentID)
			dedupedBytes += outcome.dedupedBytes
			if outcome.persistentHit {
				persistentHits = append(persistentHits, outcome.segmentID)
			}
			if outcome.newHash != nil {
				newlyHashed = append(newlyHashed, *outcome.newHash)
			}
			nextIndex++
		}
		if commitErr != nil {
			break
		}
	}

	if err := <-waitErr; err != nil && commitErr == nil {
		commitErr = err
	}
	if commitErr == nil && nextIndex != total {
		commitErr = sperrors.NewCapsuleError(nil, sperrors.ErrorCodeInternal,
			"concurrent write pipeline exited before every segment committed").
			WithDetail("committed", nextIndex).WithDetail("total", total)
	}

	if commitErr != nil {
		_ = txn.Rollback()
		decrementReverse(p.log, persistentHits)
		return uuid.Nil, commitErr
	}

	if err := txn.Commit(); err != nil {
		decrementReverse(p.log, persistentHits)
		return uuid.Nil, err
	}

	if err := registerNewHashes(p.log, p.cat, newlyHashed); err != nil {
		decrementReverse(p.log, persistentHits)
		return uuid.Nil, err
	}

	capRec := model.Capsule{
		ID:            capsuleID,
		PlaintextSize: uint64(len(data)),
		Segments:      segmentIDs,
		CreatedAt:     time.Now(),
		Policy:        policy,
		DedupedBytes:  dedupedBytes,
	}
	if err := p.cat.CreateCapsuleWithSegments(capRec); err != nil {
		unregisterNewHashes(p.log, p.cat, newlyHashed)
		decrementReverse(p.log, persistentHits)
		return uuid.Nil, err
	}

	return capsuleID, nil
}
