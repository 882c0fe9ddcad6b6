// Package pipeline implements the write pipeline (sequential and
// concurrent variants) and the read pipeline: the orchestration layer
// that drives compression, hashing, encryption, dedup, and the segment
// log + catalog together. Modeled on the original internal/engine package's
// orchestration style — a thin struct holding its collaborators, with all
// the actual work in free functions/methods per operation — generalized
// from "index+storage+compaction" to "segmentlog+catalog+compress+hasher+
// keymanager+crypto".
package pipeline

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/internal/catalog"
	"github.com/iamNilotpal/capsule/internal/compress"
	"github.com/iamNilotpal/capsule/internal/crypto"
	"github.com/iamNilotpal/capsule/internal/keymanager"
	"github.com/iamNilotpal/capsule/internal/segmentlog"
)

// SegmentSize is the fixed chunk size plaintext is split into before
// compression. The last chunk of a capsule may be shorter.
const SegmentSize = 4 * 1024 * 1024

// DefaultMemoryLimitPerTask bounds the memory one concurrent preparation
// task may use; exceeding it aborts the write with ResourceExceeded.
const DefaultMemoryLimitPerTask = 1 << 30 // 1 GiB

// Pipeline wires the engine's collaborators together for both the write and
// read paths. It holds no per-write state of its own — every write/read
// call is independently safe to run concurrently with others, modulo the
// locking each collaborator already provides.
type Pipeline struct {
	log   *segmentlog.Log
	cat   *catalog.Catalog
	comp  *compress.Engine
	crypt *crypto.Engine
	keys  *keymanager.Manager // nil when no master key was supplied

	maxConcurrency     int
	memoryLimitPerTask int

	lg *zap.SugaredLogger
}

// Config collects a Pipeline's collaborators and tuning knobs.
type Config struct {
	Log                *segmentlog.Log
	Catalog            *catalog.Catalog
	Compress           *compress.Engine
	Crypto             *crypto.Engine
	Keys               *keymanager.Manager
	MaxConcurrency     int
	MemoryLimitPerTask int
	Logger             *zap.SugaredLogger
}

// New builds a Pipeline from its collaborators.
func New(cfg Config) *Pipeline {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = max(1, runtime.NumCPU()/2)
	}
	memLimit := cfg.MemoryLimitPerTask
	if memLimit <= 0 {
		memLimit = DefaultMemoryLimitPerTask
	}

	return &Pipeline{
		log:                cfg.Log,
		cat:                cfg.Catalog,
		comp:               cfg.Compress,
		crypt:              cfg.Crypto,
		keys:               cfg.Keys,
		maxConcurrency:     maxConcurrency,
		memoryLimitPerTask: memLimit,
		lg:                 cfg.Logger,
	}
}

// chunks splits data into SegmentSize-bounded slices, preserving order. An
// empty input yields zero chunks (an empty capsule).
func chunks(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	out := make([][]byte, 0, (len(data)+SegmentSize-1)/SegmentSize)
	for offset := 0; offset < len(data); offset += SegmentSize {
		end := offset + SegmentSize
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[offset:end])
	}
	return out
}
