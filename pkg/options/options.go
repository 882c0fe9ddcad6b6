// Package options provides data structures and functions for configuring
// the capsule store. It defines the engine-wide Options (paths, segment
// sizing, master key source) as well as the per-write Policy (compression,
// dedupe, encryption) that callers attach to each write.
package options

import (
	"strings"
	"time"
)

// Defines configurable parameters for each segment.
// It provides fine-grained control over segment behavior, performance, and resource utilization.
type segmentOptions struct {
	// Holds the configured segment data file size. The segment log does
	// not read it: it keeps one data file that is never rotated. It is
	// unrelated to the logical 4 MiB chunk size used by the write pipeline.
	//
	//  - Default: 1GB
	//  - Maximum: 4GB
	//  - Minimum: 512MB
	Size uint64 `json:"maxSegmentSize"`

	// Specifies where segment data/sidecar files are stored.
	//
	// Default: "/var/lib/space/segments"
	Directory string `json:"directory"`

	// Holds the configured filename prefix for segment files. The segment
	// log does not read it: its files are always named segments.dat and
	// segments.meta.
	//
	// Default: "segment"
	Prefix string `json:"prefix"`
}

// Options defines the engine-wide configuration for the capsule store: where
// data lives, segment file settings, how often GC runs, and where the
// master key comes from. Per-write behavior (compression, dedup,
// encryption) is controlled separately by Policy.
type Options struct {
	// Specifies the base path where files will be stored.
	//
	// Default: "/var/lib/space"
	DataDir string `json:"dataDir"`

	// Defines how often the garbage collector's sweep runs automatically.
	// Zero disables the background timer; GarbageCollect can still be
	// invoked explicitly at any time.
	//
	// Default: 5h
	GCInterval time.Duration `json:"gcInterval"`

	// Configures segment management including size limits and naming convention.
	SegmentOptions *segmentOptions `json:"segmentOptions"`

	// The 32-byte master key used to derive versioned XTS key pairs. It is
	// used only when HasMasterKey is true; otherwise encryption is
	// unavailable and any Policy that requests XtsAes256 fails with a KeyError.
	MasterKey [32]byte `json:"-"`

	// HasMasterKey reports whether MasterKey was actually supplied (as
	// opposed to left as its zero value), since an all-zero key is a
	// technically valid 32 bytes.
	HasMasterKey bool `json:"hasMasterKey"`
}

// OptionFunc is a function type that modifies the store's engine-wide configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.SegmentOptions = opts.SegmentOptions
		o.GCInterval = opts.GCInterval
	}
}

// Sets the primary data directory for the store.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets the interval at which the store's background GC sweep runs.
func WithGCInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.GCInterval = interval
		}
	}
}

// Sets the directory specifically for storing segment files.
func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

// Sets the file name prefix for segment files.
func WithSegmentPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.SegmentOptions.Prefix = prefix
		}
	}
}

// Sets SegmentOptions.Size; values outside the exclusive range
// (MinSegmentSize, MaxSegmentSize) are ignored.
func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > MinSegmentSize && size < MaxSegmentSize {
			o.SegmentOptions.Size = size
		}
	}
}

// Sets the 32-byte master key used to derive XTS key pairs. Without this
// (or the SPACE_MASTER_KEY environment variable), writes using an
// encryption policy fail with a KeyError.
func WithMasterKey(key [32]byte) OptionFunc {
	return func(o *Options) {
		o.MasterKey = key
		o.HasMasterKey = true
	}
}
