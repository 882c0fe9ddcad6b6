package options

import "time"

const (
	// Specifies the default base directory where the store will keep its data files.
	DefaultDataDir = "/var/lib/space"

	// Defines the default time duration between automatic GC sweeps.
	DefaultGCInterval = time.Hour * 5

	// Represents the minimum allowed size for a segment data file in bytes (512MB).
	MinSegmentSize uint64 = 512 * 1024 * 1024

	// Represents the maximum allowed size for a segment data file in bytes (4GB).
	MaxSegmentSize uint64 = 4 * 1024 * 1024 * 1024

	// Specifies the default target size for a new segment data file in bytes (1GB).
	DefaultSegmentSize uint64 = 1 * 1024 * 1024 * 1024

	// Specifies the default subdirectory within the main data directory
	// where segment files will be stored.
	DefaultSegmentDirectory = "/segments"

	// Defines the default prefix for segment file names.
	DefaultSegmentPrefix = "segment"

	// SegmentChunkSize is the fixed logical chunk size the write pipeline
	// splits plaintext into. Unrelated to the data file's rotation size
	// above; this is the unit of compression, hashing, encryption, and dedup.
	SegmentChunkSize = 4 * 1024 * 1024

	// MasterKeyEnvVar is the environment variable holding a 64-hex-char
	// (32-byte) master key, consulted when no key is supplied programmatically.
	MasterKeyEnvVar = "SPACE_MASTER_KEY"
)

// Holds the default configuration settings for a store instance.
var defaultOptions = Options{
	DataDir:    DefaultDataDir,
	GCInterval: DefaultGCInterval,
	SegmentOptions: &segmentOptions{
		Size:      DefaultSegmentSize,
		Prefix:    DefaultSegmentPrefix,
		Directory: DefaultSegmentDirectory,
	},
}

func NewDefaultOptions() Options {
	opts := defaultOptions
	segCopy := *defaultOptions.SegmentOptions
	opts.SegmentOptions = &segCopy
	return opts
}
