package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations: segment
	// log appends/reads, sidecar or catalog persistence, fsync.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the
	// provided data doesn't meet the system's requirements: an
	// out-of-bounds range read, a chunk too small to encrypt, an invalid
	// policy level after clamping was already attempted.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't
	// fit into other categories.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"

	// ErrorCodeNotFound indicates a capsule or segment id is not present.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrorCodeIntegrityFailure indicates a MAC mismatch on read, or a
	// compression round-trip byte mismatch on write.
	ErrorCodeIntegrityFailure ErrorCode = "INTEGRITY_FAILURE"

	// ErrorCodeKeyError indicates the master key is missing/malformed, or
	// a requested key version could not be derived.
	ErrorCodeKeyError ErrorCode = "KEY_ERROR"

	// ErrorCodeRotationInProgress indicates a second key rotation was
	// requested before the prior one completed.
	ErrorCodeRotationInProgress ErrorCode = "ROTATION_IN_PROGRESS"

	// ErrorCodeCollision indicates a capsule-id collision, a fatal and
	// astronomically improbable condition.
	ErrorCodeCollision ErrorCode = "COLLISION"

	// ErrorCodeResourceExceeded indicates the concurrent write pipeline's
	// per-task memory cap was exceeded.
	ErrorCodeResourceExceeded ErrorCode = "RESOURCE_EXCEEDED"

	// ErrorCodeInvariantViolated indicates a refcount/content-index
	// mismatch detected during reconciliation or GC. Operational, not
	// self-healing.
	ErrorCodeInvariantViolated ErrorCode = "INVARIANT_VIOLATED"

	// ErrorCodeCanceled indicates cooperative cancellation during a
	// concurrent write or a read.
	ErrorCodeCanceled ErrorCode = "CANCELED"
)

// Storage-specific error codes extend the base taxonomy to the unique
// failure modes of the segment log and capsule catalog.
const (
	// ErrorCodeSegmentCorrupted indicates a segment's sidecar metadata
	// could not be reconciled with its data-file bytes.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeCatalogCorrupted indicates the catalog metadata file could
	// not be decoded into a consistent snapshot.
	ErrorCodeCatalogCorrupted ErrorCode = "CATALOG_CORRUPTED"

	// ErrorCodePermissionDenied indicates insufficient permissions to
	// access a resource. Distinct from a generic IO error because it has
	// a specific resolution path: adjust permissions or elevate.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates the storage device has run out of space.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates the filesystem is mounted
	// read-only.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)
