package errors

// CapsuleError is a specialized error type for segment-log and capsule
// I/O failures. It embeds baseError to inherit the standard error
// functionality, then adds fields that pinpoint exactly where in the log a
// problem occurred.
type CapsuleError struct {
	*baseError
	capsuleId string // Which capsule was being accessed when the error occurred.
	segmentId uint64 // Which segment was being accessed when the error occurred.
	offset    int64  // Byte offset within the segment log where the problem happened.
	fileName  string // Name of the file that caused the issue.
	path      string // Path of the file that caused the issue.
}

// NewCapsuleError creates a new capsule/segment-log-specific error.
func NewCapsuleError(err error, code ErrorCode, msg string) *CapsuleError {
	return &CapsuleError{baseError: NewBaseError(err, code, msg)}
}

// WithCapsuleID sets which capsule was involved in the error.
func (ce *CapsuleError) WithCapsuleID(id string) *CapsuleError {
	ce.capsuleId = id
	return ce
}

// WithSegmentID sets which segment was involved in the error.
func (ce *CapsuleError) WithSegmentID(id uint64) *CapsuleError {
	ce.segmentId = id
	return ce
}

// WithOffset records the byte position where the error occurred.
func (ce *CapsuleError) WithOffset(offset int64) *CapsuleError {
	ce.offset = offset
	return ce
}

// WithFileName captures which file was being processed when the error occurred.
func (ce *CapsuleError) WithFileName(fileName string) *CapsuleError {
	ce.fileName = fileName
	return ce
}

// WithPath captures which path was being processed when the error occurred.
func (ce *CapsuleError) WithPath(path string) *CapsuleError {
	ce.path = path
	return ce
}

// WithDetail adds contextual information while preserving the CapsuleError type.
func (ce *CapsuleError) WithDetail(key string, value any) *CapsuleError {
	ce.baseError.WithDetail(key, value)
	return ce
}

// CapsuleID returns the capsule identifier involved in the error.
func (ce *CapsuleError) CapsuleID() string {
	return ce.capsuleId
}

// SegmentID returns the segment identifier where the error occurred.
func (ce *CapsuleError) SegmentID() uint64 {
	return ce.segmentId
}

// Offset returns the byte offset within the log where the error happened.
func (ce *CapsuleError) Offset() int64 {
	return ce.offset
}

// FileName returns the name of the file that was being processed.
func (ce *CapsuleError) FileName() string {
	return ce.fileName
}

// Path returns the path of the file that was being processed.
func (ce *CapsuleError) Path() string {
	return ce.path
}
