package errors

// CatalogError provides specialized error handling for capsule-catalog
// operations: capsule lookups, content-hash index mutations, and
// segment-id allocation. This structure extends the base error system with
// catalog-specific context while supporting method chaining through all
// base error methods.
type CatalogError struct {
	*baseError

	// capsuleId identifies which capsule was being processed when the
	// error occurred.
	capsuleId string

	// contentHash identifies which content-hash index entry was involved,
	// if applicable (hex-encoded).
	contentHash string

	// operation describes what catalog operation was being performed
	// (e.g. "Lookup", "CreateCapsule", "RegisterContent").
	operation string
}

// NewCatalogError creates a new catalog-specific error with the provided context.
func NewCatalogError(err error, code ErrorCode, msg string) *CatalogError {
	return &CatalogError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the CatalogError type.
func (ce *CatalogError) WithMessage(msg string) *CatalogError {
	ce.baseError.WithMessage(msg)
	return ce
}

// WithCode sets the error code while preserving the CatalogError type.
func (ce *CatalogError) WithCode(code ErrorCode) *CatalogError {
	ce.baseError.WithCode(code)
	return ce
}

// WithDetail adds contextual information while maintaining the CatalogError type.
func (ce *CatalogError) WithDetail(key string, value any) *CatalogError {
	ce.baseError.WithDetail(key, value)
	return ce
}

// WithCapsuleID records which capsule was being processed when the error occurred.
func (ce *CatalogError) WithCapsuleID(id string) *CatalogError {
	ce.capsuleId = id
	return ce
}

// WithContentHash records which content-hash index entry was involved.
func (ce *CatalogError) WithContentHash(hash string) *CatalogError {
	ce.contentHash = hash
	return ce
}

// WithOperation records what catalog operation was being performed.
func (ce *CatalogError) WithOperation(operation string) *CatalogError {
	ce.operation = operation
	return ce
}

// CapsuleID returns the capsule identifier associated with the error.
func (ce *CatalogError) CapsuleID() string {
	return ce.capsuleId
}

// ContentHash returns the content-hash index key associated with the error.
func (ce *CatalogError) ContentHash() string {
	return ce.contentHash
}

// Operation returns the name of the catalog operation that was being performed.
func (ce *CatalogError) Operation() string {
	return ce.operation
}

// NewCapsuleNotFoundError creates a specialized error for a missing capsule id.
func NewCapsuleNotFoundError(capsuleID string) *CatalogError {
	return NewCatalogError(nil, ErrorCodeNotFound, "capsule not found in catalog").
		WithCapsuleID(capsuleID).
		WithOperation("Lookup")
}

// NewCapsuleCollisionError creates an error for the (astronomically
// improbable) case of a capsule-id collision on creation.
func NewCapsuleCollisionError(capsuleID string) *CatalogError {
	return NewCatalogError(nil, ErrorCodeCollision, "capsule id already exists in catalog").
		WithCapsuleID(capsuleID).
		WithOperation("CreateCapsule")
}

// NewCatalogCorruptionError creates an error for catalog metadata-file
// decode failures.
func NewCatalogCorruptionError(cause error) *CatalogError {
	return NewCatalogError(cause, ErrorCodeCatalogCorrupted, "catalog metadata is corrupted").
		WithOperation("Load").
		WithDetail("recovery_required", true)
}
