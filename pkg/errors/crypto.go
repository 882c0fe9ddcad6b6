package errors

// CryptoError is a specialized error type for key-management and
// XTS-AES/MAC failures: key derivation, rotation-state conflicts, and
// integrity-verification mismatches.
type CryptoError struct {
	*baseError

	// keyVersion identifies which derived key version was in use when the
	// error occurred.
	keyVersion uint32

	// capsuleId identifies which capsule was being encrypted/decrypted.
	capsuleId string

	// expectedTag and actualTag hold hex-encoded MAC tags for integrity
	// failures, so the mismatch can be inspected without re-deriving it.
	expectedTag string
	actualTag   string
}

// NewCryptoError creates a new crypto-specific error with the provided context.
func NewCryptoError(err error, code ErrorCode, msg string) *CryptoError {
	return &CryptoError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the CryptoError type.
func (ce *CryptoError) WithMessage(msg string) *CryptoError {
	ce.baseError.WithMessage(msg)
	return ce
}

// WithCode sets the error code while preserving the CryptoError type.
func (ce *CryptoError) WithCode(code ErrorCode) *CryptoError {
	ce.baseError.WithCode(code)
	return ce
}

// WithDetail adds contextual information while maintaining the CryptoError type.
func (ce *CryptoError) WithDetail(key string, value any) *CryptoError {
	ce.baseError.WithDetail(key, value)
	return ce
}

// WithKeyVersion records which key version was in use.
func (ce *CryptoError) WithKeyVersion(version uint32) *CryptoError {
	ce.keyVersion = version
	return ce
}

// WithCapsuleID records which capsule was being processed.
func (ce *CryptoError) WithCapsuleID(id string) *CryptoError {
	ce.capsuleId = id
	return ce
}

// WithTagMismatch records the expected and actual MAC tags for an
// integrity-failure error (both hex-encoded).
func (ce *CryptoError) WithTagMismatch(expected, actual string) *CryptoError {
	ce.expectedTag = expected
	ce.actualTag = actual
	return ce
}

// KeyVersion returns the key version involved in the error.
func (ce *CryptoError) KeyVersion() uint32 {
	return ce.keyVersion
}

// CapsuleID returns the capsule identifier involved in the error.
func (ce *CryptoError) CapsuleID() string {
	return ce.capsuleId
}

// ExpectedTag returns the MAC tag that was expected, if this is an
// integrity-failure error.
func (ce *CryptoError) ExpectedTag() string {
	return ce.expectedTag
}

// ActualTag returns the MAC tag that was actually computed, if this is an
// integrity-failure error.
func (ce *CryptoError) ActualTag() string {
	return ce.actualTag
}

// NewKeyDerivationError creates an error for a failed key-pair derivation.
func NewKeyDerivationError(version uint32, cause error) *CryptoError {
	return NewCryptoError(cause, ErrorCodeKeyError, "failed to derive key pair").
		WithKeyVersion(version)
}

// NewRotationInProgressError creates an error for a rotation request that
// arrived while a prior rotation was still in flight.
func NewRotationInProgressError() *CryptoError {
	return NewCryptoError(nil, ErrorCodeRotationInProgress, "key rotation already in progress")
}

// NewMACMismatchError creates an error for a failed integrity check on read.
func NewMACMismatchError(capsuleID string, expectedTag, actualTag string) *CryptoError {
	return NewCryptoError(nil, ErrorCodeIntegrityFailure, "mac tag mismatch on read").
		WithCapsuleID(capsuleID).
		WithTagMismatch(expectedTag, actualTag)
}
