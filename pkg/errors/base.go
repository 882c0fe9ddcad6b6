package errors

// baseError is the common embed shared by every capsule-store error type
// (ValidationError, CapsuleError, CatalogError, CryptoError): a wrapped
// cause, a displayable message, a programmatic code, and a lazily
// allocated detail bag for segment ids, capsule ids, key versions, and the
// like.
type baseError struct {
	cause   error
	message string
	code    ErrorCode
	details map[string]any
}

// NewBaseError wraps err under code with the given message.
func NewBaseError(err error, code ErrorCode, msg string) *baseError {
	return &baseError{cause: err, code: code, message: msg}
}

// WithMessage overrides the error message.
func (be *baseError) WithMessage(msg string) *baseError {
	be.message = msg
	return be
}

// WithCode overrides the error code.
func (be *baseError) WithCode(code ErrorCode) *baseError {
	be.code = code
	return be
}

// WithDetail attaches a key/value pair of domain context (segment id,
// capsule id, key version, ...) to the error, allocating the details map
// on first use.
func (be *baseError) WithDetail(key string, value any) *baseError {
	if be.details == nil {
		be.details = make(map[string]any)
	}
	be.details[key] = value
	return be
}

// Error implements the error interface.
func (b *baseError) Error() string {
	return b.message
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (b *baseError) Unwrap() error {
	return b.cause
}

// Code returns the error's programmatic classification.
func (b *baseError) Code() ErrorCode {
	return b.code
}

// Details returns the error's attached context. The returned map is the
// error's own, not a copy.
func (b *baseError) Details() map[string]any {
	return b.details
}
