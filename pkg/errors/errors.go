// This package addresses the fundamental challenge that generic error handling presents in complex
// systems: when an error occurs, developers and operators need much more than just "something went wrong."
// They need to understand exactly what failed, why it failed, where it failed, and most importantly,
// what they can do about it. This package transforms error handling from reactive debugging into
// proactive problem resolution.
//
// Architecture and Design Philosophy:
//
// The error system is built around a hierarchical structure that starts with a foundational baseError
// and extends into domain-specific error types. This design provides several key advantages:
// it maintains consistency across all error types while allowing specialized context for different
// domains, enables rich error chaining that preserves the complete failure context, supports
// programmatic error handling through standardized error codes, and facilitates comprehensive
// logging and monitoring through structured error details.
//
// The system recognizes that different parts of a capsule store fail in fundamentally different
// ways and require different types of contextual information for effective diagnosis and recovery.
// A validation error needs to know which field failed and what rule was violated. A capsule error
// needs to know which segment and byte offset were involved. A catalog error needs to know which
// capsule id or content hash was being processed. A crypto error needs to know which key version
// was in use and, on an integrity failure, the expected versus actual MAC tag. By capturing this
// domain-specific context at the point of failure, the system enables much more intelligent error
// handling throughout the application stack.
//
// Error Classification and Codes:
//
// Central to this system is a comprehensive error code taxonomy that provides standardized
// categorization of failures. These codes serve multiple purposes: they enable programmatic
// error handling that doesn't rely on parsing error messages, they provide consistent
// categorization for monitoring and alerting systems, they facilitate error recovery logic
// by identifying specific failure modes, and they support internationalization by separating
// error identification from error presentation.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError checks if the given error is a ValidationError or contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsCapsuleError determines if an error is related to segment-log or capsule I/O: file
// operations, disk space issues, or segment corruption. Capsule errors often require
// different handling strategies than other error types because they may indicate hardware
// issues, capacity problems, or data integrity concerns that need immediate attention.
//
// Example usage:
//
//	if errors.IsCapsuleError(err) {
//	    capsuleErr, _ := errors.AsCapsuleError(err)
//	    switch capsuleErr.Code() {
//	    case ErrorCodeDiskFull:
//	        triggerCleanupProcedures()
//	    case ErrorCodePermissionDenied:
//	        alertAdministrator(capsuleErr.Path())
//	    }
//	}
func IsCapsuleError(err error) bool {
	var ce *CapsuleError
	return stdErrors.As(err, &ce)
}

// IsCatalogError identifies errors that occurred during catalog operations such as capsule
// lookups, content-hash index updates, or segment-id allocation. Catalog errors often
// provide crucial context about which capsule or content hash was involved, which is
// essential for debugging dedup and consistency problems.
func IsCatalogError(err error) bool {
	var ce *CatalogError
	return stdErrors.As(err, &ce)
}

// IsCryptoError identifies errors from key derivation, rotation, or integrity verification.
func IsCryptoError(err error) bool {
	var ce *CryptoError
	return stdErrors.As(err, &ce)
}

// AsValidationError safely extracts a ValidationError from an error chain, providing access
// to validation-specific context such as which field failed, what rule was violated, and
// what values were provided versus expected.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsCapsuleError extracts CapsuleError context from an error chain, providing access to
// segment-log-specific information such as segment IDs, byte offsets, file names, and
// paths. This context is crucial for implementing storage error recovery procedures.
//
// Example usage:
//
//	if capsuleErr, ok := errors.AsCapsuleError(err); ok {
//	    errorContext := map[string]interface{}{
//	        "segmentId": capsuleErr.SegmentID(),
//	        "offset": capsuleErr.Offset(),
//	        "fileName": capsuleErr.FileName(),
//	        "path": capsuleErr.Path(),
//	        "errorCode": capsuleErr.Code(),
//	    }
//	    handleStorageFailure(errorContext)
//	}
func AsCapsuleError(err error) (*CapsuleError, bool) {
	var ce *CapsuleError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsCatalogError extracts CatalogError context, providing access to catalog-specific
// information such as the capsule id and content hash being processed and the
// operation being performed.
func AsCatalogError(err error) (*CatalogError, bool) {
	var ce *CatalogError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsCryptoError extracts CryptoError context, providing access to key-management-specific
// information such as the key version in use and, on integrity failures, the expected
// versus actual MAC tag.
func AsCryptoError(err error) (*CryptoError, bool) {
	var ce *CryptoError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or returns
// ErrorCodeInternal for errors that don't have specific codes. This function provides
// a consistent way to categorize errors for monitoring and handling purposes.
//
// Example usage:
//
//	errorCode := errors.GetErrorCode(err)
//	metrics.IncrementErrorCounter(string(errorCode))
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if ce, ok := AsCapsuleError(err); ok {
		return ce.Code()
	}
	if ce, ok := AsCatalogError(err); ok {
		return ce.Code()
	}
	if ce, ok := AsCryptoError(err); ok {
		return ce.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports them,
// returning an empty map for errors without details. This function provides consistent
// access to additional error context regardless of the specific error type.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}
	if ce, ok := AsCapsuleError(err); ok {
		if details := ce.Details(); details != nil {
			return details
		}
	}
	if ce, ok := AsCatalogError(err); ok {
		if details := ce.Details(); details != nil {
			return details
		}
	}
	if ce, ok := AsCryptoError(err); ok {
		if details := ce.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyDirectoryCreationError analyzes directory creation failures and returns
// appropriate error codes based on the underlying system error. This helps clients
// understand exactly what went wrong and how they might fix it.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewCapsuleError(
			err, ErrorCodePermissionDenied,
			"insufficient permissions to create segment directory",
		).WithPath(path).
			WithDetail("operation", "directory_creation").
			WithDetail("required_permission", "write").
			WithDetail("suggestion", "check directory permissions or run with elevated privileges")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewCapsuleError(
					err, ErrorCodeDiskFull,
					"insufficient disk space to create segment directory",
				).WithPath(path).
					WithDetail("operation", "directory_creation").
					WithDetail("suggestion", "free up disk space or choose a different location")
			case syscall.EROFS:
				return NewCapsuleError(
					err, ErrorCodeFilesystemReadonly,
					"cannot create directory on read-only filesystem",
				).WithPath(path).
					WithDetail("operation", "directory_creation").
					WithDetail("suggestion", "remount filesystem with write permissions")
			}
		}
	}

	return NewCapsuleError(
		err, ErrorCodeIO, "failed to create segment directory",
	).WithPath(path).WithDetail("operation", "directory_creation")
}

// ClassifyFileOpenError analyzes file opening failures and returns appropriate
// error codes based on the underlying system error. This provides much more
// specific information than a generic I/O error.
func ClassifyFileOpenError(err error, filePath, fileName string) error {
	if os.IsPermission(err) {
		return NewCapsuleError(
			err, ErrorCodePermissionDenied,
			"insufficient permissions to open segment file",
		).WithPath(filePath).
			WithFileName(fileName).
			WithDetail("operation", "file_open").
			WithDetail("required_permission", "read_write").
			WithDetail("suggestion", "check file permissions or run with elevated privileges")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewCapsuleError(
					err, ErrorCodeDiskFull,
					"insufficient disk space to create segment file",
				).WithPath(filePath).
					WithFileName(fileName).
					WithDetail("operation", "file_open").
					WithDetail("suggestion", "free up disk space")
			case syscall.EROFS:
				return NewCapsuleError(
					err, ErrorCodeFilesystemReadonly,
					"cannot create file on read-only filesystem",
				).WithPath(filePath).
					WithFileName(fileName).
					WithDetail("operation", "file_open").
					WithDetail("suggestion", "remount filesystem with write permissions")
			}
		}
	}

	return NewCapsuleError(err, ErrorCodeIO, "failed to open segment file").
		WithPath(filePath).
		WithFileName(fileName).
		WithDetail("operation", "file_open").
		WithDetail("flags", []string{"O_CREATE", "O_RDWR", "O_APPEND"})
}

// ClassifySyncError analyzes sync operation failures and returns appropriate error codes.
// Sync failures can indicate various underlying issues from disk space problems to
// filesystem corruption.
func ClassifySyncError(err error, fileName, filePath string, offset int64) error {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewCapsuleError(
					err, ErrorCodeDiskFull,
					"cannot sync file: insufficient disk space",
				).WithFileName(fileName).
					WithPath(filePath).
					WithOffset(offset).
					WithDetail("operation", "file_sync").
					WithDetail("suggestion", "free up disk space before continuing")
			case syscall.EROFS:
				return NewCapsuleError(
					err, ErrorCodeFilesystemReadonly,
					"cannot sync file: filesystem is read-only",
				).WithFileName(fileName).
					WithPath(filePath).
					WithOffset(offset).
					WithDetail("operation", "file_sync").
					WithDetail("suggestion", "remount filesystem with write permissions")
			case syscall.EIO:
				return NewCapsuleError(
					err, ErrorCodeIO,
					"i/o error during file sync - possible hardware or corruption issue",
				).WithFileName(fileName).
					WithPath(filePath).
					WithOffset(offset).
					WithDetail("operation", "file_sync").
					WithDetail("severity", "high").
					WithDetail("suggestion", "check filesystem integrity and hardware health")
			}
		}
	}

	return NewCapsuleError(
		err, ErrorCodeIO, "failed to sync segment file to disk",
	).WithFileName(fileName).WithPath(filePath).WithOffset(offset).
		WithDetail("operation", "file_sync").
		WithDetail("currentSize", offset)
}
