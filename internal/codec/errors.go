package codec

import (
	"errors"
	"fmt"
)

// CodecError represents a failure while encoding or decoding a document.
//
// Codec errors include:
//   - Unregistered type: Encoding a Go value with no registered codec
//   - Unknown type: Decoding a type tag absent from the registry
//   - Duplicate tag: Registering the same tag or Go type twice
//   - Malformed array: Array block whose shape, dtype and data disagree
//   - Incompatible version: Document rejected by the version gate
//   - Parse error: Malformed JSON or structurally invalid document
//
// CodecError includes structured fields for diagnostics.
type CodecError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Tag is the type tag involved, when one is known.
	Tag string

	// Details contains additional context (versions, field names, shapes).
	Details map[string]string
}

// ErrorCode categorizes codec errors.
type ErrorCode string

const (
	// ErrCodeUnregisteredType indicates an encode of a Go type with no codec.
	ErrCodeUnregisteredType ErrorCode = "UNREGISTERED_TYPE"

	// ErrCodeUnknownType indicates a decode of a tag absent from the registry.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// ErrCodeDuplicateTypeTag indicates a conflicting registration.
	ErrCodeDuplicateTypeTag ErrorCode = "DUPLICATE_TYPE_TAG"

	// ErrCodeMalformedArray indicates an inconsistent array block.
	ErrCodeMalformedArray ErrorCode = "MALFORMED_ARRAY"

	// ErrCodeIncompatibleVersion indicates rejection by the version gate.
	ErrCodeIncompatibleVersion ErrorCode = "INCOMPATIBLE_VERSION"

	// ErrCodeParse indicates malformed JSON or an invalid document shape.
	ErrCodeParse ErrorCode = "PARSE_ERROR"
)

// Error implements the error interface.
func (e *CodecError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s: %s (tag=%s)", e.Code, e.Message, e.Tag)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnregisteredType returns true for unregistered-type errors.
// Uses errors.As to handle wrapped errors.
func IsUnregisteredType(err error) bool {
	return hasCode(err, ErrCodeUnregisteredType)
}

// IsUnknownType returns true for unknown-tag errors.
func IsUnknownType(err error) bool {
	return hasCode(err, ErrCodeUnknownType)
}

// IsDuplicateTypeTag returns true for duplicate-registration errors.
func IsDuplicateTypeTag(err error) bool {
	return hasCode(err, ErrCodeDuplicateTypeTag)
}

// IsMalformedArray returns true for malformed-array errors.
func IsMalformedArray(err error) bool {
	return hasCode(err, ErrCodeMalformedArray)
}

// IsIncompatibleVersion returns true for version gate rejections.
func IsIncompatibleVersion(err error) bool {
	return hasCode(err, ErrCodeIncompatibleVersion)
}

// IsParseError returns true for parse errors.
func IsParseError(err error) bool {
	return hasCode(err, ErrCodeParse)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// NewUnregisteredTypeError creates a CodecError for an unencodable Go type.
func NewUnregisteredTypeError(goType string) *CodecError {
	return &CodecError{
		Code:    ErrCodeUnregisteredType,
		Message: fmt.Sprintf("no codec registered for Go type %s", goType),
		Details: map[string]string{"go_type": goType},
	}
}

// NewUnknownTypeError creates a CodecError for an unregistered tag seen
// while decoding.
func NewUnknownTypeError(tag string) *CodecError {
	return &CodecError{
		Code:    ErrCodeUnknownType,
		Message: "document contains a type tag this registry does not know",
		Tag:     tag,
	}
}

// NewDuplicateTypeTagError creates a CodecError for a registration conflict.
func NewDuplicateTypeTagError(tag, conflict string) *CodecError {
	return &CodecError{
		Code:    ErrCodeDuplicateTypeTag,
		Message: fmt.Sprintf("already registered as %s", conflict),
		Tag:     tag,
	}
}

// NewMalformedArrayError creates a CodecError for an inconsistent array block.
func NewMalformedArrayError(msg string, details map[string]string) *CodecError {
	return &CodecError{
		Code:    ErrCodeMalformedArray,
		Message: msg,
		Details: details,
	}
}

// NewIncompatibleVersionError creates a CodecError for a gate rejection.
// Both versions travel in Details so callers can report them.
func NewIncompatibleVersionError(documentVersion, runtimeVersion, reason string) *CodecError {
	return &CodecError{
		Code:    ErrCodeIncompatibleVersion,
		Message: reason,
		Details: map[string]string{
			"document_version": documentVersion,
			"runtime_version":  runtimeVersion,
		},
	}
}

// NewParseError creates a CodecError for malformed input.
func NewParseError(msg string, details map[string]string) *CodecError {
	return &CodecError{
		Code:    ErrCodeParse,
		Message: msg,
		Details: details,
	}
}
