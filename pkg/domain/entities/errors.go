package entities

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidInput is matched by every batch-level input failure
var ErrInvalidInput = errors.New("invalid input")

// ValidationReason describes why a field failed validation
type ValidationReason string

const (
	ReasonMissing  ValidationReason = "missing"
	ReasonNegative ValidationReason = "negative"
	ReasonInvalid  ValidationReason = "invalid"
)

// ValidationError is a row-scoped problem with a single product field
type ValidationError struct {
	Field  Field
	Reason ValidationReason
	Value  string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissing:
		return fmt.Sprintf("%s is required", e.Field)
	case ReasonNegative:
		return fmt.Sprintf("%s cannot be negative, got %s", e.Field, e.Value)
	default:
		return fmt.Sprintf("%s is not a valid value: %q", e.Field, e.Value)
	}
}

// ConfigError reports an unusable configuration value
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

// BatchError is a fatal, batch-scoped failure. The caller still receives an empty result.
type BatchError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match InvalidInput batch errors
func (e *BatchError) Is(target error) bool {
	return target == ErrInvalidInput && e.Kind == ErrorKindInvalidInput
}

// ErrorKind classifies row and batch errors
type ErrorKind string

const (
	ErrorKindValidation       ErrorKind = "ValidationError"
	ErrorKindDuplicateProduct ErrorKind = "DuplicateProduct"
	ErrorKindInvalidInput     ErrorKind = "InvalidInput"
	ErrorKindComputation      ErrorKind = "ComputationError"
)

// RowError records a per-record, non-fatal processing failure
type RowError struct {
	// ProductRef is the product identifier, or "#<index>" when the row has none
	ProductRef string `json:"product_identifier_or_index"`

	// RowIndex is the 0-based position in the evaluated products slice.
	// Blank file rows are not products, so use SourceLine to point into a file.
	RowIndex int `json:"row_index"`

	// SourceLine is the 1-based file line (header is line 1), omitted when the products were not read from a file
	SourceLine int `json:"source_line,omitempty"`

	Engine  string    `json:"engine,omitempty"`
	Kind    ErrorKind `json:"error_kind"`
	Message string    `json:"message"`
}

// ProductRef returns the identifier used to reference a row in errors
func ProductRef(id ProductID, index int) string {
	if id == "" {
		return "#" + strconv.Itoa(index)
	}
	return string(id)
}
