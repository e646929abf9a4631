package core

import (
	"errors"
	"fmt"
)

// QueryError represents a structured query failure with category and details.
type QueryError struct {
	Category   ErrorCategory
	Code       string     // Machine-readable code: not_found, more_than_one, etc.
	Message    string     // Human-readable message
	Descriptor Descriptor // The query that failed, zero for non-query errors
	Cause      error      // Underlying error
}

// Error implements the error interface
func (e *QueryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so predefined templates work with errors.Is.
func (e *QueryError) Is(target error) bool {
	t, ok := target.(*QueryError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *QueryError) WithCause(cause error) *QueryError {
	c := *e
	c.Cause = cause
	return &c
}

// WithMessage returns a copy of the error with a custom message
func (e *QueryError) WithMessage(msg string) *QueryError {
	c := *e
	c.Message = msg
	return &c
}

// WithDescriptor returns a copy of the error carrying the query descriptor.
func (e *QueryError) WithDescriptor(d Descriptor) *QueryError {
	c := *e
	c.Descriptor = d
	return &c
}

// Predefined errors. Compare with errors.Is.
var (
	ErrNotFound = &QueryError{
		Category: ErrCategoryNotFound,
		Code:     "not_found",
		Message:  "element not found",
	}
	ErrMoreThanOne = &QueryError{
		Category: ErrCategoryMoreThanOne,
		Code:     "more_than_one",
		Message:  "more than one element found",
	}

	// ErrContractViolation marks a host tree that broke the engine's
	// expectations, e.g. a non-element node where an element was required.
	ErrContractViolation = &QueryError{
		Category: ErrCategoryContract,
		Code:     "contract_violation",
		Message:  "host tree contract violation",
	}

	ErrExpectation = &QueryError{
		Category: ErrCategoryExpectation,
		Code:     "expectation_failed",
		Message:  "expectation failed",
	}
	ErrInvalidFlow = &QueryError{
		Category: ErrCategoryConfig,
		Code:     "invalid_flow",
		Message:  "invalid flow",
	}
)

// NotFound builds the error for a singular query with zero candidates.
func NotFound(d Descriptor) *QueryError {
	return ErrNotFound.
		WithDescriptor(d).
		WithMessage(fmt.Sprintf("not found: attempting to find %q by method %s", d.Query, d.Strategy))
}

// MoreThanOne builds the error for a singular query with several candidates.
func MoreThanOne(d Descriptor) *QueryError {
	return ErrMoreThanOne.
		WithDescriptor(d).
		WithMessage(fmt.Sprintf(
			"found more than one element by method of get_%s with input of %q, "+
				"if you were expecting more than one match see the get_all_%s version of this method instead",
			d.Strategy, d.Query, d.Strategy))
}

// ContractViolation builds a host contract error.
func ContractViolation(format string, args ...interface{}) *QueryError {
	return ErrContractViolation.WithMessage("contract violation: " + fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is, or wraps, a not-found query error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMoreThanOne reports whether err is, or wraps, a more-than-one query error.
func IsMoreThanOne(err error) bool {
	return errors.Is(err, ErrMoreThanOne)
}

// DescriptorOf extracts the query descriptor from err, if it carries one.
func DescriptorOf(err error) (Descriptor, bool) {
	var qe *QueryError
	if !errors.As(err, &qe) || qe.Descriptor.Strategy == "" {
		return Descriptor{}, false
	}
	return qe.Descriptor, true
}

// CategoryOf returns the category of err; ErrCategoryNone for nil and
// ErrCategoryUnknown for errors that are not query errors.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Category
	}
	return ErrCategoryUnknown
}
