package errors

import (
	"context"
	"errors"
)

type Category string

const (
	CategoryInvalidInput    Category = "invalid_input"
	CategoryInvalidHeader   Category = "invalid_header"
	CategoryMalformedRecord Category = "malformed_record"
	CategoryIOFailure       Category = "io_failure"
	CategoryDisjointTree    Category = "disjoint_tree"
	CategoryCancelled       Category = "cancelled"
	CategoryEmptySource     Category = "empty_source"
	CategoryInternalFailure Category = "internal_failure"
)

type classifiedError struct {
	category  Category
	code      string
	hint      string
	retryable bool
	cause     error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return "unknown error"
	}
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}

func (e *classifiedError) Category() Category {
	return e.category
}

func (e *classifiedError) Code() string {
	return e.code
}

func (e *classifiedError) Hint() string {
	return e.hint
}

func (e *classifiedError) Retryable() bool {
	return e.retryable
}

func Wrap(cause error, category Category, code, hint string, retryable bool) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{
		category:  category,
		code:      code,
		hint:      hint,
		retryable: retryable,
		cause:     cause,
	}
}

// New wraps a fresh error built from message under the given category.
func New(message string, category Category, code, hint string) error {
	return Wrap(errors.New(message), category, code, hint, false)
}

func CategoryOf(err error) Category {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.category
	}
	return ""
}

func CodeOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.code
	}
	return ""
}

func HintOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.hint
	}
	return ""
}

func RetryableOf(err error) bool {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.retryable
	}
	return false
}

// IsCancelled reports whether err represents a cooperative cancellation,
// either classified as such or caused by context cancellation.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	if CategoryOf(err) == CategoryCancelled {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
