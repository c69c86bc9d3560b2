// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package domain holds the domain contracts of the events service:
// error taxonomy, repository and messaging ports.
package domain

import "errors"

// ErrorType is the semantic category of a domain error, used by the
// HTTP layer to pick a status code.
type ErrorType int

const (
	ErrorTypeValidation  ErrorType = iota // invalid input or inconsistent stored data (400)
	ErrorTypeNotFound                     // missing resource (404)
	ErrorTypeConflict                     // revision conflict on write (409)
	ErrorTypeInternal                     // unexpected failure (500)
	ErrorTypeUnavailable                  // dependency not ready (503)
)

// DomainError wraps an error with its semantic type.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType classifies any error; non-domain errors are internal.
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal
}

func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}
