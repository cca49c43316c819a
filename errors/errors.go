/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	// ErrInvalidArgument is returned when a required input is nil or empty
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidFormat is returned when a connection string or payload is malformed
	ErrInvalidFormat = errors.New("invalid format")

	// ErrResourceNotFound is returned when a named resource does not exist and auto-create was not requested
	ErrResourceNotFound = errors.New("resource not found")

	// ErrResourceUnavailable is returned when the storage account is unset or the backend cannot be reached
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrRemoteConflict is returned by drivers when a resource is currently being deleted
	ErrRemoteConflict = errors.New("remote conflict")

	// ErrRemoteFailure is returned for any other non-success status from the backend
	ErrRemoteFailure = errors.New("remote failure")
)

// Resource kinds used in error messages and metrics labels.
const (
	KindTable        = "table"
	KindQueue        = "queue"
	KindContainer    = "container"
	KindBlob         = "blob"
	KindEntity       = "entity"
	KindTopic        = "topic"
	KindSubscription = "subscription"
)

// Service error codes reporting that a resource is being deleted.
const (
	CodeTableBeingDeleted     = "TableBeingDeleted"
	CodeQueueBeingDeleted     = "QueueBeingDeleted"
	CodeContainerBeingDeleted = "ContainerBeingDeleted"
)

// InvalidArgumentError represents a missing or empty required input
type InvalidArgumentError struct {
	Argument string
	Message  string
}

func (e *InvalidArgumentError) Error() string {
	if e.Argument != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Message)
	}
	return fmt.Sprintf("invalid argument: %s", e.Message)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// InvalidFormatError represents a value that could not be parsed
type InvalidFormatError struct {
	What    string
	Message string
	Err     error
}

func (e *InvalidFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.What, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.What, e.Message)
}

func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// ResourceNotFoundError represents a named resource that does not exist
type ResourceNotFoundError struct {
	Kind string
	Name string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("could not find a %s with the name %q", e.Kind, e.Name)
}

func (e *ResourceNotFoundError) Is(target error) bool {
	return target == ErrResourceNotFound
}

// ResourceUnavailableError reports that the storage service could not serve a resource.
type ResourceUnavailableError struct {
	Kind    string
	Name    string
	Message string
	Err     error
}

func (e *ResourceUnavailableError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "the storage service cannot be contacted via the current account configuration " +
			"or the local development storage emulator is not running"
	}
	var s string
	if e.Name != "" {
		s = fmt.Sprintf("%s %q unavailable: %s", e.Kind, e.Name, msg)
	} else {
		s = fmt.Sprintf("%s unavailable: %s", e.Kind, msg)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ResourceUnavailableError) Is(target error) bool {
	return target == ErrResourceUnavailable
}

func (e *ResourceUnavailableError) Unwrap() error {
	return e.Err
}

// RemoteConflictError is the 409 returned while a resource of the same name is being deleted.
type RemoteConflictError struct {
	Kind       string
	Name       string
	StatusCode int
	Code       string
	Err        error
}

func (e *RemoteConflictError) Error() string {
	return fmt.Sprintf("%s %q conflict (status %d, code %s): resource is being deleted", e.Kind, e.Name, e.StatusCode, e.Code)
}

func (e *RemoteConflictError) Is(target error) bool {
	return target == ErrRemoteConflict
}

func (e *RemoteConflictError) Unwrap() error {
	return e.Err
}

// RemoteFailureError carries a non-success backend status verbatim
type RemoteFailureError struct {
	Operation  string
	Kind       string
	Name       string
	StatusCode int
	Code       string
	Err        error
}

func (e *RemoteFailureError) Error() string {
	s := fmt.Sprintf("%s on %s %q failed with status %d", e.Operation, e.Kind, e.Name, e.StatusCode)
	if e.Code != "" {
		s += fmt.Sprintf(" (%s)", e.Code)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *RemoteFailureError) Is(target error) bool {
	return target == ErrRemoteFailure
}

func (e *RemoteFailureError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewInvalidArgumentError creates a new InvalidArgumentError
func NewInvalidArgumentError(argument, message string) error {
	return &InvalidArgumentError{Argument: argument, Message: message}
}

// NewInvalidFormatError creates a new InvalidFormatError
func NewInvalidFormatError(what, message string, err error) error {
	return &InvalidFormatError{What: what, Message: message, Err: err}
}

// NewResourceNotFoundError creates a new ResourceNotFoundError
func NewResourceNotFoundError(kind, name string) error {
	return &ResourceNotFoundError{Kind: kind, Name: name}
}

// NewResourceUnavailableError creates a new ResourceUnavailableError with the default message
func NewResourceUnavailableError(kind, name string, err error) error {
	return &ResourceUnavailableError{Kind: kind, Name: name, Err: err}
}

// NewBeingDeletedError creates the 409 conflict a driver reports while a resource is being deleted
func NewBeingDeletedError(kind, name, code string, err error) error {
	return &RemoteConflictError{Kind: kind, Name: name, StatusCode: http.StatusConflict, Code: code, Err: err}
}

// NewRemoteFailureError creates a new RemoteFailureError
func NewRemoteFailureError(operation, kind, name string, statusCode int, code string, err error) error {
	return &RemoteFailureError{Operation: operation, Kind: kind, Name: name, StatusCode: statusCode, Code: code, Err: err}
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsInvalidFormat checks if an error is an invalid format error
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsNotFound checks if an error is a resource not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// IsUnavailable checks if an error is a resource unavailable error
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrResourceUnavailable)
}

// IsRemoteConflict checks if an error is a remote conflict error
func IsRemoteConflict(err error) bool {
	return errors.Is(err, ErrRemoteConflict)
}

// IsRemoteFailure checks if an error is a remote failure error
func IsRemoteFailure(err error) bool {
	return errors.Is(err, ErrRemoteFailure)
}

// IsBeingDeleted reports whether err is a 409 conflict whose service code says the
// resource is currently being deleted.
func IsBeingDeleted(err error) bool {
	var rce *RemoteConflictError
	if !errors.As(err, &rce) {
		return false
	}
	if rce.StatusCode != http.StatusConflict {
		return false
	}
	switch rce.Code {
	case CodeTableBeingDeleted, CodeQueueBeingDeleted, CodeContainerBeingDeleted:
		return true
	}
	return false
}

// StatusCode returns the backend status carried by err, or 0 when there is none.
func StatusCode(err error) int {
	var rfe *RemoteFailureError
	if errors.As(err, &rfe) {
		return rfe.StatusCode
	}
	var rce *RemoteConflictError
	if errors.As(err, &rce) {
		return rce.StatusCode
	}
	return 0
}
