// Package errors defines the sentinel and typed errors shared across the
// catalog service and the API layer.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when creating an entity whose id is
	// already taken.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProvisioning is returned when a setup step fails; provisioning
	// stops at the failed step and no partial index survives.
	ErrProvisioning = errors.New("provisioning failed")
)

// NotFoundError carries which entity was missing.
type NotFoundError struct {
	EntityType string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.EntityType, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entityType, id string) *NotFoundError {
	return &NotFoundError{EntityType: entityType, ID: id}
}

// AlreadyExistsError carries which id collided.
type AlreadyExistsError struct {
	EntityType string
	ID         string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.EntityType, e.ID)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewAlreadyExistsError creates an AlreadyExistsError.
func NewAlreadyExistsError(entityType, id string) *AlreadyExistsError {
	return &AlreadyExistsError{EntityType: entityType, ID: id}
}

// ValidationError carries field-level context for a rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ProvisionError names the setup step that failed.
type ProvisionError struct {
	Step string
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning step '%s' failed: %v", e.Step, e.Err)
}

func (e *ProvisionError) Is(target error) bool {
	return target == ErrProvisioning
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// NewProvisionError creates a ProvisionError.
func NewProvisionError(step string, err error) *ProvisionError {
	return &ProvisionError{Step: step, Err: err}
}
