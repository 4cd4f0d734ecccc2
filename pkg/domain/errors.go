package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrEntityNotFound *notFoundError
	ErrForbidden      = errors.New("caller does not own this resource")
)

type notFoundError struct {
	EntityType string
	ID         uuid.UUID
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.EntityType, e.ID.String())
}

func NewNotFoundError(entityType string, id uuid.UUID) error {
	return &notFoundError{
		EntityType: entityType,
		ID:         id,
	}
}

func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFoundError *notFoundError
	ok := errors.As(err, &notFoundError)
	return ok
}

type upstreamUnavailableError struct {
	Reason string
	Err    error
}

func (e *upstreamUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("upstream unavailable: %s", e.Reason)
}

func (e *upstreamUnavailableError) Unwrap() error {
	return e.Err
}

func NewUpstreamUnavailableError(reason string, err error) error {
	return &upstreamUnavailableError{
		Reason: reason,
		Err:    err,
	}
}

func IsUpstreamUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	var upstreamUnavailableError *upstreamUnavailableError
	ok := errors.As(err, &upstreamUnavailableError)
	return ok
}

