// Package services defines the business logic of the marketplace: catalog,
// messaging, the request workflow, orders, simulated payment and feedback.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// The roots form a small taxonomy. Specific errors wrap a root, so callers
// may test either one with errors.Is. Translation into HTTP status codes is
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Taxonomy roots.
var (
	// ErrNotFound indicates that an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates that the actor is not permitted to perform the
	// operation on the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrSelfReference is returned when both parties of an interaction are the
	// same identity.
	ErrSelfReference = errors.New("self reference")

	// ErrAlreadySold is returned when an operation needs an available item.
	ErrAlreadySold = errors.New("item already sold")

	// ErrInvalidInput is returned for malformed or out-of-range input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when a request is not in a status from
	// which the operation may move it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateFeedback is returned when a user has already rated an order.
	ErrDuplicateFeedback = errors.New("feedback already exists")
)

// Specific errors.
var (
	ErrItemNotFound    = fmt.Errorf("item %w", ErrNotFound)
	ErrRequestNotFound = fmt.Errorf("request %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("message %w", ErrNotFound)

	// ErrSelfRequest is returned when an owner requests their own item.
	ErrSelfRequest = fmt.Errorf("cannot request your own item: %w", ErrSelfReference)
	// ErrInvalidParty is returned when a message is addressed to its sender.
	ErrInvalidParty = fmt.Errorf("sender and receiver must differ: %w", ErrSelfReference)

	ErrInvalidRating = fmt.Errorf("rating must be between 1 and 5: %w", ErrInvalidInput)
	ErrInvalidPrice  = fmt.Errorf("price must be positive, below 10^10, with at most two decimals: %w", ErrInvalidInput)
	ErrBlankField    = fmt.Errorf("required field is blank: %w", ErrInvalidInput)
)

// blank reports a specific empty field while still matching ErrBlankField.
func blank(field string) error {
	return fmt.Errorf("%s: %w", field, ErrBlankField)
}
