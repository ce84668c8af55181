// Package errors provides custom error types for catalog operations.
package errors

import "errors"

var (
	// ErrProductNotFound is returned when the referenced product id does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a stock adjustment would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNoFieldsToUpdate is returned when an update request carries no fields.
	ErrNoFieldsToUpdate = errors.New("no fields to update")

	// ErrInvalidFilter is returned when list pagination parameters are out of range.
	ErrInvalidFilter = errors.New("invalid list filter")

	// ErrStoreUnavailable is returned when the database cannot be reached
	// or an operation timed out waiting for it.
	ErrStoreUnavailable = errors.New("store unavailable")
)
