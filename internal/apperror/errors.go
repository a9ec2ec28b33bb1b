// Package apperror defines the error taxonomy shared by every feature of the listing service.
// Callers classify failures with errors.As against the concrete types below.
package apperror

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input. Nothing is persisted when it is returned.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Constraint)
}

// Validation builds a ValidationError for one field.
func Validation(field, constraint string) *ValidationError {
	return &ValidationError{Field: field, Constraint: constraint}
}

// NotFoundError reports a referenced entity that does not exist or is not visible to the caller.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ParentNotFoundError reports a missing parent category. It unwraps to a NotFoundError.
type ParentNotFoundError struct {
	ParentID string
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent category %q not found", e.ParentID)
}

func (e *ParentNotFoundError) Unwrap() error {
	return &NotFoundError{Entity: "parent category", ID: e.ParentID}
}

// NotOwnerError reports a mutation attempted by someone other than the listing owner.
type NotOwnerError struct {
	ListingID string
	UserID    string
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("user %q does not own listing %q", e.UserID, e.ListingID)
}

// NotAuthorizedError reports an action that requires administrator rights.
type NotAuthorizedError struct {
	Action string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}

// DuplicateSlugError reports a category slug collision anywhere in the tree.
type DuplicateSlugError struct {
	Slug string
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("category slug %q already exists", e.Slug)
}

// InvalidTransitionError reports a state machine move that is not allowed from the current state.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %q cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

// TooManyImagesError reports an image batch that would exceed the per-listing cap.
// Accepted is the number of images from the batch that were persisted before the cap was hit.
type TooManyImagesError struct {
	Limit     int
	Requested int
	Accepted  int
}

func (e *TooManyImagesError) Error() string {
	return fmt.Sprintf("listing image limit is %d: %d of %d images rejected", e.Limit, e.Requested-e.Accepted, e.Requested)
}

// IncompleteOrderError reports a reorder request that is not a permutation of the current image set.
type IncompleteOrderError struct {
	Expected int
	Got      int
	Reason   string
}

func (e *IncompleteOrderError) Error() string {
	return fmt.Sprintf("image order must list exactly the %d current images (got %d): %s", e.Expected, e.Got, e.Reason)
}

// AlreadyResolvedError reports an attempt to resolve a suggestion that left PENDING already.
// It unwraps to an InvalidTransitionError so generic state machine handling also matches.
type AlreadyResolvedError struct {
	SuggestionID string
	Status       string
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("category suggestion %q already resolved as %s", e.SuggestionID, e.Status)
}

func (e *AlreadyResolvedError) Unwrap() error {
	return &InvalidTransitionError{Entity: "category suggestion", ID: e.SuggestionID, From: e.Status, To: "resolved"}
}

// TransientStorageError reports a storage failure the caller may retry as a new logical operation.
type TransientStorageError struct {
	Op  string
	Err error
}

func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("%s: temporary storage failure: %v", e.Op, e.Err)
}

func (e *TransientStorageError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err carries a TransientStorageError.
func IsTransient(err error) bool {
	var te *TransientStorageError
	return errors.As(err, &te)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
