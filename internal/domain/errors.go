package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrValidation    = errors.New("validation failed")
	ErrArityMismatch = errors.New("arity mismatch")
	ErrNoMatch       = errors.New("no matching remote category")
	ErrMatchConflict = errors.New("remote category already claimed")
	ErrRemoteAPI     = errors.New("remote api error")
	ErrExtraction    = errors.New("extraction failed")
)

// ValidationError reports malformed local input.
type ValidationError struct {
	Field   string
	Index   int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s[%d]: %s", e.Field, e.Index, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field string, index int, message string) *ValidationError {
	return &ValidationError{Field: field, Index: index, Message: message}
}

// ArityMismatchError reports a selected-names list whose length differs from
// the number of local categories.
type ArityMismatchError struct {
	Expected int
	Got      int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("expected exactly %d selected category names, got %d", e.Expected, e.Got)
}

func (e *ArityMismatchError) Is(target error) bool {
	return target == ErrArityMismatch
}

// MatchError reports a selected name that no remote category contains.
type MatchError struct {
	Index        int
	Category     string
	SelectedName string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("could not match %q (local category %q at position %d) to a remote category",
		e.SelectedName, e.Category, e.Index)
}

func (e *MatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// ConflictError reports a selected name that resolves to a remote category
// already claimed by an earlier local category in the same run.
type ConflictError struct {
	Index        int
	Category     string
	SelectedName string
	RemoteID     CategoryID
	ClaimedBy    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%q (local category %q at position %d) matches remote category %s, already claimed by %q",
		e.SelectedName, e.Category, e.Index, e.RemoteID, e.ClaimedBy)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrMatchConflict
}

// RemoteAPIError is a non-success response from the consent service.
type RemoteAPIError struct {
	Method   string
	Endpoint string
	Status   int
	Body     string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Endpoint, e.Status, e.Body)
}

func (e *RemoteAPIError) Is(target error) bool {
	return target == ErrRemoteAPI
}

// ExtractionError wraps failures while building the local taxonomy.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}
