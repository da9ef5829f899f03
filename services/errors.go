package services

import (
	"errors"
	"fmt"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/repository"
)

var (
	// ErrInvalidCredential is returned when the caller credential cannot be decoded.
	ErrInvalidCredential = auth.ErrInvalidCredential
	// ErrNotFound is returned when the target resource is absent.
	ErrNotFound = errors.New("not found")
	// ErrPostNotFound is returned when a post is absent.
	ErrPostNotFound = fmt.Errorf("post %w", ErrNotFound)
	// ErrCommentNotFound is returned when a comment is absent.
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
	// ErrUserNotFound is returned when a user is absent.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrUnauthorized is returned when the caller may not mutate the resource.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreFailure wraps any failed persistence operation.
	ErrStoreFailure = errors.New("store failure")
	// ErrInvalidInput is returned for rejected request values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("conflict")
)

func storeFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}

// lookupFailure maps a Find error onto notFound or a store failure.
func lookupFailure(err, notFound error) error {
	if errors.Is(err, repository.ErrRecordNotFound) {
		return notFound
	}
	return storeFailure(err)
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
