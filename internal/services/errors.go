package services

import "errors"

var (
	// ErrInvalidInput covers malformed emails, weak passwords, empty text and rejected images.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateUser is returned when registering an email that is already taken.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrUnauthorized is returned when a guarded mutation presents a wrong credential.
	ErrUnauthorized = errors.New("unauthorized")

	ErrNotFound = errors.New("not found")

	// ErrGatewayFailure is returned when the content generation model call fails.
	ErrGatewayFailure = errors.New("content generation failed")
)
