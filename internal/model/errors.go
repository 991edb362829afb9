package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// Specific input errors; all match ErrInvalidInput with errors.Is
	ErrInvalidUsername = fmt.Errorf("%w: username required", ErrInvalidInput)
	ErrInvalidElapsed  = fmt.Errorf("%w: invalid timeMs", ErrInvalidInput)
	ErrInvalidScoreID  = fmt.Errorf("%w: invalid id", ErrInvalidInput)
	ErrNameRequired    = fmt.Errorf("%w: name required", ErrInvalidInput)

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthRequired       = errors.New("authentication required")

	// Score errors
	ErrConflict = errors.New("score id already exists")
)
