package cart

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")

	// ErrInvalidQuantity rejects non-positive quantities before any store
	// call; removal is a distinct operation.
	ErrInvalidQuantity = fmt.Errorf("quantity must be greater than zero: %w", ErrValidation)
)
