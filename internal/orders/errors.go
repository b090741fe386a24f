package orders

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrForbidden      = errors.New("not authorized")
	ErrNotFound       = errors.New("order not found")
	ErrInvalidState   = errors.New("invalid order state")
	ErrInfrastructure = errors.New("storage failure")

	ErrConflict        = errors.New("order already exists")
	ErrProductNotFound = errors.New("product not found")
)

func validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// wrapStore keeps ErrNotFound visible and classifies anything else as infrastructure.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrInfrastructure, op, err)
}
