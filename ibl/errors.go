package ibl

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSize   = errors.New("invalid size")
	ErrInvalidStep   = errors.New("invalid sample step")
	ErrInvalidLevels = errors.New("invalid level count")
	ErrInvalidCount  = errors.New("invalid sample count")
)

func validateSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return nil
}

// validateLevels checks that a chain of levels halving from size does not go below 1x1
func validateLevels(size, levels int) error {
	if err := validateSize(size); err != nil {
		return err
	}
	if levels < 1 || levels > MaxLevels(size) {
		return fmt.Errorf("%w: %d levels for size %d", ErrInvalidLevels, levels, size)
	}
	return nil
}
