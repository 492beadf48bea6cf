package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrOracleUnavailable = errors.New("pricing oracle unavailable")
	ErrPersistence       = errors.New("pricing change not persisted")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// persistenceError keeps caller-facing kinds intact and tags everything else
// that broke a pricing transaction as ErrPersistence.
func persistenceError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrInvalidArgument) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
