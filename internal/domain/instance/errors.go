package instance

import (
	"errors"
	"fmt"
)

var (
	ErrInstanceNotFound       = errors.New("instance not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSubdomainTaken         = errors.New("subdomain is already taken")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStateTransition, from, to)
}
