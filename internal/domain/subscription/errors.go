package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrSubscriptionCancelled   = errors.New("subscription cancelled")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInstanceRequired        = errors.New("active subscription requires a linked instance")
	ErrInstanceAlreadyHeld     = errors.New("instance is already held by another subscription")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
