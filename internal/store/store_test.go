package store

import (
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestBookingStoreInterfaceExists(t *testing.T) {
	// This test simply validates that the BookingStore interface compiles
	// and the sentinel errors are accessible.
	_ = ErrAccountNotFound
	_ = ErrSlotTaken
	_ = ErrInsufficientCredit
	_ = ErrInvalidTransition
	_ = BookSessionParams{}

	// Ensure the interface is non-nil type.
	var _ BookingStore
}
