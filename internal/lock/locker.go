// Package lock provides keyed mutual exclusion used to serialize
// check-then-write sequences per vehicle and per reservation.
package lock

import "context"

// Locker acquires an exclusive lock on key. The returned release func must be
// called exactly once; calling it again is a no-op.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

func VehicleKey(vehicleID string) string { return "vehicle:" + vehicleID }

func ReservationKey(reservationID string) string { return "reservation:" + reservationID }
