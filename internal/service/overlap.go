package service

import (
	"context"
	"fmt"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"github.com/Eursukkul/car-rental-microservice/internal/repository"
	"gorm.io/gorm"
)

// OverlapChecker decides whether a date range can be granted for a vehicle.
type OverlapChecker struct {
	reservations repository.ReservationRepository
}

func NewOverlapChecker(reservations repository.ReservationRepository) *OverlapChecker {
	return &OverlapChecker{reservations: reservations}
}

// HasConflict reports whether any non-cancelled reservation of the vehicle,
// other than excludeID, overlaps candidate. The caller validates the range.
func (c *OverlapChecker) HasConflict(ctx context.Context, tx *gorm.DB, vehicleID string, candidate models.DateRange, excludeID string) (bool, error) {
	existing, err := c.reservations.FindActiveByVehicle(ctx, tx, vehicleID, excludeID)
	if err != nil {
		return false, fmt.Errorf("load reservations for vehicle %s: %w", vehicleID, err)
	}
	return conflicts(existing, candidate, excludeID), nil
}

func conflicts(existing []models.Reservation, candidate models.DateRange, excludeID string) bool {
	for i := range existing {
		r := &existing[i]
		if r.Status == models.StatusCancelled || (excludeID != "" && r.ID == excludeID) {
			continue
		}
		if r.Range().Overlaps(candidate) {
			return true
		}
	}
	return false
}
