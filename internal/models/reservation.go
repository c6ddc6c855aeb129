package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusActive    ReservationStatus = "ACTIVE"
	StatusCompleted ReservationStatus = "COMPLETED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// IsTerminal reports whether no further lifecycle transition is possible.
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "UNPAID"
	PaymentPartiallyPaid     PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

type Reservation struct {
	ID              string            `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID       string            `gorm:"size:64;not null;index:idx_reservation_vehicle_dates,priority:1" json:"vehicle_id"`
	RequesterID     string            `gorm:"size:64;not null;index" json:"requester_id"`
	StartDate       time.Time         `gorm:"type:date;not null;index:idx_reservation_vehicle_dates,priority:2" json:"start_date"`
	EndDate         time.Time         `gorm:"type:date;not null;index:idx_reservation_vehicle_dates,priority:3" json:"end_date"`
	TotalPriceCents int64             `gorm:"not null" json:"total_price_cents"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	PaymentStatus   PaymentStatus     `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"payment_status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Range returns the reserved dates as a closed interval.
func (r *Reservation) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// StatusChange is an append-only audit row written for every lifecycle transition.
type StatusChange struct {
	ID            string            `gorm:"type:uuid;primaryKey" json:"id"`
	ReservationID string            `gorm:"type:uuid;not null;index" json:"reservation_id"`
	FromStatus    ReservationStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus      ReservationStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ActorID       string            `gorm:"size:64;not null" json:"actor_id"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (StatusChange) TableName() string { return "reservation_status_changes" }

func (c *StatusChange) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
