package models

import "time"

// Vehicle is the local projection of the catalog's vehicle record, kept in
// sync by the catalog consumer.
type Vehicle struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	OwnerID     string    `gorm:"size:64;not null;index" json:"owner_id"`
	PlateNumber string    `gorm:"size:32" json:"plate_number"`
	Model       string    `gorm:"size:64" json:"model"`
	Available   bool      `gorm:"not null" json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
