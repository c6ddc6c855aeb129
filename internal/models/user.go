package models

import "time"

type Role string

const (
	RoleRequester     Role = "requester"
	RoleOperator      Role = "operator"
	RoleAdministrator Role = "administrator"
)

func IsValidRole(role Role) bool {
	switch role {
	case RoleRequester, RoleOperator, RoleAdministrator:
		return true
	default:
		return false
	}
}

// User is the local projection of the identity service's user record.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Email     string    `gorm:"size:255" json:"email"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'requester'" json:"role"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
