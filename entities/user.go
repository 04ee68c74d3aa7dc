package entities

import (
	"github.com/google/uuid"
)

// Role is a closed set; never compare raw strings from the outside world
// against it without going through ParseRole.
type Role string

const (
	RolePatient    Role = "PATIENT"
	RoleDoctor     Role = "DOCTOR"
	RoleAdmin      Role = "ADMIN"
	RoleUnassigned Role = "UNASSIGNED"
)

func ParseRole(s string) Role {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleAdmin:
		return Role(s)
	default:
		return RoleUnassigned
	}
}

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name       string    `json:"name"`
	Email      string    `gorm:"uniqueIndex" json:"email"`
	Password   string    `json:"-"`
	Role       Role      `gorm:"type:varchar(16)" json:"role"`
	Phone      string    `json:"phone,omitempty"`
	Specialty  string    `json:"specialty,omitempty"` // doctors only
	IsVerified bool      `json:"is_verified"`

	CreditAccount *CreditAccount `gorm:"foreignKey:UserID"`
	Timestamp
}
