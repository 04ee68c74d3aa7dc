package entities

import (
	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID    uuid.UUID  `gorm:"index" json:"user_id"`
	Kind      string     `json:"kind"` // CreditsDeducted, CreditsRefunded, PackageActivated, AppointmentBooked, ...
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	IsRead    bool       `json:"is_read"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
