package entities

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotOpen   SlotStatus = "OPEN"
	SlotBooked SlotStatus = "BOOKED"
	SlotClosed SlotStatus = "CLOSED"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "SCHEDULED"
	StatusConfirmed  AppointmentStatus = "CONFIRMED"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusCancelled  AppointmentStatus = "CANCELLED"
	StatusNoShow     AppointmentStatus = "NO_SHOW"
)

// AvailabilitySlot is a concrete bookable window published by a doctor.
// A slot backs at most one non-cancelled appointment.
type AvailabilitySlot struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	DoctorID  uuid.UUID  `gorm:"index" json:"doctor_id"`
	StartTime time.Time  `gorm:"index" json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `gorm:"type:varchar(16)" json:"status"`

	Doctor *User `gorm:"foreignKey:DoctorID"`
	Timestamp
}

type Appointment struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	PatientID          uuid.UUID         `gorm:"index" json:"patient_id"`
	DoctorID           uuid.UUID         `gorm:"index" json:"doctor_id"`
	SlotID             uuid.UUID         `gorm:"index" json:"slot_id"`
	StartTime          time.Time         `json:"start_time"`
	EndTime            time.Time         `json:"end_time"`
	Status             AppointmentStatus `gorm:"type:varchar(16);index" json:"status"`
	Description        string            `json:"description,omitempty"`
	CreditsCharged     int               `json:"credits_charged"`
	PackagePrice       float64           `json:"package_price"` // per-consultation price at charge time, 0 for welcome bonus
	FundingPackageID   *uuid.UUID        `json:"funding_package_id,omitempty"`
	DoctorEarnings     float64           `json:"doctor_earnings"`
	PlatformEarnings   float64           `json:"platform_earnings"`
	CreditsRefunded    int               `json:"credits_refunded"`
	CancelledBy        *uuid.UUID        `json:"cancelled_by,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	Diagnosis          string            `json:"diagnosis,omitempty"`
	Prescription       string            `json:"prescription,omitempty"`
	SessionNotes       string            `json:"session_notes,omitempty"`
	HasReview          bool              `json:"has_review"`
	ConfirmedAt        *time.Time        `json:"confirmed_at,omitempty"`
	StartedAt          *time.Time        `json:"started_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`

	Patient        *User             `gorm:"foreignKey:PatientID"`
	Doctor         *User             `gorm:"foreignKey:DoctorID"`
	Slot           *AvailabilitySlot `gorm:"foreignKey:SlotID"`
	FundingPackage *CreditPackage    `gorm:"foreignKey:FundingPackageID"`
	Timestamp
}
