package entities

import (
	"time"

	"github.com/google/uuid"
)

type PaymentKind string

const (
	PaymentPurchase PaymentKind = "PURCHASE"
	PaymentUpgrade  PaymentKind = "UPGRADE"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// PaymentRecord tracks one gateway order. The unique reference index is the
// durable guard against double-processing a retried webhook.
type PaymentRecord struct {
	ID               uuid.UUID     `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReferenceID      string        `gorm:"uniqueIndex" json:"reference_id"`
	UserID           uuid.UUID     `gorm:"index" json:"user_id"`
	PlanID           string        `json:"plan_id"`
	Kind             PaymentKind   `gorm:"type:varchar(16)" json:"kind"`
	AmountKsh        float64       `json:"amount_ksh"`
	Status           PaymentStatus `gorm:"type:varchar(16)" json:"status"`
	UpgradeFromID    *uuid.UUID    `json:"upgrade_from_id,omitempty"` // package being replaced, upgrades only
	ProcessedAt      *time.Time    `json:"processed_at,omitempty"`
	CreatedPackageID *uuid.UUID    `json:"created_package_id,omitempty"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
