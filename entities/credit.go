package entities

import (
	"time"

	"github.com/google/uuid"
)

type PackageStatus string

const (
	PackageActive  PackageStatus = "ACTIVE"
	PackageExpired PackageStatus = "EXPIRED"
)

type TransactionKind string

const (
	KindWelcomeBonus TransactionKind = "WELCOME_BONUS"
	KindPurchase     TransactionKind = "PURCHASE"
	KindSpent        TransactionKind = "SPENT"
	KindRefund       TransactionKind = "REFUND"
)

// CreditAccount holds the spendable balance. It is only ever mutated inside
// a ledger transaction holding a row lock on this record.
type CreditAccount struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID  uuid.UUID `gorm:"uniqueIndex" json:"user_id"`
	Credits int       `json:"credits"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}

type CreditPackage struct {
	ID                   uuid.UUID     `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID               uuid.UUID     `gorm:"index" json:"user_id"`
	PackageType          string        `json:"package_type"` // STARTER, FAMILY, WELLNESS
	TotalCredits         int           `json:"total_credits"`
	CreditsUsed          int           `json:"credits_used"`
	CreditsRemaining     int           `json:"credits_remaining"`
	PriceKsh             float64       `json:"price_ksh"`
	PricePerConsultation float64       `json:"price_per_consultation"`
	IsShareable          bool          `json:"is_shareable"`
	Status               PackageStatus `gorm:"type:varchar(16);index" json:"status"`
	PurchasedAt          time.Time     `json:"purchased_at"`
	ValidUntil           time.Time     `json:"valid_until"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}

// CreditTransaction is the append-only ledger. Rows are never updated or
// deleted; replaying amounts in creation order reproduces the balance.
type CreditTransaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID        uuid.UUID       `gorm:"index" json:"user_id"`
	Amount        int             `json:"amount"` // positive = credit, negative = debit
	Kind          TransactionKind `gorm:"type:varchar(16)" json:"kind"`
	Description   string          `json:"description"`
	BalanceBefore int             `json:"balance_before"`
	BalanceAfter  int             `json:"balance_after"`
	PackageID     *uuid.UUID      `json:"package_id,omitempty"`
	AppointmentID *uuid.UUID      `json:"appointment_id,omitempty"`

	User        *User          `gorm:"foreignKey:UserID"`
	Package     *CreditPackage `gorm:"foreignKey:PackageID"`
	Appointment *Appointment   `gorm:"foreignKey:AppointmentID"`
	Timestamp
}
