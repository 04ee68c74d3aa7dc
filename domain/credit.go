package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	MessageSuccessGetBalance       = "credit balance retrieved successfully"
	MessageSuccessGetCreditHistory = "credit transaction history retrieved successfully"
	MessageSuccessCheckCredits     = "credit availability checked successfully"

	MessageFailedGetBalance       = "failed to retrieve credit balance"
	MessageFailedGetCreditHistory = "failed to retrieve credit transaction history"
	MessageFailedCheckCredits     = "failed to check credit availability"

	ErrAccountNotFound     = errors.New("credit account not found")
	ErrAccountExists       = errors.New("credit account already exists")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoFundingSource     = errors.New("no funding source available")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrLedgerIntegrity     = errors.New("ledger integrity violation")
)

const (
	// 2 credits buy one consultation.
	CreditsPerConsultation = 2
	WelcomeBonusCredits    = 2
)

// FundingSource identifies what pays for a deduction.
type FundingSource string

const (
	FundingWelcomeBonus FundingSource = "WELCOME_BONUS"
	FundingPackage      FundingSource = "PACKAGE"
)

type (
	// LedgerReason carries the business context a balance change is recorded with.
	LedgerReason struct {
		Description   string
		AppointmentID *uuid.UUID
		PackageID     *uuid.UUID
	}

	ActivePackageSummary struct {
		ID                   string  `json:"id"`
		PackageType          string  `json:"package_type"`
		CreditsRemaining     int     `json:"credits_remaining"`
		TotalCredits         int     `json:"total_credits"`
		PricePerConsultation float64 `json:"price_per_consultation"`
		ValidUntil           string  `json:"valid_until"`
	}

	Balance struct {
		Credits       int                   `json:"credits"`
		ActivePackage *ActivePackageSummary `json:"active_package,omitempty"`
	}

	CreditAvailability struct {
		Available     bool          `json:"available"`
		FundingSource FundingSource `json:"funding_source,omitempty"`
	}

	CreditTransactionResponse struct {
		ID            string    `json:"id"`
		Amount        int       `json:"amount"`
		Kind          string    `json:"kind"`
		Description   string    `json:"description"`
		BalanceBefore int       `json:"balance_before"`
		BalanceAfter  int       `json:"balance_after"`
		PackageID     string    `json:"package_id,omitempty"`
		AppointmentID string    `json:"appointment_id,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}
)
