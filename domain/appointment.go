package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessBookAppointment   = "appointment booked successfully"
	MessageSuccessReschedule        = "appointment rescheduled successfully"
	MessageSuccessCancelAppointment = "appointment cancelled successfully"
	MessageSuccessConfirm           = "appointment confirmed successfully"
	MessageSuccessStartSession      = "consultation session started"
	MessageSuccessComplete          = "consultation completed successfully"
	MessageSuccessMarkNoShow        = "appointment marked as no-show"
	MessageSuccessGetAppointments   = "appointments retrieved successfully"
	MessageSuccessCreateSlots       = "availability slots created successfully"
	MessageSuccessGetSlots          = "availability slots retrieved successfully"

	MessageFailedBookAppointment   = "failed to book appointment"
	MessageFailedReschedule        = "failed to reschedule appointment"
	MessageFailedCancelAppointment = "failed to cancel appointment"
	MessageFailedConfirm           = "failed to confirm appointment"
	MessageFailedStartSession      = "failed to start consultation session"
	MessageFailedComplete          = "failed to complete consultation"
	MessageFailedMarkNoShow        = "failed to mark appointment as no-show"
	MessageFailedGetAppointments   = "failed to retrieve appointments"
	MessageFailedCreateSlots       = "failed to create availability slots"
	MessageFailedGetSlots          = "failed to retrieve availability slots"

	ErrSlotNotFound        = errors.New("availability slot not found")
	ErrSlotUnavailable     = errors.New("slot is no longer available")
	ErrSlotInPast          = errors.New("slot starts in the past")
	ErrLeadTimeViolation   = errors.New("slot is inside the minimum booking lead time")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTransition   = errors.New("invalid appointment status transition")
	ErrNotParticipant      = errors.New("user is not part of this appointment")
	ErrAlreadyCancelled    = errors.New("appointment is already cancelled")
)

const (
	// Bookings closer than this to the slot start are rejected outright.
	MinimumLeadTime = 12 * time.Hour

	// Refund tiers by hours remaining before the appointment.
	FullRefundThreshold = 24 * time.Hour
	HalfRefundThreshold = 12 * time.Hour

	PlatformSharePercent = 0.12
	DoctorSharePercent   = 0.88
)

type (
	BookAppointmentRequest struct {
		SlotID      string `json:"slot_id" validate:"required,uuid"`
		Description string `json:"description" validate:"max=1000"`
	}

	RescheduleRequest struct {
		NewSlotID string `json:"new_slot_id" validate:"required,uuid"`
	}

	CancelAppointmentRequest struct {
		Reason string `json:"reason" validate:"max=500"`
	}

	CompleteAppointmentRequest struct {
		Diagnosis    string `json:"diagnosis" validate:"max=2000"`
		Prescription string `json:"prescription" validate:"max=2000"`
		Notes        string `json:"notes" validate:"max=2000"`
	}

	CreateSlotsRequest struct {
		Slots []SlotWindow `json:"slots" validate:"required,min=1,dive"`
	}

	SlotWindow struct {
		StartTime time.Time `json:"start_time" validate:"required"`
		EndTime   time.Time `json:"end_time" validate:"required"`
	}

	SlotResponse struct {
		ID        string    `json:"id"`
		DoctorID  string    `json:"doctor_id"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Status    string    `json:"status"`
	}

	AppointmentResponse struct {
		ID                 string    `json:"id"`
		PatientID          string    `json:"patient_id"`
		DoctorID           string    `json:"doctor_id"`
		SlotID             string    `json:"slot_id"`
		StartTime          time.Time `json:"start_time"`
		EndTime            time.Time `json:"end_time"`
		Status             string    `json:"status"`
		Description        string    `json:"description,omitempty"`
		CreditsCharged     int       `json:"credits_charged"`
		PackagePrice       float64   `json:"package_price"`
		DoctorEarnings     float64   `json:"doctor_earnings"`
		PlatformEarnings   float64   `json:"platform_earnings"`
		CreditsRefunded    int       `json:"credits_refunded"`
		CancellationReason string    `json:"cancellation_reason,omitempty"`
		HasReview          bool      `json:"has_review"`
	}

	CancelAppointmentResponse struct {
		Appointment     *AppointmentResponse `json:"appointment"`
		RefundedCredits int                  `json:"refunded_credits"`
	}
)
