package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/Hakheem/TibaPoint-sub001/internal/utils/database"
	"github.com/Hakheem/TibaPoint-sub001/pkg/ledger"
	"github.com/Hakheem/TibaPoint-sub001/pkg/notification"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	BookingService interface {
		CreateSlots(ctx context.Context, doctorID string, req domain.CreateSlotsRequest) ([]*domain.SlotResponse, error)
		GetDoctorSlots(ctx context.Context, doctorID string, onlyOpen bool) ([]*domain.SlotResponse, error)

		Book(ctx context.Context, patientID string, req domain.BookAppointmentRequest) (*domain.AppointmentResponse, error)
		Reschedule(ctx context.Context, appointmentID, patientID string, req domain.RescheduleRequest) (*domain.AppointmentResponse, error)
		Cancel(ctx context.Context, appointmentID, cancelledBy string, req domain.CancelAppointmentRequest) (*domain.CancelAppointmentResponse, error)
		Confirm(ctx context.Context, appointmentID, doctorID string) (*domain.AppointmentResponse, error)
		StartSession(ctx context.Context, appointmentID, doctorID string) (*domain.AppointmentResponse, error)
		Complete(ctx context.Context, appointmentID, doctorID string, req domain.CompleteAppointmentRequest) (*domain.AppointmentResponse, error)
		MarkNoShow(ctx context.Context, appointmentID, doctorID string) (*domain.AppointmentResponse, error)

		GetPatientAppointments(ctx context.Context, patientID string, page, limit int) ([]*domain.AppointmentResponse, int64, error)
		GetDoctorAppointments(ctx context.Context, doctorID string, page, limit int) ([]*domain.AppointmentResponse, int64, error)
	}

	bookingService struct {
		runInTx             database.TxRunner
		bookingRepository   BookingRepository
		ledgerService       ledger.LedgerService
		notificationService notification.NotificationService
	}
)

func NewBookingService(db *gorm.DB, bookingRepository BookingRepository, ledgerService ledger.LedgerService, notificationService notification.NotificationService) BookingService {
	return &bookingService{
		runInTx:             database.GormTxRunner(db),
		bookingRepository:   bookingRepository,
		ledgerService:       ledgerService,
		notificationService: notificationService,
	}
}

func (s *bookingService) CreateSlots(ctx context.Context, doctorID string, req domain.CreateSlotsRequest) ([]*domain.SlotResponse, error) {
	doctorUUID, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	slots := make([]*entities.AvailabilitySlot, 0, len(req.Slots))
	for _, window := range req.Slots {
		if !window.EndTime.After(window.StartTime) {
			return nil, domain.ErrSlotInPast
		}
		if window.StartTime.Before(time.Now()) {
			return nil, domain.ErrSlotInPast
		}
		slots = append(slots, &entities.AvailabilitySlot{
			ID:        uuid.New(),
			DoctorID:  doctorUUID,
			StartTime: window.StartTime,
			EndTime:   window.EndTime,
			Status:    entities.SlotOpen,
		})
	}

	if err := s.bookingRepository.CreateSlots(ctx, slots); err != nil {
		return nil, err
	}

	result := make([]*domain.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		result = append(result, slotResponse(slot))
	}
	return result, nil
}

func (s *bookingService) GetDoctorSlots(ctx context.Context, doctorID string, onlyOpen bool) ([]*domain.SlotResponse, error) {
	doctorUUID, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	slots, err := s.bookingRepository.GetDoctorSlots(ctx, doctorUUID, onlyOpen)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		result = append(result, slotResponse(slot))
	}
	return result, nil
}

// Book reserves the slot, charges the patient and creates the appointment in
// one transaction. Any failure rolls the whole reservation back: the slot is
// never left booked without a charge, and never charged without the slot.
func (s *bookingService) Book(ctx context.Context, patientID string, req domain.BookAppointmentRequest) (*domain.AppointmentResponse, error) {
	patientUUID, err := uuid.Parse(patientID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	slotUUID, err := uuid.Parse(req.SlotID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	slot, err := s.bookingRepository.GetSlot(ctx, slotUUID)
	if err != nil {
		return nil, err
	}
	if slot.Status != entities.SlotOpen {
		return nil, domain.ErrSlotUnavailable
	}
	if time.Until(slot.StartTime) < domain.MinimumLeadTime {
		return nil, domain.ErrLeadTimeViolation
	}

	var appointment *entities.Appointment
	err = s.runInTx(ctx, func(tx *gorm.DB) error {
		// CAS on the slot row: of two concurrent bookings exactly one wins.
		if err := s.bookingRepository.UpdateSlotStatus(ctx, tx, slot.ID, entities.SlotOpen, entities.SlotBooked); err != nil {
			return err
		}

		appointment = &entities.Appointment{
			ID:             uuid.New(),
			PatientID:      patientUUID,
			DoctorID:       slot.DoctorID,
			SlotID:         slot.ID,
			StartTime:      slot.StartTime,
			EndTime:        slot.EndTime,
			Status:         entities.StatusScheduled,
			Description:    req.Description,
			CreditsCharged: domain.CreditsPerConsultation,
		}
		if err := s.bookingRepository.CreateAppointment(ctx, tx, appointment); err != nil {
			return err
		}

		appointmentID := appointment.ID
		_, fundingPackage, err := s.ledgerService.DeductTx(ctx, tx, patientUUID, domain.CreditsPerConsultation, domain.LedgerReason{
			Description:   fmt.Sprintf("Consultation booked for %s", slot.StartTime.Format("2006-01-02 15:04")),
			AppointmentID: &appointmentID,
		})
		if err != nil {
			return err
		}

		if fundingPackage != nil {
			pkgID := fundingPackage.ID
			appointment.FundingPackageID = &pkgID
			appointment.PackagePrice = fundingPackage.PricePerConsultation
			if err := s.bookingRepository.SaveAppointment(ctx, tx, appointment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	appointmentID := appointment.ID
	s.notificationService.Notify(ctx, patientUUID, notification.KindAppointmentBooked,
		"Appointment booked",
		fmt.Sprintf("Your consultation on %s is scheduled", appointment.StartTime.Format("Mon, 2 Jan 15:04")),
		&appointmentID)
	s.notificationService.Notify(ctx, appointment.DoctorID, notification.KindAppointmentBooked,
		"New appointment",
		fmt.Sprintf("A consultation was booked for %s", appointment.StartTime.Format("Mon, 2 Jan 15:04")),
		&appointmentID)

	return appointmentResponse(appointment), nil
}

// Reschedule swaps the reserved slot without touching credits.
func (s *bookingService) Reschedule(ctx context.Context, appointmentID, patientID string, req domain.RescheduleRequest) (*domain.AppointmentResponse, error) {
	appointmentUUID, err := uuid.Parse(appointmentID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	patientUUID, err := uuid.Parse(patientID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	newSlotUUID, err := uuid.Parse(req.NewSlotID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	var appointment *entities.Appointment
	err = s.runInTx(ctx, func(tx *gorm.DB) error {
		appointment, err = s.bookingRepository.GetAppointmentForUpdate(ctx, tx, appointmentUUID)
		if err != nil {
			return err
		}
		if appointment.PatientID != patientUUID {
			return domain.ErrNotParticipant
		}
		if appointment.Status != entities.StatusScheduled && appointment.Status != entities.StatusConfirmed {
			return domain.ErrInvalidTransition
		}

		newSlot, err := s.bookingRepository.GetSlot(ctx, newSlotUUID)
		if err != nil {
			return err
		}
		if time.Until(newSlot.StartTime) < domain.MinimumLeadTime {
			return domain.ErrLeadTimeViolation
		}

		if err := s.bookingRepository.UpdateSlotStatus(ctx, tx, newSlot.ID, entities.SlotOpen, entities.SlotBooked); err != nil {
			return err
		}
		if err := s.bookingRepository.UpdateSlotStatus(ctx, tx, appointment.SlotID, entities.SlotBooked, entities.SlotOpen); err != nil {
			return err
		}

		appointment.SlotID = newSlot.ID
		appointment.DoctorID = newSlot.DoctorID
		appointment.StartTime = newSlot.StartTime
		appointment.EndTime = newSlot.EndTime
		return s.bookingRepository.SaveAppointment(ctx, tx, appointment)
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(ctx, appointment.DoctorID, notification.KindAppointmentBooked,
		"Appointment rescheduled",
		fmt.Sprintf("A consultation moved to %s", appointment.StartTime.Format("Mon, 2 Jan 15:04")),
		&appointmentUUID)

	return appointmentResponse(appointment), nil
}

// Cancel applies the time-window refund policy and releases the slot. The
// appointment row lock makes duplicate cancellation requests serialize; the
// loser sees CANCELLED and gets ErrAlreadyCancelled instead of a second refund.
func (s *bookingService) Cancel(ctx context.Context, appointmentID, cancelledBy string, req domain.CancelAppointmentRequest) (*domain.CancelAppointmentResponse, error) {
	appointmentUUID, err := uuid.Parse(appointmentID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	cancellerUUID, err := uuid.Parse(cancelledBy)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	var (
		appointment *entities.Appointment
		refunded    int
	)
	err = s.runInTx(ctx, func(tx *gorm.DB) error {
		appointment, err = s.bookingRepository.GetAppointmentForUpdate(ctx, tx, appointmentUUID)
		if err != nil {
			return err
		}
		if appointment.PatientID != cancellerUUID && appointment.DoctorID != cancellerUUID {
			return domain.ErrNotParticipant
		}
		if appointment.Status == entities.StatusCancelled {
			return domain.ErrAlreadyCancelled
		}
		if !CanTransition(appointment.Status, entities.StatusCancelled) {
			return domain.ErrInvalidTransition
		}

		// One clock reading decides both the refund amount and the recorded tier.
		untilStart := time.Until(appointment.StartTime)
		refunded = RefundCredits(appointment.CreditsCharged, untilStart)
		if refunded > 0 {
			_, err := s.ledgerService.CreditTx(ctx, tx, appointment.PatientID, refunded, entities.KindRefund, domain.LedgerReason{
				Description:   fmt.Sprintf("Refund for cancelled consultation (%d%%)", RefundPercent(untilStart)),
				AppointmentID: &appointmentUUID,
				PackageID:     appointment.FundingPackageID,
			})
			if err != nil {
				return err
			}
		}

		if err := s.bookingRepository.UpdateSlotStatus(ctx, tx, appointment.SlotID, entities.SlotBooked, entities.SlotOpen); err != nil {
			return err
		}

		now := time.Now()
		appointment.Status = entities.StatusCancelled
		appointment.CancelledBy = &cancellerUUID
		appointment.CancellationReason = req.Reason
		appointment.CreditsRefunded = refunded
		appointment.CancelledAt = &now
		return s.bookingRepository.SaveAppointment(ctx, tx, appointment)
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(ctx, appointment.PatientID, notification.KindAppointmentCancelled,
		"Appointment cancelled",
		fmt.Sprintf("Your consultation was cancelled, %d credits refunded", refunded),
		&appointmentUUID)
	s.notificationService.Notify(ctx, appointment.DoctorID, notification.KindAppointmentCancelled,
		"Appointment cancelled",
		"A scheduled consultation was cancelled",
		&appointmentUUID)

	return &domain.CancelAppointmentResponse{
		Appointment:     appointmentResponse(appointment),
		RefundedCredits: refunded,
	}, nil
}

func (s *bookingService) Confirm(ctx context.Context, appointmentID, doctorID string) (*domain.AppointmentResponse, error) {
	return s.transition(ctx, appointmentID, doctorID, entities.StatusConfirmed, func(a *entities.Appointment, now time.Time) {
		a.ConfirmedAt = &now
	})
}

func (s *bookingService) StartSession(ctx context.Context, appointmentID, doctorID string) (*domain.AppointmentResponse, error) {
	return s.transition(ctx, appointmentID, doctorID, entities.StatusInProgress, func(a *entities.Appointment, now time.Time) {
		a.StartedAt = &now
	})
}

// Complete finalizes the consultation and records the revenue split.
func (s *bookingService) Complete(ctx context.Context, appointmentID, doctorID string, req domain.CompleteAppointmentRequest) (*domain.AppointmentResponse, error) {
	resp, err := s.transition(ctx, appointmentID, doctorID, entities.StatusCompleted, func(a *entities.Appointment, now time.Time) {
		a.Diagnosis = req.Diagnosis
		a.Prescription = req.Prescription
		a.SessionNotes = req.Notes
		a.HasReview = false
		a.DoctorEarnings, a.PlatformEarnings = SplitEarnings(a)
		a.CompletedAt = &now
	})
	if err != nil {
		return nil, err
	}

	if appointmentUUID, parseErr := uuid.Parse(appointmentID); parseErr == nil {
		if patientUUID, parseErr := uuid.Parse(resp.PatientID); parseErr == nil {
			s.notificationService.Notify(ctx, patientUUID, notification.KindAppointmentCompleted,
				"Consultation completed",
				"Your consultation is complete. You can now leave a review.",
				&appointmentUUID)
		}
	}
	return resp, nil
}

func (s *bookingService) MarkNoShow(ctx context.Context, appointmentID, doctorID string) (*domain.AppointmentResponse, error) {
	return s.transition(ctx, appointmentID, doctorID, entities.StatusNoShow, nil)
}

func (s *bookingService) transition(ctx context.Context, appointmentID, doctorID string, to entities.AppointmentStatus, apply func(*entities.Appointment, time.Time)) (*domain.AppointmentResponse, error) {
	appointmentUUID, err := uuid.Parse(appointmentID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	doctorUUID, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	var appointment *entities.Appointment
	err = s.runInTx(ctx, func(tx *gorm.DB) error {
		appointment, err = s.bookingRepository.GetAppointmentForUpdate(ctx, tx, appointmentUUID)
		if err != nil {
			return err
		}
		if appointment.DoctorID != doctorUUID {
			return domain.ErrNotParticipant
		}
		if !CanTransition(appointment.Status, to) {
			return domain.ErrInvalidTransition
		}

		appointment.Status = to
		if apply != nil {
			apply(appointment, time.Now())
		}
		return s.bookingRepository.SaveAppointment(ctx, tx, appointment)
	})
	if err != nil {
		return nil, err
	}
	return appointmentResponse(appointment), nil
}

func (s *bookingService) GetPatientAppointments(ctx context.Context, patientID string, page, limit int) ([]*domain.AppointmentResponse, int64, error) {
	patientUUID, err := uuid.Parse(patientID)
	if err != nil {
		return nil, 0, domain.ErrParseUUID
	}
	appointments, count, err := s.bookingRepository.ListPatientAppointments(ctx, patientUUID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return appointmentResponses(appointments), count, nil
}

func (s *bookingService) GetDoctorAppointments(ctx context.Context, doctorID string, page, limit int) ([]*domain.AppointmentResponse, int64, error) {
	doctorUUID, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, 0, domain.ErrParseUUID
	}
	appointments, count, err := s.bookingRepository.ListDoctorAppointments(ctx, doctorUUID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return appointmentResponses(appointments), count, nil
}

func slotResponse(slot *entities.AvailabilitySlot) *domain.SlotResponse {
	return &domain.SlotResponse{
		ID:        slot.ID.String(),
		DoctorID:  slot.DoctorID.String(),
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Status:    string(slot.Status),
	}
}

func appointmentResponse(appointment *entities.Appointment) *domain.AppointmentResponse {
	return &domain.AppointmentResponse{
		ID:                 appointment.ID.String(),
		PatientID:          appointment.PatientID.String(),
		DoctorID:           appointment.DoctorID.String(),
		SlotID:             appointment.SlotID.String(),
		StartTime:          appointment.StartTime,
		EndTime:            appointment.EndTime,
		Status:             string(appointment.Status),
		Description:        appointment.Description,
		CreditsCharged:     appointment.CreditsCharged,
		PackagePrice:       appointment.PackagePrice,
		DoctorEarnings:     appointment.DoctorEarnings,
		PlatformEarnings:   appointment.PlatformEarnings,
		CreditsRefunded:    appointment.CreditsRefunded,
		CancellationReason: appointment.CancellationReason,
		HasReview:          appointment.HasReview,
	}
}

func appointmentResponses(appointments []*entities.Appointment) []*domain.AppointmentResponse {
	result := make([]*domain.AppointmentResponse, 0, len(appointments))
	for _, appointment := range appointments {
		result = append(result, appointmentResponse(appointment))
	}
	return result
}
