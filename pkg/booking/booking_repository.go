package booking

import (
	"context"
	"errors"
	"time"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	BookingRepository interface {
		CreateSlots(ctx context.Context, slots []*entities.AvailabilitySlot) error
		GetSlot(ctx context.Context, id uuid.UUID) (*entities.AvailabilitySlot, error)
		// UpdateSlotStatus is a compare-and-swap; it fails with
		// ErrSlotUnavailable when another transaction already moved the slot.
		UpdateSlotStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to entities.SlotStatus) error
		GetDoctorSlots(ctx context.Context, doctorID uuid.UUID, onlyOpen bool) ([]*entities.AvailabilitySlot, error)

		CreateAppointment(ctx context.Context, tx *gorm.DB, appointment *entities.Appointment) error
		GetAppointment(ctx context.Context, id uuid.UUID) (*entities.Appointment, error)
		GetAppointmentForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*entities.Appointment, error)
		SaveAppointment(ctx context.Context, tx *gorm.DB, appointment *entities.Appointment) error
		ListPatientAppointments(ctx context.Context, patientID uuid.UUID, page, limit int) ([]*entities.Appointment, int64, error)
		ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]*entities.Appointment, int64, error)
	}

	bookingRepository struct {
		db *gorm.DB
	}
)

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) CreateSlots(ctx context.Context, slots []*entities.AvailabilitySlot) error {
	return r.db.WithContext(ctx).Create(slots).Error
}

func (r *bookingRepository) GetSlot(ctx context.Context, id uuid.UUID) (*entities.AvailabilitySlot, error) {
	var slot entities.AvailabilitySlot
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&slot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (r *bookingRepository) UpdateSlotStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to entities.SlotStatus) error {
	result := tx.WithContext(ctx).
		Model(&entities.AvailabilitySlot{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSlotUnavailable
	}
	return nil
}

func (r *bookingRepository) GetDoctorSlots(ctx context.Context, doctorID uuid.UUID, onlyOpen bool) ([]*entities.AvailabilitySlot, error) {
	var slots []*entities.AvailabilitySlot
	query := r.db.WithContext(ctx).
		Where("doctor_id = ? AND start_time > ?", doctorID, time.Now()).
		Order("start_time ASC")
	if onlyOpen {
		query = query.Where("status = ?", entities.SlotOpen)
	}
	if err := query.Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *bookingRepository) CreateAppointment(ctx context.Context, tx *gorm.DB, appointment *entities.Appointment) error {
	return tx.WithContext(ctx).Create(appointment).Error
}

func (r *bookingRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*entities.Appointment, error) {
	var appointment entities.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *bookingRepository) GetAppointmentForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*entities.Appointment, error) {
	var appointment entities.Appointment
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *bookingRepository) SaveAppointment(ctx context.Context, tx *gorm.DB, appointment *entities.Appointment) error {
	return tx.WithContext(ctx).Save(appointment).Error
}

func (r *bookingRepository) ListPatientAppointments(ctx context.Context, patientID uuid.UUID, page, limit int) ([]*entities.Appointment, int64, error) {
	return r.listAppointments(ctx, "patient_id", patientID, page, limit)
}

func (r *bookingRepository) ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]*entities.Appointment, int64, error) {
	return r.listAppointments(ctx, "doctor_id", doctorID, page, limit)
}

func (r *bookingRepository) listAppointments(ctx context.Context, column string, id uuid.UUID, page, limit int) ([]*entities.Appointment, int64, error) {
	var appointments []*entities.Appointment
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.Appointment{}).
		Where(column+" = ?", id).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where(column+" = ?", id).
		Order("start_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&appointments).Error; err != nil {
		return nil, 0, err
	}

	return appointments, count, nil
}
