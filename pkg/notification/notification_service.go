package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/Hakheem/TibaPoint-sub001/internal/utils/mailing"
	"github.com/google/uuid"
)

const (
	KindCreditsDeducted      = "CreditsDeducted"
	KindCreditsAdded         = "CreditsAdded"
	KindCreditsRefunded      = "CreditsRefunded"
	KindPackageActivated     = "PackageActivated"
	KindPackageUpgraded      = "PackageUpgraded"
	KindAppointmentBooked    = "AppointmentBooked"
	KindAppointmentCancelled = "AppointmentCancelled"
	KindAppointmentCompleted = "AppointmentCompleted"
	KindAppointmentNoShow    = "AppointmentNoShow"
)

type (
	// NotificationService is a best-effort sink. Notify never returns an
	// error; delivery failures are logged and must not affect the business
	// transaction that triggered them.
	NotificationService interface {
		Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, relatedID *uuid.UUID)
		GetUserNotifications(ctx context.Context, userID string, page, limit int) ([]*entities.Notification, int64, error)
		MarkAsRead(ctx context.Context, id string, userID string) error
	}

	notificationService struct {
		notificationRepository NotificationRepository
		emailEnabled           bool
	}
)

func NewNotificationService(notificationRepository NotificationRepository, emailEnabled bool) NotificationService {
	return &notificationService{
		notificationRepository: notificationRepository,
		emailEnabled:           emailEnabled,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, relatedID *uuid.UUID) {
	notification := &entities.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}

	if err := s.notificationRepository.CreateNotification(ctx, notification); err != nil {
		log.Printf("notification: failed to store %s for user %s: %v", kind, userID, err)
		return
	}

	if !s.emailEnabled {
		return
	}

	email, err := s.notificationRepository.GetUserEmail(ctx, userID)
	if err != nil {
		log.Printf("notification: failed to resolve email for user %s: %v", userID, err)
		return
	}

	go func() {
		body := fmt.Sprintf("<h3>%s</h3><p>%s</p>", title, message)
		if err := mailing.SendMail(email, title, body); err != nil {
			log.Printf("notification: failed to send email %s to %s: %v", kind, email, err)
		}
	}()
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, page, limit int) ([]*entities.Notification, int64, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, err
	}
	return s.notificationRepository.GetUserNotifications(ctx, userUUID, page, limit)
}

func (s *notificationService) MarkAsRead(ctx context.Context, id string, userID string) error {
	notificationUUID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	return s.notificationRepository.MarkAsRead(ctx, notificationUUID, userUUID)
}
