package plan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/Hakheem/TibaPoint-sub001/internal/utils/database"
	"github.com/Hakheem/TibaPoint-sub001/pkg/ledger"
	"github.com/Hakheem/TibaPoint-sub001/pkg/notification"
	"github.com/Hakheem/TibaPoint-sub001/pkg/payment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// DedupStore fences retried payment confirmations. Reserve returns false
	// when the key was already taken inside the TTL window; Release drops the
	// key so the next retry can get through after a failed confirmation.
	DedupStore interface {
		Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
		Release(ctx context.Context, key string) error
	}

	PlanService interface {
		GetPlans(ctx context.Context) *domain.PlanCatalog
		GetActive(ctx context.Context, userID string) (*domain.PackageResponse, error)
		GetUserPackages(ctx context.Context, userID string) ([]*domain.PackageResponse, error)
		Purchase(ctx context.Context, userID string, req domain.PurchasePlanRequest) (*domain.CheckoutResponse, error)
		Upgrade(ctx context.Context, userID string, req domain.UpgradePlanRequest) (*domain.CheckoutResponse, error)
		// OnPaymentConfirmed consumes a confirmed gateway result. Safe to call
		// more than once per reference; only the first call grants credits.
		OnPaymentConfirmed(ctx context.Context, referenceID string, amountPaid float64) error
	}

	planService struct {
		runInTx             database.TxRunner
		catalog             *domain.PlanCatalog
		planRepository      PlanRepository
		ledgerService       ledger.LedgerService
		paymentService      payment.PaymentService
		notificationService notification.NotificationService
		dedupStore          DedupStore
	}
)

func NewPlanService(
	db *gorm.DB,
	catalog *domain.PlanCatalog,
	planRepository PlanRepository,
	ledgerService ledger.LedgerService,
	paymentService payment.PaymentService,
	notificationService notification.NotificationService,
	dedupStore DedupStore,
) PlanService {
	return &planService{
		runInTx:             database.GormTxRunner(db),
		catalog:             catalog,
		planRepository:      planRepository,
		ledgerService:       ledgerService,
		paymentService:      paymentService,
		notificationService: notificationService,
		dedupStore:          dedupStore,
	}
}

func (s *planService) GetPlans(ctx context.Context) *domain.PlanCatalog {
	return s.catalog
}

func (s *planService) GetActive(ctx context.Context, userID string) (*domain.PackageResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	if err := s.planRepository.ExpireStalePackages(ctx, userUUID); err != nil {
		return nil, err
	}

	pkg, err := s.planRepository.GetActivePackage(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	return packageResponse(pkg), nil
}

func (s *planService) GetUserPackages(ctx context.Context, userID string) ([]*domain.PackageResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	packages, err := s.planRepository.GetUserPackages(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.PackageResponse, 0, len(packages))
	for _, pkg := range packages {
		result = append(result, packageResponse(pkg))
	}
	return result, nil
}

func (s *planService) Purchase(ctx context.Context, userID string, req domain.PurchasePlanRequest) (*domain.CheckoutResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	selected, err := s.catalog.ByID(req.PlanID)
	if err != nil {
		return nil, err
	}

	referenceID := uuid.New().String()
	record := &entities.PaymentRecord{
		ID:          uuid.New(),
		ReferenceID: referenceID,
		UserID:      userUUID,
		PlanID:      selected.ID,
		Kind:        entities.PaymentPurchase,
		AmountKsh:   selected.PriceKsh,
		Status:      entities.PaymentPending,
	}
	if err := s.planRepository.CreatePaymentRecord(ctx, record); err != nil {
		return nil, err
	}

	invoiceURL, err := s.paymentService.CreateInvoice(ctx, referenceID, selected.PriceKsh, req.Email)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutResponse{
		ReferenceID: referenceID,
		AmountKsh:   selected.PriceKsh,
		InvoiceURL:  invoiceURL,
	}, nil
}

// Upgrade is only open while the current package is untouched and the target
// sits strictly higher in the tier order. The amount due is the price gap;
// remaining credits roll into the new package once payment confirms.
func (s *planService) Upgrade(ctx context.Context, userID string, req domain.UpgradePlanRequest) (*domain.CheckoutResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	target, err := s.catalog.ByID(req.TargetPlanID)
	if err != nil {
		return nil, err
	}

	if err := s.planRepository.ExpireStalePackages(ctx, userUUID); err != nil {
		return nil, err
	}
	current, err := s.planRepository.GetActivePackage(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	if current.CreditsUsed != 0 {
		return nil, domain.ErrPackagePartlyUsed
	}
	if target.Tier() <= domain.TierOf(current.PackageType) {
		return nil, domain.ErrNotHigherTier
	}

	amountDue := target.PriceKsh - current.PriceKsh
	if amountDue < 0 {
		amountDue = 0
	}

	referenceID := uuid.New().String()
	currentID := current.ID
	record := &entities.PaymentRecord{
		ID:            uuid.New(),
		ReferenceID:   referenceID,
		UserID:        userUUID,
		PlanID:        target.ID,
		Kind:          entities.PaymentUpgrade,
		AmountKsh:     amountDue,
		Status:        entities.PaymentPending,
		UpgradeFromID: &currentID,
	}
	if err := s.planRepository.CreatePaymentRecord(ctx, record); err != nil {
		return nil, err
	}

	// Nothing owed, e.g. a promotional price drop. Confirm on the spot.
	if amountDue == 0 {
		if err := s.OnPaymentConfirmed(ctx, referenceID, 0); err != nil {
			return nil, err
		}
		return &domain.CheckoutResponse{ReferenceID: referenceID}, nil
	}

	invoiceURL, err := s.paymentService.CreateInvoice(ctx, referenceID, amountDue, req.Email)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutResponse{
		ReferenceID: referenceID,
		AmountKsh:   amountDue,
		InvoiceURL:  invoiceURL,
	}, nil
}

func (s *planService) OnPaymentConfirmed(ctx context.Context, referenceID string, amountPaid float64) error {
	// Fast path: retried deliveries inside the window never reach the
	// database. The key marks a completed grant, not an attempt, so a holder
	// whose record is still pending falls through to the row lock. Redis
	// being down only disables the fast path; the unique reference row below
	// still guarantees a single grant.
	dedupKey := "payment:ref:" + referenceID
	reserved, err := s.dedupStore.Reserve(ctx, dedupKey, domain.PaymentDedupWindow)
	if err != nil {
		log.Printf("plan: dedup store unavailable for %s, relying on database guard: %v", referenceID, err)
	} else if !reserved {
		existing, lookupErr := s.planRepository.GetPaymentByReference(ctx, referenceID)
		if lookupErr != nil {
			return lookupErr
		}
		if existing.Status == entities.PaymentConfirmed {
			return domain.ErrDuplicateReference
		}
	}

	var (
		record     *entities.PaymentRecord
		newPackage *entities.CreditPackage
	)
	err = s.runInTx(ctx, func(tx *gorm.DB) error {
		record, err = s.planRepository.GetPaymentByReferenceForUpdate(ctx, tx, referenceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPaymentNotFound
			}
			return err
		}
		if record.Status == entities.PaymentConfirmed {
			return domain.ErrDuplicateReference
		}
		if amountPaid < record.AmountKsh {
			return domain.ErrAmountMismatch
		}

		purchased, err := s.catalog.ByID(record.PlanID)
		if err != nil {
			return err
		}

		switch record.Kind {
		case entities.PaymentUpgrade:
			newPackage, err = s.applyUpgrade(ctx, tx, record, purchased)
		default:
			newPackage, err = s.applyPurchase(ctx, tx, record, purchased)
		}
		if err != nil {
			return err
		}

		now := time.Now()
		pkgID := newPackage.ID
		record.Status = entities.PaymentConfirmed
		record.ProcessedAt = &now
		record.CreatedPackageID = &pkgID
		return s.planRepository.SavePaymentRecord(ctx, tx, record)
	})
	if err != nil {
		if reserved && !errors.Is(err, domain.ErrDuplicateReference) {
			if releaseErr := s.dedupStore.Release(ctx, dedupKey); releaseErr != nil {
				log.Printf("plan: failed to release dedup key for %s: %v", referenceID, releaseErr)
			}
		}
		return err
	}

	notifKind := notification.KindPackageActivated
	title := "Package activated"
	if record.Kind == entities.PaymentUpgrade {
		notifKind = notification.KindPackageUpgraded
		title = "Package upgraded"
	}
	pkgID := newPackage.ID
	s.notificationService.Notify(ctx, record.UserID, notifKind, title,
		fmt.Sprintf("Your %s package is now active with %d credits", newPackage.PackageType, newPackage.TotalCredits),
		&pkgID)
	return nil
}

func (s *planService) applyPurchase(ctx context.Context, tx *gorm.DB, record *entities.PaymentRecord, purchased domain.Plan) (*entities.CreditPackage, error) {
	pkg := buildPackage(record.UserID, purchased, 0)
	if err := s.planRepository.CreatePackage(ctx, tx, pkg); err != nil {
		return nil, err
	}

	pkgID := pkg.ID
	_, err := s.ledgerService.CreditTx(ctx, tx, record.UserID, purchased.Credits(), entities.KindPurchase, domain.LedgerReason{
		Description: fmt.Sprintf("Purchased %s package (%d consultations)", purchased.Type, purchased.Consultations),
		PackageID:   &pkgID,
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// applyUpgrade expires the old package and rolls its remaining credits into
// the new one. Only the target plan's own credits hit the ledger; the rolled
// over portion was already granted when the old package was bought.
func (s *planService) applyUpgrade(ctx context.Context, tx *gorm.DB, record *entities.PaymentRecord, purchased domain.Plan) (*entities.CreditPackage, error) {
	if record.UpgradeFromID == nil {
		return nil, domain.ErrUpgradeNotAllowed
	}

	old, err := s.planRepository.GetPackageForUpdate(ctx, tx, *record.UpgradeFromID)
	if err != nil {
		return nil, err
	}
	// Re-checked under the lock: a booking may have spent from the package
	// between checkout and confirmation.
	if old.Status != entities.PackageActive || old.CreditsUsed != 0 {
		return nil, domain.ErrUpgradeNotAllowed
	}

	old.Status = entities.PackageExpired
	if err := s.planRepository.SavePackage(ctx, tx, old); err != nil {
		return nil, err
	}

	pkg := buildPackage(record.UserID, purchased, old.CreditsRemaining)
	if err := s.planRepository.CreatePackage(ctx, tx, pkg); err != nil {
		return nil, err
	}

	pkgID := pkg.ID
	_, err = s.ledgerService.CreditTx(ctx, tx, record.UserID, purchased.Credits(), entities.KindPurchase, domain.LedgerReason{
		Description: fmt.Sprintf("Upgraded to %s package (%d consultations)", purchased.Type, purchased.Consultations),
		PackageID:   &pkgID,
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func buildPackage(userID uuid.UUID, purchased domain.Plan, rolloverCredits int) *entities.CreditPackage {
	now := time.Now()
	total := purchased.Credits() + rolloverCredits
	return &entities.CreditPackage{
		ID:                   uuid.New(),
		UserID:               userID,
		PackageType:          purchased.Type,
		TotalCredits:         total,
		CreditsUsed:          0,
		CreditsRemaining:     total,
		PriceKsh:             purchased.PriceKsh,
		PricePerConsultation: purchased.PricePerConsultation(),
		IsShareable:          purchased.IsShareable,
		Status:               entities.PackageActive,
		PurchasedAt:          now,
		ValidUntil:           now.Add(purchased.Validity()),
	}
}

func packageResponse(pkg *entities.CreditPackage) *domain.PackageResponse {
	return &domain.PackageResponse{
		ID:                   pkg.ID.String(),
		PackageType:          pkg.PackageType,
		TotalCredits:         pkg.TotalCredits,
		CreditsUsed:          pkg.CreditsUsed,
		CreditsRemaining:     pkg.CreditsRemaining,
		PriceKsh:             pkg.PriceKsh,
		PricePerConsultation: pkg.PricePerConsultation,
		IsShareable:          pkg.IsShareable,
		Status:               string(pkg.Status),
		PurchasedAt:          pkg.PurchasedAt.Format(time.RFC3339),
		ValidUntil:           pkg.ValidUntil.Format(time.RFC3339),
	}
}
