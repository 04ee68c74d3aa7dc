package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakePlanRepository struct {
	packages map[uuid.UUID]*entities.CreditPackage
	payments map[string]*entities.PaymentRecord

	// consumed by the next CreatePackage call
	createPackageErr error
}

func newFakePlanRepository() *fakePlanRepository {
	return &fakePlanRepository{
		packages: make(map[uuid.UUID]*entities.CreditPackage),
		payments: make(map[string]*entities.PaymentRecord),
	}
}

func (f *fakePlanRepository) CreatePackage(ctx context.Context, tx *gorm.DB, pkg *entities.CreditPackage) error {
	if f.createPackageErr != nil {
		err := f.createPackageErr
		f.createPackageErr = nil
		return err
	}
	copied := *pkg
	f.packages[pkg.ID] = &copied
	return nil
}

func (f *fakePlanRepository) GetActivePackage(ctx context.Context, userID uuid.UUID) (*entities.CreditPackage, error) {
	var latest *entities.CreditPackage
	for _, pkg := range f.packages {
		if pkg.UserID != userID || pkg.Status != entities.PackageActive || !pkg.ValidUntil.After(time.Now()) {
			continue
		}
		if latest == nil || pkg.PurchasedAt.After(latest.PurchasedAt) {
			latest = pkg
		}
	}
	if latest == nil {
		return nil, domain.ErrNoActivePackage
	}
	copied := *latest
	return &copied, nil
}

func (f *fakePlanRepository) GetActivePackageForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditPackage, error) {
	return f.GetActivePackage(ctx, userID)
}

func (f *fakePlanRepository) GetPackageForUpdate(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (*entities.CreditPackage, error) {
	pkg, ok := f.packages[packageID]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	copied := *pkg
	return &copied, nil
}

func (f *fakePlanRepository) SavePackage(ctx context.Context, tx *gorm.DB, pkg *entities.CreditPackage) error {
	copied := *pkg
	f.packages[pkg.ID] = &copied
	return nil
}

func (f *fakePlanRepository) ExpireStalePackages(ctx context.Context, userID uuid.UUID) error {
	for _, pkg := range f.packages {
		if pkg.UserID == userID && pkg.Status == entities.PackageActive && !pkg.ValidUntil.After(time.Now()) {
			pkg.Status = entities.PackageExpired
		}
	}
	return nil
}

func (f *fakePlanRepository) GetUserPackages(ctx context.Context, userID uuid.UUID) ([]*entities.CreditPackage, error) {
	var result []*entities.CreditPackage
	for _, pkg := range f.packages {
		if pkg.UserID == userID {
			copied := *pkg
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakePlanRepository) CreatePaymentRecord(ctx context.Context, record *entities.PaymentRecord) error {
	if _, ok := f.payments[record.ReferenceID]; ok {
		return domain.ErrDuplicateReference
	}
	copied := *record
	f.payments[record.ReferenceID] = &copied
	return nil
}

func (f *fakePlanRepository) GetPaymentByReference(ctx context.Context, referenceID string) (*entities.PaymentRecord, error) {
	record, ok := f.payments[referenceID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakePlanRepository) GetPaymentByReferenceForUpdate(ctx context.Context, tx *gorm.DB, referenceID string) (*entities.PaymentRecord, error) {
	record, ok := f.payments[referenceID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakePlanRepository) SavePaymentRecord(ctx context.Context, tx *gorm.DB, record *entities.PaymentRecord) error {
	copied := *record
	f.payments[record.ReferenceID] = &copied
	return nil
}

type creditCall struct {
	userID uuid.UUID
	amount int
	kind   entities.TransactionKind
	reason domain.LedgerReason
}

type fakeLedgerService struct {
	credits []creditCall
}

func (f *fakeLedgerService) OpenAccount(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditAccount, error) {
	return &entities.CreditAccount{ID: uuid.New(), UserID: userID}, nil
}

func (f *fakeLedgerService) Deduct(ctx context.Context, userID uuid.UUID, amount int, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	return nil, nil
}

func (f *fakeLedgerService) DeductTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, reason domain.LedgerReason) (*entities.CreditTransaction, *entities.CreditPackage, error) {
	return nil, nil, nil
}

func (f *fakeLedgerService) Credit(ctx context.Context, userID uuid.UUID, amount int, kind entities.TransactionKind, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	f.credits = append(f.credits, creditCall{userID, amount, kind, reason})
	return &entities.CreditTransaction{ID: uuid.New()}, nil
}

func (f *fakeLedgerService) CreditTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, kind entities.TransactionKind, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	f.credits = append(f.credits, creditCall{userID, amount, kind, reason})
	return &entities.CreditTransaction{ID: uuid.New()}, nil
}

func (f *fakeLedgerService) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	return &domain.Balance{}, nil
}

func (f *fakeLedgerService) GetHistory(ctx context.Context, userID string, page, limit int) ([]*domain.CreditTransactionResponse, int64, error) {
	return nil, 0, nil
}

func (f *fakeLedgerService) CheckCreditsAvailable(ctx context.Context, userID string) (*domain.CreditAvailability, error) {
	return &domain.CreditAvailability{}, nil
}

type fakePaymentService struct {
	invoices map[string]float64
}

func (f *fakePaymentService) CreateInvoice(ctx context.Context, referenceID string, amountKsh float64, email string) (string, error) {
	if f.invoices == nil {
		f.invoices = make(map[string]float64)
	}
	f.invoices[referenceID] = amountKsh
	return "https://pay.test/" + referenceID, nil
}

func (f *fakePaymentService) CheckStatus(ctx context.Context, referenceID string) (bool, float64, error) {
	return true, f.invoices[referenceID], nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, relatedID *uuid.UUID) {
}

func (noopNotifier) GetUserNotifications(ctx context.Context, userID string, page, limit int) ([]*entities.Notification, int64, error) {
	return nil, 0, nil
}

func (noopNotifier) MarkAsRead(ctx context.Context, id string, userID string) error {
	return nil
}

type fakeDedupStore struct {
	reserved map[string]bool
}

func (f *fakeDedupStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.reserved == nil {
		f.reserved = make(map[string]bool)
	}
	if f.reserved[key] {
		return false, nil
	}
	f.reserved[key] = true
	return true, nil
}

func (f *fakeDedupStore) Release(ctx context.Context, key string) error {
	delete(f.reserved, key)
	return nil
}

func newTestPlanService(repo *fakePlanRepository, ledgerService *fakeLedgerService, paymentService *fakePaymentService) *planService {
	service := NewPlanService(
		nil,
		domain.DefaultPlanCatalog(),
		repo,
		ledgerService,
		paymentService,
		noopNotifier{},
		&fakeDedupStore{},
	).(*planService)
	service.runInTx = func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		return fn(nil)
	}
	return service
}

func seedPendingPayment(repo *fakePlanRepository, userID uuid.UUID, planID string) *entities.PaymentRecord {
	catalog := domain.DefaultPlanCatalog()
	purchased, err := catalog.ByID(planID)
	if err != nil {
		panic(err)
	}
	record := &entities.PaymentRecord{
		ID:          uuid.New(),
		ReferenceID: uuid.New().String(),
		UserID:      userID,
		PlanID:      purchased.ID,
		Kind:        entities.PaymentPurchase,
		AmountKsh:   purchased.PriceKsh,
		Status:      entities.PaymentPending,
	}
	repo.payments[record.ReferenceID] = record
	return record
}

func seedPackage(repo *fakePlanRepository, userID uuid.UUID, planID string, used int) *entities.CreditPackage {
	catalog := domain.DefaultPlanCatalog()
	purchased, err := catalog.ByID(planID)
	if err != nil {
		panic(err)
	}
	pkg := buildPackage(userID, purchased, 0)
	pkg.CreditsUsed = used
	pkg.CreditsRemaining = pkg.TotalCredits - used
	repo.packages[pkg.ID] = pkg
	return pkg
}

func TestPurchaseCreatesPendingPayment(t *testing.T) {
	repo := newFakePlanRepository()
	payments := &fakePaymentService{}
	service := newTestPlanService(repo, &fakeLedgerService{}, payments)
	userID := uuid.New()

	resp, err := service.Purchase(context.Background(), userID.String(), domain.PurchasePlanRequest{
		PlanID: "family",
		Email:  "patient@example.com",
	})
	if err != nil {
		t.Fatalf("Purchase returned error: %v", err)
	}
	if resp.AmountKsh != 6500 {
		t.Errorf("expected amount 6500, got %v", resp.AmountKsh)
	}
	if resp.InvoiceURL == "" {
		t.Errorf("expected an invoice URL")
	}

	record, ok := repo.payments[resp.ReferenceID]
	if !ok {
		t.Fatalf("payment record not stored for reference %s", resp.ReferenceID)
	}
	if record.Status != entities.PaymentPending || record.Kind != entities.PaymentPurchase {
		t.Errorf("unexpected record: status=%s kind=%s", record.Status, record.Kind)
	}
	if record.PlanID != "family" || record.AmountKsh != 6500 {
		t.Errorf("unexpected record: plan=%s amount=%v", record.PlanID, record.AmountKsh)
	}
}

func TestPurchaseUnknownPlan(t *testing.T) {
	repo := newFakePlanRepository()
	service := newTestPlanService(repo, &fakeLedgerService{}, &fakePaymentService{})

	_, err := service.Purchase(context.Background(), uuid.New().String(), domain.PurchasePlanRequest{
		PlanID: "platinum",
		Email:  "patient@example.com",
	})
	if !errors.Is(err, domain.ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestUpgradeChargesPriceGap(t *testing.T) {
	repo := newFakePlanRepository()
	payments := &fakePaymentService{}
	service := newTestPlanService(repo, &fakeLedgerService{}, payments)
	userID := uuid.New()

	seedPackage(repo, userID, "starter", 0)

	resp, err := service.Upgrade(context.Background(), userID.String(), domain.UpgradePlanRequest{
		TargetPlanID: "wellness",
		Email:        "patient@example.com",
	})
	if err != nil {
		t.Fatalf("Upgrade returned error: %v", err)
	}
	if resp.AmountKsh != 8000 {
		t.Errorf("expected price gap 8000, got %v", resp.AmountKsh)
	}

	record := repo.payments[resp.ReferenceID]
	if record == nil || record.Kind != entities.PaymentUpgrade || record.UpgradeFromID == nil {
		t.Fatalf("expected a pending upgrade record referencing the old package, got %+v", record)
	}
}

func TestUpgradeRejectsPartlyUsedPackage(t *testing.T) {
	repo := newFakePlanRepository()
	service := newTestPlanService(repo, &fakeLedgerService{}, &fakePaymentService{})
	userID := uuid.New()

	seedPackage(repo, userID, "starter", 2)

	_, err := service.Upgrade(context.Background(), userID.String(), domain.UpgradePlanRequest{
		TargetPlanID: "wellness",
		Email:        "patient@example.com",
	})
	if !errors.Is(err, domain.ErrPackagePartlyUsed) {
		t.Fatalf("expected ErrPackagePartlyUsed, got %v", err)
	}
}

func TestUpgradeRejectsLowerOrSameTier(t *testing.T) {
	repo := newFakePlanRepository()
	service := newTestPlanService(repo, &fakeLedgerService{}, &fakePaymentService{})
	userID := uuid.New()

	seedPackage(repo, userID, "family", 0)

	for _, target := range []string{"starter", "family"} {
		_, err := service.Upgrade(context.Background(), userID.String(), domain.UpgradePlanRequest{
			TargetPlanID: target,
			Email:        "patient@example.com",
		})
		if !errors.Is(err, domain.ErrNotHigherTier) {
			t.Errorf("target %s: expected ErrNotHigherTier, got %v", target, err)
		}
	}
}

func TestUpgradeWithoutActivePackage(t *testing.T) {
	repo := newFakePlanRepository()
	service := newTestPlanService(repo, &fakeLedgerService{}, &fakePaymentService{})

	_, err := service.Upgrade(context.Background(), uuid.New().String(), domain.UpgradePlanRequest{
		TargetPlanID: "wellness",
		Email:        "patient@example.com",
	})
	if !errors.Is(err, domain.ErrNoActivePackage) {
		t.Fatalf("expected ErrNoActivePackage, got %v", err)
	}
}

func TestApplyPurchaseGrantsPlanCredits(t *testing.T) {
	repo := newFakePlanRepository()
	ledgerService := &fakeLedgerService{}
	service := newTestPlanService(repo, ledgerService, &fakePaymentService{})
	userID := uuid.New()

	catalog := domain.DefaultPlanCatalog()
	purchased, _ := catalog.ByID("family")
	record := &entities.PaymentRecord{
		ID:          uuid.New(),
		ReferenceID: uuid.New().String(),
		UserID:      userID,
		PlanID:      "family",
		Kind:        entities.PaymentPurchase,
		AmountKsh:   purchased.PriceKsh,
		Status:      entities.PaymentPending,
	}

	pkg, err := service.applyPurchase(context.Background(), nil, record, purchased)
	if err != nil {
		t.Fatalf("applyPurchase returned error: %v", err)
	}
	if pkg.TotalCredits != 10 || pkg.CreditsRemaining != 10 {
		t.Errorf("expected 10 credits, got total=%d remaining=%d", pkg.TotalCredits, pkg.CreditsRemaining)
	}
	if pkg.PricePerConsultation != 1300 {
		t.Errorf("expected price per consultation 1300, got %v", pkg.PricePerConsultation)
	}

	if len(ledgerService.credits) != 1 {
		t.Fatalf("expected 1 ledger credit, got %d", len(ledgerService.credits))
	}
	call := ledgerService.credits[0]
	if call.amount != 10 || call.kind != entities.KindPurchase {
		t.Errorf("unexpected ledger credit: amount=%d kind=%s", call.amount, call.kind)
	}
}

func TestApplyUpgradeRollsOverRemainingCredits(t *testing.T) {
	repo := newFakePlanRepository()
	ledgerService := &fakeLedgerService{}
	service := newTestPlanService(repo, ledgerService, &fakePaymentService{})
	userID := uuid.New()

	old := seedPackage(repo, userID, "starter", 0)
	oldID := old.ID

	catalog := domain.DefaultPlanCatalog()
	target, _ := catalog.ByID("wellness")
	record := &entities.PaymentRecord{
		ID:            uuid.New(),
		ReferenceID:   uuid.New().String(),
		UserID:        userID,
		PlanID:        "wellness",
		Kind:          entities.PaymentUpgrade,
		Status:        entities.PaymentPending,
		UpgradeFromID: &oldID,
	}

	pkg, err := service.applyUpgrade(context.Background(), nil, record, target)
	if err != nil {
		t.Fatalf("applyUpgrade returned error: %v", err)
	}

	// Starter carries 4 credits which roll into the 20-credit wellness plan.
	if pkg.TotalCredits != 24 || pkg.CreditsRemaining != 24 {
		t.Errorf("expected rolled over total 24, got total=%d remaining=%d", pkg.TotalCredits, pkg.CreditsRemaining)
	}

	stored := repo.packages[oldID]
	if stored.Status != entities.PackageExpired {
		t.Errorf("old package must be expired, got %s", stored.Status)
	}

	// Only the target plan's own credits hit the ledger; the rollover was
	// granted when the old package was bought.
	if len(ledgerService.credits) != 1 {
		t.Fatalf("expected 1 ledger credit, got %d", len(ledgerService.credits))
	}
	if call := ledgerService.credits[0]; call.amount != 20 || call.kind != entities.KindPurchase {
		t.Errorf("unexpected ledger credit: amount=%d kind=%s", call.amount, call.kind)
	}
}

func TestApplyUpgradeRejectsSpentPackageUnderLock(t *testing.T) {
	repo := newFakePlanRepository()
	ledgerService := &fakeLedgerService{}
	service := newTestPlanService(repo, ledgerService, &fakePaymentService{})
	userID := uuid.New()

	old := seedPackage(repo, userID, "starter", 2)
	oldID := old.ID

	catalog := domain.DefaultPlanCatalog()
	target, _ := catalog.ByID("wellness")
	record := &entities.PaymentRecord{
		ID:            uuid.New(),
		ReferenceID:   uuid.New().String(),
		UserID:        userID,
		PlanID:        "wellness",
		Kind:          entities.PaymentUpgrade,
		Status:        entities.PaymentPending,
		UpgradeFromID: &oldID,
	}

	if _, err := service.applyUpgrade(context.Background(), nil, record, target); !errors.Is(err, domain.ErrUpgradeNotAllowed) {
		t.Fatalf("expected ErrUpgradeNotAllowed, got %v", err)
	}
	if len(ledgerService.credits) != 0 {
		t.Errorf("no ledger credit expected, got %d", len(ledgerService.credits))
	}
}

func TestPaymentConfirmationGrantsOnce(t *testing.T) {
	repo := newFakePlanRepository()
	ledgerService := &fakeLedgerService{}
	service := newTestPlanService(repo, ledgerService, &fakePaymentService{})
	userID := uuid.New()

	record := seedPendingPayment(repo, userID, "family")

	if err := service.OnPaymentConfirmed(context.Background(), record.ReferenceID, record.AmountKsh); err != nil {
		t.Fatalf("OnPaymentConfirmed returned error: %v", err)
	}

	stored := repo.payments[record.ReferenceID]
	if stored.Status != entities.PaymentConfirmed || stored.CreatedPackageID == nil || stored.ProcessedAt == nil {
		t.Fatalf("record not settled: status=%s package=%v processed=%v", stored.Status, stored.CreatedPackageID, stored.ProcessedAt)
	}
	if len(repo.packages) != 1 || len(ledgerService.credits) != 1 {
		t.Fatalf("expected one package and one ledger credit, got %d and %d", len(repo.packages), len(ledgerService.credits))
	}
	if call := ledgerService.credits[0]; call.amount != 10 || call.kind != entities.KindPurchase {
		t.Errorf("unexpected ledger credit: amount=%d kind=%s", call.amount, call.kind)
	}

	// A retried delivery of the same reference must not grant again.
	err := service.OnPaymentConfirmed(context.Background(), record.ReferenceID, record.AmountKsh)
	if !errors.Is(err, domain.ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference on retry, got %v", err)
	}
	if len(repo.packages) != 1 || len(ledgerService.credits) != 1 {
		t.Errorf("retry granted again: %d packages, %d credits", len(repo.packages), len(ledgerService.credits))
	}
}

func TestPaymentConfirmationRetriesAfterFailedAttempt(t *testing.T) {
	repo := newFakePlanRepository()
	ledgerService := &fakeLedgerService{}
	service := newTestPlanService(repo, ledgerService, &fakePaymentService{})
	userID := uuid.New()

	record := seedPendingPayment(repo, userID, "family")
	repo.createPackageErr = errors.New("connection reset by peer")

	err := service.OnPaymentConfirmed(context.Background(), record.ReferenceID, record.AmountKsh)
	if err == nil || errors.Is(err, domain.ErrDuplicateReference) {
		t.Fatalf("expected the transient error to surface, got %v", err)
	}
	if repo.payments[record.ReferenceID].Status != entities.PaymentPending {
		t.Fatalf("record must stay pending after a failed attempt")
	}

	// The gateway retries the same reference. The failed attempt must not have
	// fenced it out: the retry has to grant.
	if err := service.OnPaymentConfirmed(context.Background(), record.ReferenceID, record.AmountKsh); err != nil {
		t.Fatalf("retry after failed attempt returned error: %v", err)
	}
	if repo.payments[record.ReferenceID].Status != entities.PaymentConfirmed {
		t.Errorf("retry did not settle the record")
	}
	if len(repo.packages) != 1 || len(ledgerService.credits) != 1 {
		t.Errorf("expected exactly one grant, got %d packages and %d credits", len(repo.packages), len(ledgerService.credits))
	}
}

func TestPaymentConfirmationPendingHolderNotTreatedAsDuplicate(t *testing.T) {
	repo := newFakePlanRepository()
	ledgerService := &fakeLedgerService{}
	service := newTestPlanService(repo, ledgerService, &fakePaymentService{})
	userID := uuid.New()

	record := seedPendingPayment(repo, userID, "starter")

	// Another delivery holds the dedup window but its record never confirmed.
	dedup := service.dedupStore.(*fakeDedupStore)
	if _, err := dedup.Reserve(context.Background(), "payment:ref:"+record.ReferenceID, domain.PaymentDedupWindow); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if err := service.OnPaymentConfirmed(context.Background(), record.ReferenceID, record.AmountKsh); err != nil {
		t.Fatalf("pending record behind a held window must still confirm, got %v", err)
	}
	if repo.payments[record.ReferenceID].Status != entities.PaymentConfirmed {
		t.Errorf("record not settled")
	}
}

func TestPaymentConfirmationRejectsShortPayment(t *testing.T) {
	repo := newFakePlanRepository()
	ledgerService := &fakeLedgerService{}
	service := newTestPlanService(repo, ledgerService, &fakePaymentService{})
	userID := uuid.New()

	record := seedPendingPayment(repo, userID, "family")

	err := service.OnPaymentConfirmed(context.Background(), record.ReferenceID, 5000)
	if !errors.Is(err, domain.ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if repo.payments[record.ReferenceID].Status != entities.PaymentPending {
		t.Fatalf("short payment must not settle the record")
	}
	if len(repo.packages) != 0 || len(ledgerService.credits) != 0 {
		t.Fatalf("short payment granted credits: %d packages, %d credits", len(repo.packages), len(ledgerService.credits))
	}

	// A corrected settlement for the same reference still goes through.
	if err := service.OnPaymentConfirmed(context.Background(), record.ReferenceID, record.AmountKsh); err != nil {
		t.Fatalf("full settlement after a rejected one returned error: %v", err)
	}
}
