package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/Hakheem/TibaPoint-sub001/internal/utils/database"
	"github.com/Hakheem/TibaPoint-sub001/pkg/notification"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// LedgerService is the only component allowed to change a credit balance.
	// Every change happens inside one database transaction together with its
	// ledger entry; callers that already hold a transaction use the Tx variants.
	LedgerService interface {
		OpenAccount(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditAccount, error)

		Deduct(ctx context.Context, userID uuid.UUID, amount int, reason domain.LedgerReason) (*entities.CreditTransaction, error)
		DeductTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, reason domain.LedgerReason) (*entities.CreditTransaction, *entities.CreditPackage, error)

		Credit(ctx context.Context, userID uuid.UUID, amount int, kind entities.TransactionKind, reason domain.LedgerReason) (*entities.CreditTransaction, error)
		CreditTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, kind entities.TransactionKind, reason domain.LedgerReason) (*entities.CreditTransaction, error)

		GetBalance(ctx context.Context, userID string) (*domain.Balance, error)
		GetHistory(ctx context.Context, userID string, page, limit int) ([]*domain.CreditTransactionResponse, int64, error)
		CheckCreditsAvailable(ctx context.Context, userID string) (*domain.CreditAvailability, error)
	}

	ledgerService struct {
		db                  *gorm.DB
		runInTx             database.TxRunner
		ledgerRepository    LedgerRepository
		notificationService notification.NotificationService
	}
)

func NewLedgerService(db *gorm.DB, ledgerRepository LedgerRepository, notificationService notification.NotificationService) LedgerService {
	return &ledgerService{
		db:                  db,
		runInTx:             database.GormTxRunner(db),
		ledgerRepository:    ledgerRepository,
		notificationService: notificationService,
	}
}

// OpenAccount creates the credit account with its one-time welcome bonus.
// It runs inside the caller's transaction so a failed registration leaves
// neither an account nor a bonus entry behind.
func (s *ledgerService) OpenAccount(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditAccount, error) {
	account := &entities.CreditAccount{
		ID:      uuid.New(),
		UserID:  userID,
		Credits: domain.WelcomeBonusCredits,
	}
	if err := s.ledgerRepository.CreateAccount(ctx, tx, account); err != nil {
		return nil, err
	}

	entry := &entities.CreditTransaction{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        domain.WelcomeBonusCredits,
		Kind:          entities.KindWelcomeBonus,
		Description:   "Welcome bonus: 1 free consultation",
		BalanceBefore: 0,
		BalanceAfter:  domain.WelcomeBonusCredits,
	}
	if err := s.ledgerRepository.CreateTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *ledgerService) Deduct(ctx context.Context, userID uuid.UUID, amount int, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	var entry *entities.CreditTransaction
	err := s.runInTx(ctx, func(tx *gorm.DB) error {
		var err error
		entry, _, err = s.DeductTx(ctx, tx, userID, amount, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(ctx, userID, notification.KindCreditsDeducted,
		"Credits deducted",
		fmt.Sprintf("%d credits were deducted: %s", amount, reason.Description),
		reason.AppointmentID)
	return entry, nil
}

// DeductTx decrements the balance and writes the matching ledger entry inside
// the supplied transaction. The funding source is resolved by the rule laid
// out on the returned entry's kind: while the account has never spent its
// welcome bonus the bonus pays, afterwards the active package pays. An account
// with a spent bonus and no active package is rejected regardless of its raw
// balance.
func (s *ledgerService) DeductTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, reason domain.LedgerReason) (*entities.CreditTransaction, *entities.CreditPackage, error) {
	if amount <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}

	account, err := s.ledgerRepository.GetAccountForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}
	if account.Credits < amount {
		return nil, nil, domain.ErrInsufficientCredits
	}

	bonusSpent, err := s.ledgerRepository.HasWelcomeBonusDebit(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}

	kind := entities.KindWelcomeBonus
	var fundingPackage *entities.CreditPackage
	if bonusSpent {
		fundingPackage, err = s.ledgerRepository.GetActivePackageForUpdate(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNoActivePackage) {
				return nil, nil, domain.ErrNoFundingSource
			}
			return nil, nil, err
		}
		kind = entities.KindSpent
	}

	newBalance := account.Credits - amount
	if newBalance < 0 {
		return nil, nil, domain.ErrLedgerIntegrity
	}
	if err := s.ledgerRepository.UpdateAccountCredits(ctx, tx, account.ID, newBalance); err != nil {
		return nil, nil, err
	}

	entry := &entities.CreditTransaction{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        -amount,
		Kind:          kind,
		Description:   reason.Description,
		BalanceBefore: account.Credits,
		BalanceAfter:  newBalance,
		AppointmentID: reason.AppointmentID,
	}
	if fundingPackage != nil {
		pkgID := fundingPackage.ID
		entry.PackageID = &pkgID
		consumePackageCredits(fundingPackage, amount)
		if err := s.ledgerRepository.SavePackage(ctx, tx, fundingPackage); err != nil {
			return nil, nil, err
		}
	}

	if err := s.ledgerRepository.CreateTransaction(ctx, tx, entry); err != nil {
		return nil, nil, err
	}
	return entry, fundingPackage, nil
}

func (s *ledgerService) Credit(ctx context.Context, userID uuid.UUID, amount int, kind entities.TransactionKind, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	var entry *entities.CreditTransaction
	err := s.runInTx(ctx, func(tx *gorm.DB) error {
		var err error
		entry, err = s.CreditTx(ctx, tx, userID, amount, kind, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	notifKind := notification.KindCreditsAdded
	if kind == entities.KindRefund {
		notifKind = notification.KindCreditsRefunded
	}
	s.notificationService.Notify(ctx, userID, notifKind,
		"Credits added",
		fmt.Sprintf("%d credits were added: %s", amount, reason.Description),
		reason.AppointmentID)
	return entry, nil
}

// CreditTx increments the balance inside the supplied transaction. A refund
// that names a package restores the package quota symmetrically, clamped so
// neither counter leaves [0, totalCredits].
func (s *ledgerService) CreditTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, kind entities.TransactionKind, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.ledgerRepository.GetAccountForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	newBalance := account.Credits + amount
	if err := s.ledgerRepository.UpdateAccountCredits(ctx, tx, account.ID, newBalance); err != nil {
		return nil, err
	}

	entry := &entities.CreditTransaction{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        amount,
		Kind:          kind,
		Description:   reason.Description,
		BalanceBefore: account.Credits,
		BalanceAfter:  newBalance,
		PackageID:     reason.PackageID,
		AppointmentID: reason.AppointmentID,
	}

	if kind == entities.KindRefund && reason.PackageID != nil {
		pkg, err := s.ledgerRepository.GetPackageForUpdate(ctx, tx, *reason.PackageID)
		if err != nil {
			return nil, err
		}
		restorePackageCredits(pkg, amount)
		if err := s.ledgerRepository.SavePackage(ctx, tx, pkg); err != nil {
			return nil, err
		}
	}

	if err := s.ledgerRepository.CreateTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func consumePackageCredits(pkg *entities.CreditPackage, amount int) {
	pkg.CreditsUsed += amount
	if pkg.CreditsUsed > pkg.TotalCredits {
		pkg.CreditsUsed = pkg.TotalCredits
	}
	pkg.CreditsRemaining = pkg.TotalCredits - pkg.CreditsUsed
}

func restorePackageCredits(pkg *entities.CreditPackage, amount int) {
	pkg.CreditsUsed -= amount
	if pkg.CreditsUsed < 0 {
		pkg.CreditsUsed = 0
	}
	pkg.CreditsRemaining = pkg.TotalCredits - pkg.CreditsUsed
}

func (s *ledgerService) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	account, err := s.ledgerRepository.GetAccount(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	balance := &domain.Balance{Credits: account.Credits}

	pkg, err := s.ledgerRepository.GetActivePackage(ctx, userUUID)
	if err != nil {
		if !errors.Is(err, domain.ErrNoActivePackage) {
			return nil, err
		}
		return balance, nil
	}

	balance.ActivePackage = &domain.ActivePackageSummary{
		ID:                   pkg.ID.String(),
		PackageType:          pkg.PackageType,
		CreditsRemaining:     pkg.CreditsRemaining,
		TotalCredits:         pkg.TotalCredits,
		PricePerConsultation: pkg.PricePerConsultation,
		ValidUntil:           pkg.ValidUntil.Format("2006-01-02"),
	}
	return balance, nil
}

func (s *ledgerService) GetHistory(ctx context.Context, userID string, page, limit int) ([]*domain.CreditTransactionResponse, int64, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, domain.ErrParseUUID
	}

	transactions, count, err := s.ledgerRepository.GetUserTransactions(ctx, userUUID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.CreditTransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp := &domain.CreditTransactionResponse{
			ID:            t.ID.String(),
			Amount:        t.Amount,
			Kind:          string(t.Kind),
			Description:   t.Description,
			BalanceBefore: t.BalanceBefore,
			BalanceAfter:  t.BalanceAfter,
			CreatedAt:     t.CreatedAt,
		}
		if t.PackageID != nil {
			resp.PackageID = t.PackageID.String()
		}
		if t.AppointmentID != nil {
			resp.AppointmentID = t.AppointmentID.String()
		}
		result = append(result, resp)
	}
	return result, count, nil
}

// CheckCreditsAvailable previews the funding-source rule without holding locks.
func (s *ledgerService) CheckCreditsAvailable(ctx context.Context, userID string) (*domain.CreditAvailability, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	account, err := s.ledgerRepository.GetAccount(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if account.Credits < domain.CreditsPerConsultation {
		return &domain.CreditAvailability{Available: false}, nil
	}

	bonusSpent, err := s.ledgerRepository.HasWelcomeBonusDebit(ctx, s.db, userUUID)
	if err != nil {
		return nil, err
	}
	if !bonusSpent {
		return &domain.CreditAvailability{Available: true, FundingSource: domain.FundingWelcomeBonus}, nil
	}

	if _, err := s.ledgerRepository.GetActivePackage(ctx, userUUID); err != nil {
		if errors.Is(err, domain.ErrNoActivePackage) {
			return &domain.CreditAvailability{Available: false}, nil
		}
		return nil, err
	}
	return &domain.CreditAvailability{Available: true, FundingSource: domain.FundingPackage}, nil
}
