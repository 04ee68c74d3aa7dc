package ledger

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
	LedgerRepository interface {
		CreateAccount(ctx context.Context, tx *gorm.DB, account *entities.CreditAccount) error
		GetAccount(ctx context.Context, userID uuid.UUID) (*entities.CreditAccount, error)
		// GetAccountForUpdate takes a row lock; every balance read-modify-write
		// serializes on it.
		GetAccountForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditAccount, error)
		UpdateAccountCredits(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, credits int) error

		HasWelcomeBonusDebit(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error)

		GetActivePackage(ctx context.Context, userID uuid.UUID) (*entities.CreditPackage, error)
		GetActivePackageForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditPackage, error)
		GetPackageForUpdate(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (*entities.CreditPackage, error)
		SavePackage(ctx context.Context, tx *gorm.DB, pkg *entities.CreditPackage) error

		CreateTransaction(ctx context.Context, tx *gorm.DB, entry *entities.CreditTransaction) error
		GetUserTransactions(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entities.CreditTransaction, int64, error)
	}

	ledgerRepository struct {
		db *gorm.DB
	}
)

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateAccount(ctx context.Context, tx *gorm.DB, account *entities.CreditAccount) error {
	return tx.WithContext(ctx).Create(account).Error
}

func (r *ledgerRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*entities.CreditAccount, error) {
	var account entities.CreditAccount
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) GetAccountForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditAccount, error) {
	var account entities.CreditAccount
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) UpdateAccountCredits(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, credits int) error {
	result := tx.WithContext(ctx).
		Model(&entities.CreditAccount{}).
		Where("id = ?", accountID).
		Update("credits", credits)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *ledgerRepository) HasWelcomeBonusDebit(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&entities.CreditTransaction{}).
		Where("user_id = ? AND kind = ? AND amount < 0", userID, entities.KindWelcomeBonus).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ledgerRepository) GetActivePackage(ctx context.Context, userID uuid.UUID) (*entities.CreditPackage, error) {
	return getActivePackage(ctx, r.db, userID, false)
}

func (r *ledgerRepository) GetActivePackageForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditPackage, error) {
	return getActivePackage(ctx, tx, userID, true)
}

func getActivePackage(ctx context.Context, db *gorm.DB, userID uuid.UUID, forUpdate bool) (*entities.CreditPackage, error) {
	var pkg entities.CreditPackage
	query := db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND valid_until > ?", userID, entities.PackageActive, time.Now()).
		Order("purchased_at DESC")
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoActivePackage
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *ledgerRepository) GetPackageForUpdate(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (*entities.CreditPackage, error) {
	var pkg entities.CreditPackage
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", packageID).
		First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *ledgerRepository) SavePackage(ctx context.Context, tx *gorm.DB, pkg *entities.CreditPackage) error {
	return tx.WithContext(ctx).Save(pkg).Error
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *gorm.DB, entry *entities.CreditTransaction) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) GetUserTransactions(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entities.CreditTransaction, int64, error) {
	var transactions []*entities.CreditTransaction
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.CreditTransaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, count, nil
}
