package plan

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
	PlanRepository interface {
		CreatePackage(ctx context.Context, tx *gorm.DB, pkg *entities.CreditPackage) error
		GetActivePackage(ctx context.Context, userID uuid.UUID) (*entities.CreditPackage, error)
		GetActivePackageForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditPackage, error)
		GetPackageForUpdate(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (*entities.CreditPackage, error)
		SavePackage(ctx context.Context, tx *gorm.DB, pkg *entities.CreditPackage) error
		ExpireStalePackages(ctx context.Context, userID uuid.UUID) error
		GetUserPackages(ctx context.Context, userID uuid.UUID) ([]*entities.CreditPackage, error)

		CreatePaymentRecord(ctx context.Context, record *entities.PaymentRecord) error
		GetPaymentByReference(ctx context.Context, referenceID string) (*entities.PaymentRecord, error)
		GetPaymentByReferenceForUpdate(ctx context.Context, tx *gorm.DB, referenceID string) (*entities.PaymentRecord, error)
		SavePaymentRecord(ctx context.Context, tx *gorm.DB, record *entities.PaymentRecord) error
	}

	planRepository struct {
		db *gorm.DB
	}
)

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) CreatePackage(ctx context.Context, tx *gorm.DB, pkg *entities.CreditPackage) error {
	return tx.WithContext(ctx).Create(pkg).Error
}

func (r *planRepository) GetActivePackage(ctx context.Context, userID uuid.UUID) (*entities.CreditPackage, error) {
	return r.activePackageQuery(r.db.WithContext(ctx), userID)
}

func (r *planRepository) GetActivePackageForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditPackage, error) {
	return r.activePackageQuery(
		tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}),
		userID,
	)
}

func (r *planRepository) activePackageQuery(db *gorm.DB, userID uuid.UUID) (*entities.CreditPackage, error) {
	var pkg entities.CreditPackage
	if err := db.
		Where("user_id = ? AND status = ? AND valid_until > ?", userID, entities.PackageActive, time.Now()).
		Order("purchased_at DESC").
		First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoActivePackage
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *planRepository) GetPackageForUpdate(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (*entities.CreditPackage, error) {
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

func (r *planRepository) SavePackage(ctx context.Context, tx *gorm.DB, pkg *entities.CreditPackage) error {
	return tx.WithContext(ctx).Save(pkg).Error
}

// ExpireStalePackages flips packages whose validity window has passed.
// Run lazily before active-package reads so expiry needs no background job.
func (r *planRepository) ExpireStalePackages(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.CreditPackage{}).
		Where("user_id = ? AND status = ? AND valid_until <= ?", userID, entities.PackageActive, time.Now()).
		Update("status", entities.PackageExpired).Error
}

func (r *planRepository) GetUserPackages(ctx context.Context, userID uuid.UUID) ([]*entities.CreditPackage, error) {
	var packages []*entities.CreditPackage
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *planRepository) CreatePaymentRecord(ctx context.Context, record *entities.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *planRepository) GetPaymentByReference(ctx context.Context, referenceID string) (*entities.PaymentRecord, error) {
	var record entities.PaymentRecord
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *planRepository) GetPaymentByReferenceForUpdate(ctx context.Context, tx *gorm.DB, referenceID string) (*entities.PaymentRecord, error) {
	var record entities.PaymentRecord
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference_id = ?", referenceID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *planRepository) SavePaymentRecord(ctx context.Context, tx *gorm.DB, record *entities.PaymentRecord) error {
	return tx.WithContext(ctx).Save(record).Error
}
