package user

import (
	"context"
	"errors"
	"testing"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/Hakheem/TibaPoint-sub001/pkg/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepository struct {
	byEmail map[string]*entities.User
	byID    map[uuid.UUID]*entities.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		byEmail: make(map[string]*entities.User),
		byID:    make(map[uuid.UUID]*entities.User),
	}
}

func (f *fakeUserRepository) CreateUser(ctx context.Context, tx *gorm.DB, user *entities.User) error {
	copied := *user
	f.byEmail[user.Email] = &copied
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUserRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func seedUser(repo *fakeUserRepository, email, password string, role entities.Role) *entities.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	user := &entities.User{
		ID:       uuid.New(),
		Name:     "Test User",
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	repo.byEmail[email] = user
	repo.byID[user.ID] = user
	return user
}

type fakeAccountOpener struct {
	opened []uuid.UUID
}

func (f *fakeAccountOpener) OpenAccount(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entities.CreditAccount, error) {
	f.opened = append(f.opened, userID)
	return &entities.CreditAccount{ID: uuid.New(), UserID: userID, Credits: domain.WelcomeBonusCredits}, nil
}

func (f *fakeAccountOpener) Deduct(ctx context.Context, userID uuid.UUID, amount int, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	return nil, nil
}

func (f *fakeAccountOpener) DeductTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, reason domain.LedgerReason) (*entities.CreditTransaction, *entities.CreditPackage, error) {
	return nil, nil, nil
}

func (f *fakeAccountOpener) Credit(ctx context.Context, userID uuid.UUID, amount int, kind entities.TransactionKind, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	return nil, nil
}

func (f *fakeAccountOpener) CreditTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, kind entities.TransactionKind, reason domain.LedgerReason) (*entities.CreditTransaction, error) {
	return nil, nil
}

func (f *fakeAccountOpener) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	return &domain.Balance{}, nil
}

func (f *fakeAccountOpener) GetHistory(ctx context.Context, userID string, page, limit int) ([]*domain.CreditTransactionResponse, int64, error) {
	return nil, 0, nil
}

func (f *fakeAccountOpener) CheckCreditsAvailable(ctx context.Context, userID string) (*domain.CreditAvailability, error) {
	return &domain.CreditAvailability{}, nil
}

func newTestUserService(repo *fakeUserRepository) UserService {
	return newTestUserServiceWithLedger(repo, &fakeAccountOpener{})
}

func newTestUserServiceWithLedger(repo *fakeUserRepository, ledgerService *fakeAccountOpener) UserService {
	service := NewUserService(nil, repo, ledgerService, jwt.NewJWTService()).(*userService)
	service.runInTx = func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		return fn(nil)
	}
	return service
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepository()
	service := newTestUserService(repo)
	seeded := seedUser(repo, "amina@example.com", "correct horse", entities.RolePatient)

	resp, err := service.Login(context.Background(), domain.LoginRequest{
		Email:    "amina@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.Token == "" {
		t.Errorf("expected a token")
	}
	if resp.User.ID != seeded.ID.String() || resp.User.Role != string(entities.RolePatient) {
		t.Errorf("unexpected user payload: %+v", resp.User)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepository()
	service := newTestUserService(repo)
	seedUser(repo, "amina@example.com", "correct horse", entities.RolePatient)

	_, err := service.Login(context.Background(), domain.LoginRequest{
		Email:    "amina@example.com",
		Password: "wrong",
	})
	if !errors.Is(err, domain.ErrCredentialsInvalid) {
		t.Fatalf("expected ErrCredentialsInvalid, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := newFakeUserRepository()
	service := newTestUserService(repo)

	_, err := service.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	// Unknown email and bad password are indistinguishable to the caller.
	if !errors.Is(err, domain.ErrCredentialsInvalid) {
		t.Fatalf("expected ErrCredentialsInvalid, got %v", err)
	}
}

func TestMe(t *testing.T) {
	repo := newFakeUserRepository()
	service := newTestUserService(repo)
	seeded := seedUser(repo, "daktari@example.com", "pw12345678", entities.RoleDoctor)

	resp, err := service.Me(context.Background(), seeded.ID.String())
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if resp.Email != "daktari@example.com" || resp.Role != string(entities.RoleDoctor) {
		t.Errorf("unexpected profile: %+v", resp)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepository()
	service := newTestUserService(repo)
	seedUser(repo, "amina@example.com", "correct horse", entities.RolePatient)

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Amina",
		Email:    "amina@example.com",
		Password: "password123",
		Role:     "PATIENT",
	})
	if !errors.Is(err, domain.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestRegisterOpensAccountForPatientsOnly(t *testing.T) {
	repo := newFakeUserRepository()
	opener := &fakeAccountOpener{}
	service := newTestUserServiceWithLedger(repo, opener)

	patient, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Amina",
		Email:    "amina@example.com",
		Password: "password123",
		Role:     "PATIENT",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if len(opener.opened) != 1 || opener.opened[0].String() != patient.ID {
		t.Fatalf("expected one credit account for the patient, got %v", opener.opened)
	}

	if _, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Dr. Otieno",
		Email:    "otieno@example.com",
		Password: "password123",
		Role:     "DOCTOR",
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if len(opener.opened) != 1 {
		t.Errorf("doctors must not get a credit account, got %v", opener.opened)
	}
}
