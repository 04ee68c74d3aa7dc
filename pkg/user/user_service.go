package user

import (
	"context"
	"errors"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/Hakheem/TibaPoint-sub001/internal/utils/database"
	"github.com/Hakheem/TibaPoint-sub001/pkg/jwt"
	"github.com/Hakheem/TibaPoint-sub001/pkg/ledger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (*domain.UserResponse, error)
	}

	userService struct {
		runInTx        database.TxRunner
		userRepository UserRepository
		ledgerService  ledger.LedgerService
		jwtService     jwt.JWTService
	}
)

func NewUserService(db *gorm.DB, userRepository UserRepository, ledgerService ledger.LedgerService, jwtService jwt.JWTService) UserService {
	return &userService{
		runInTx:        database.GormTxRunner(db),
		userRepository: userRepository,
		ledgerService:  ledgerService,
		jwtService:     jwtService,
	}
}

// Register creates the user together with their credit account: the welcome
// bonus grant and the user row commit or roll back as one.
func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserResponse, error) {
	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	newUser := &entities.User{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     entities.ParseRole(req.Role),
		Phone:    req.Phone,
	}

	err = s.runInTx(ctx, func(tx *gorm.DB) error {
		if err := s.userRepository.CreateUser(ctx, tx, newUser); err != nil {
			return err
		}
		// Doctors do not consult, so no credit account for them.
		if newUser.Role != entities.RolePatient {
			return nil
		}
		_, err := s.ledgerService.OpenAccount(ctx, tx, newUser.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return userResponse(newUser), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	found, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrCredentialsInvalid
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.Password), []byte(req.Password)); err != nil {
		return nil, domain.ErrCredentialsInvalid
	}

	token := s.jwtService.GenerateTokenUser(found.ID.String(), string(found.Role))
	return &domain.LoginResponse{
		Token: token,
		User:  *userResponse(found),
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*domain.UserResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	found, err := s.userRepository.GetUserByID(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	return userResponse(found), nil
}

func userResponse(u *entities.User) *domain.UserResponse {
	return &domain.UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Phone:     u.Phone,
		Specialty: u.Specialty,
	}
}
