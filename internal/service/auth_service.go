package service

import (
	"context"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"

	"github.com/google/uuid"
)

// AuthServiceImpl implements ports.AuthService for operator accounts.
type AuthServiceImpl struct {
	operatorRepo ports.OperatorRepository
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	operatorRepo ports.OperatorRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		operatorRepo: operatorRepo,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
	}
}

// Register creates a new operator account.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (*domain.Operator, error) {
	existing, err := s.operatorRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	passwordHash, err := s.hashSvc.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	now := time.Now().UTC()
	op := &domain.Operator{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Status:       domain.OperatorStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.operatorRepo.Create(ctx, op); err != nil {
		return nil, apperror.InternalError(err)
	}

	return op, nil
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	op, err := s.operatorRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	if op == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, op.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	if !op.IsActive() {
		return "", time.Time{}, apperror.ErrOperatorSuspended()
	}

	token, expiry, err := s.tokenSvc.Generate(op.ID, op.Username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}

	return token, expiry, nil
}
