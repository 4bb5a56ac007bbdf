package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jconn5803/stripe-recurring-revenue/internal/users"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/config"
	pkgmodels "github.com/jconn5803/stripe-recurring-revenue/pkg/db/models"
	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/security"
	"gorm.io/gorm"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	data      map[string]*pkgmodels.User
	created   *pkgmodels.User
	createErr error
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{data: map[string]*pkgmodels.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := &pkgmodels.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: dto.PasswordHash,
	}
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

func newRegisterTestService(t *testing.T) (RegisterService, *stubRegisterUserRepo) {
	t.Helper()
	userRepo := newStubRegisterUserRepo()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc, userRepo
}

func TestRegisterCreatesUser(t *testing.T) {
	svc, userRepo := newRegisterTestService(t)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "New@Example.com",
		Name:     "Test User",
		Password: "Secret123!",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if userRepo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if userRepo.created.Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %q", userRepo.created.Email)
	}
	if dto == nil || dto.Email != "new@example.com" {
		t.Fatalf("expected created user dto, got %+v", dto)
	}

	valid, err := security.VerifyPassword("Secret123!", userRepo.created.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("stored hash does not verify: valid=%v err=%v", valid, err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, userRepo := newRegisterTestService(t)
	userRepo.data["taken@example.com"] = &pkgmodels.User{
		ID:    uuid.New(),
		Email: "taken@example.com",
	}

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "taken@example.com",
		Name:     "Someone Else",
		Password: "Secret123!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if userRepo.created != nil {
		t.Fatalf("expected no user creation on conflict")
	}
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	svc, _ := newRegisterTestService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "   ",
		Name:     "Test User",
		Password: "Secret123!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank email, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Name:     "  ",
		Password: "Secret123!",
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}
