package usecase_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
	"github.com/iho/cashdesk/internal/usecase/mocks"
)

type stubUserRepo struct {
	createFn     func(ctx context.Context, user *domain.User) error
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	updateFn     func(ctx context.Context, user *domain.User) error
	listFn       func(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

func (s *stubUserRepo) Create(ctx context.Context, user *domain.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserRepo) Update(ctx context.Context, user *domain.User) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, user)
	}
	return nil
}

func (s *stubUserRepo) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if s.listFn != nil {
		return s.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func TestUserUseCase_CreateUser_Success(t *testing.T) {
	t.Parallel()

	var stored *domain.User
	repo := &stubUserRepo{
		createFn: func(_ context.Context, user *domain.User) error {
			if user.HashedPassword == "" {
				t.Fatal("expected user to be persisted with hashed password")
			}
			copied := *user
			stored = &copied
			return nil
		},
	}

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	user, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{
		Email:    " User@Example.com ",
		Name:     "Alice",
		Password: "StrongPass1",
		Role:     domain.RoleMaker,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored == nil {
		t.Fatal("expected user to be stored")
	}
	if stored.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %s", stored.Email)
	}
	if !stored.Active {
		t.Fatal("expected new user to be active")
	}
	if user.HashedPassword != "" {
		t.Fatal("expected returned user to hide hashed password")
	}
}

func TestUserUseCase_CreateUser_ValidationErrors(t *testing.T) {
	t.Parallel()

	uc := usecase.NewUserUseCase(&stubUserRepo{}, mocks.NewMockIDGenerator())

	tests := []struct {
		name    string
		input   usecase.CreateUserInput
		wantErr error
	}{
		{"bad email", usecase.CreateUserInput{Email: "invalid-email", Password: "StrongPass1", Role: domain.RoleAdmin}, domain.ErrInvalidEmail},
		{"weak password", usecase.CreateUserInput{Email: "user@example.com", Password: "weak", Role: domain.RoleAdmin}, domain.ErrPasswordTooWeak},
		{"unknown role", usecase.CreateUserInput{Email: "user@example.com", Password: "StrongPass1", Role: "Viewer"}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.CreateUser(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserUseCase_CreateUser_DuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{
		getByEmailFn: func(context.Context, string) (*domain.User, error) {
			return &domain.User{ID: "existing"}, nil
		},
	}

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	_, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{
		Email:    "user@example.com",
		Name:     "Bob",
		Password: "StrongPass1",
		Role:     domain.RoleAdmin,
	})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserUseCase_Authenticate(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("StrongPass1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	activeUser := &domain.User{
		ID:             "user-1",
		Email:          "user@example.com",
		HashedPassword: string(hashed),
		Active:         true,
	}

	repo := &stubUserRepo{
		getByEmailFn: func(context.Context, string) (*domain.User, error) {
			copied := *activeUser
			return &copied, nil
		},
	}

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	user, err := uc.Authenticate(context.Background(), usecase.AuthenticateInput{
		Email:    "user@example.com",
		Password: "StrongPass1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID != activeUser.ID {
		t.Fatalf("expected user ID %s, got %s", activeUser.ID, user.ID)
	}
	if user.HashedPassword != "" {
		t.Fatal("expected returned user to hide hashed password")
	}
}

func TestUserUseCase_AuthenticateErrors(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("StrongPass1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	inactiveUser := &domain.User{
		Email:          "user@example.com",
		HashedPassword: string(hashed),
		Active:         false,
	}

	repo := &stubUserRepo{
		getByEmailFn: func(context.Context, string) (*domain.User, error) {
			copied := *inactiveUser
			return &copied, nil
		},
	}

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	_, err = uc.Authenticate(context.Background(), usecase.AuthenticateInput{
		Email:    "user@example.com",
		Password: "StrongPass1",
	})
	if !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}

	repo.getByEmailFn = func(context.Context, string) (*domain.User, error) {
		copied := *inactiveUser
		copied.Active = true
		return &copied, nil
	}

	_, err = uc.Authenticate(context.Background(), usecase.AuthenticateInput{
		Email:    "user@example.com",
		Password: "WrongPass1",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	repo.getByEmailFn = nil

	_, err = uc.Authenticate(context.Background(), usecase.AuthenticateInput{
		Email:    "missing@example.com",
		Password: "StrongPass1",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for missing user, got %v", err)
	}
}

func TestUserUseCase_GetUser(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{
		getByIDFn: func(context.Context, string) (*domain.User, error) {
			return &domain.User{ID: "user-1", HashedPassword: "secret"}, nil
		},
	}

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())
	user, err := uc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.HashedPassword != "" {
		t.Fatal("expected hashed password to be hidden")
	}
}

func TestUserUseCase_UpdateUser(t *testing.T) {
	t.Parallel()

	original := &domain.User{
		ID:             "user-1",
		Name:           "Alice",
		Role:           domain.RoleMaker,
		Active:         true,
		HashedPassword: "old",
	}

	var updated *domain.User
	repo := &stubUserRepo{
		getByIDFn: func(context.Context, string) (*domain.User, error) {
			copyUser := *original
			return &copyUser, nil
		},
		updateFn: func(_ context.Context, user *domain.User) error {
			copied := *user
			updated = &copied
			return nil
		},
	}

	newName := "Bob"
	newRole := domain.RoleChecker
	active := false
	newPassword := "NewStrong1"

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())
	user, err := uc.UpdateUser(context.Background(), usecase.UpdateUserInput{
		ID:       "user-1",
		Name:     &newName,
		Role:     &newRole,
		Active:   &active,
		Password: &newPassword,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated == nil {
		t.Fatal("expected update to be called")
	}
	if updated.Name != newName || updated.Role != newRole || updated.Active != active {
		t.Fatalf("unexpected updated fields: %+v", updated)
	}
	if updated.HashedPassword == "old" {
		t.Fatal("expected password to be rehashed")
	}
	if user.HashedPassword != "" {
		t.Fatal("expected masked password in response")
	}
}

func TestUserUseCase_UpdateUser_Invalid(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{
		getByIDFn: func(context.Context, string) (*domain.User, error) {
			return &domain.User{ID: "user-1"}, nil
		},
	}
	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	invalidRole := domain.Role("Viewer")
	if _, err := uc.UpdateUser(context.Background(), usecase.UpdateUserInput{ID: "user-1", Role: &invalidRole}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for role, got %v", err)
	}

	weak := "weak"
	if _, err := uc.UpdateUser(context.Background(), usecase.UpdateUserInput{ID: "user-1", Password: &weak}); !errors.Is(err, domain.ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}
}

func TestUserUseCase_ListUsers(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int
	repo := &stubUserRepo{
		listFn: func(_ context.Context, limit, offset int) ([]*domain.User, error) {
			gotLimit, gotOffset = limit, offset
			return []*domain.User{{ID: "u-1", HashedPassword: "secret"}}, nil
		},
	}

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())
	users, err := uc.ListUsers(context.Background(), 3, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotLimit != 20 || gotOffset != 40 {
		t.Fatalf("expected limit 20 offset 40, got %d/%d", gotLimit, gotOffset)
	}
	if users[0].HashedPassword != "" {
		t.Fatal("expected hashed passwords to be hidden")
	}
}
