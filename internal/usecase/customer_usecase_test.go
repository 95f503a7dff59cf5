package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
	"github.com/iho/cashdesk/internal/usecase/mocks"
)

func TestCustomerUseCase_Create(t *testing.T) {
	repo := mocks.NewMockCustomerRepository()
	uc := usecase.NewCustomerUseCase(repo, mocks.NewMockIDGenerator(), zerolog.Nop())
	ctx := context.Background()

	c, err := uc.Create(ctx, usecase.CreateCustomerInput{
		Name:        " Priya Shah ",
		PhoneNumber: "+91 98200 12345",
		Email:       "Priya@Example.com",
		Actor:       domain.Actor{UserID: "maker-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsActive {
		t.Fatal("expected new customer to be active")
	}
	if c.Name != "Priya Shah" || c.Email != "priya@example.com" {
		t.Fatalf("expected normalized fields, got %+v", c)
	}

	tests := []struct {
		name    string
		input   usecase.CreateCustomerInput
		wantErr error
	}{
		{"duplicate phone", usecase.CreateCustomerInput{Name: "Other", PhoneNumber: "+91 98200 12345"}, domain.ErrDuplicatePhone},
		{"missing name", usecase.CreateCustomerInput{PhoneNumber: "+44 20 7946 0958"}, domain.ErrValidation},
		{"bad phone", usecase.CreateCustomerInput{Name: "Sam", PhoneNumber: "call me"}, domain.ErrValidation},
		{"bad email", usecase.CreateCustomerInput{Name: "Sam", PhoneNumber: "+44 20 7946 0958", Email: "nope"}, domain.ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.Create(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCustomerUseCase_Update(t *testing.T) {
	repo := mocks.NewMockCustomerRepository()
	uc := usecase.NewCustomerUseCase(repo, mocks.NewMockIDGenerator(), zerolog.Nop())
	ctx := context.Background()

	first, err := uc.Create(ctx, usecase.CreateCustomerInput{Name: "A", PhoneNumber: "1111111"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := uc.Create(ctx, usecase.CreateCustomerInput{Name: "B", PhoneNumber: "2222222"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	taken := "1111111"
	if _, err := uc.Update(ctx, usecase.UpdateCustomerInput{ID: second.ID, PhoneNumber: &taken}); !errors.Is(err, domain.ErrDuplicatePhone) {
		t.Fatalf("expected ErrDuplicatePhone, got %v", err)
	}

	// Keeping one's own number is fine.
	active := false
	updated, err := uc.Update(ctx, usecase.UpdateCustomerInput{ID: first.ID, PhoneNumber: &taken, IsActive: &active})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsActive {
		t.Fatal("expected customer to be deactivated")
	}

	if _, err := uc.Update(ctx, usecase.UpdateCustomerInput{ID: "missing"}); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerUseCase_List(t *testing.T) {
	repo := mocks.NewMockCustomerRepository()
	uc := usecase.NewCustomerUseCase(repo, mocks.NewMockIDGenerator(), zerolog.Nop())
	ctx := context.Background()

	for _, in := range []usecase.CreateCustomerInput{
		{Name: "Anil", PhoneNumber: "9000001"},
		{Name: "Bina", PhoneNumber: "9000002"},
		{Name: "Anita", PhoneNumber: "9000003"},
	} {
		if _, err := uc.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.Name, err)
		}
	}

	list, err := uc.List(ctx, "ani", 1, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", list.Total)
	}
	if list.Page.Limit != domain.DefaultPageSize {
		t.Fatalf("expected default limit, got %d", list.Page.Limit)
	}

	list, err = uc.List(ctx, "", 2, 2)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(list.Items) != 1 || list.Total != 3 {
		t.Fatalf("expected 1 item of 3 on page 2, got %d of %d", len(list.Items), list.Total)
	}
}
