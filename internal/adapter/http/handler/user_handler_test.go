package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/cashdesk/internal/adapter/http/dto"
	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

type userServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	getFn    func(ctx context.Context, id string) (*domain.User, error)
	updateFn func(ctx context.Context, input usecase.UpdateUserInput) (*domain.User, error)
	listFn   func(ctx context.Context, page, limit int) ([]*domain.User, error)
}

func (s *userServiceStub) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, input)
}

func (s *userServiceStub) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *userServiceStub) UpdateUser(ctx context.Context, input usecase.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, input)
}

func (s *userServiceStub) ListUsers(ctx context.Context, page, limit int) ([]*domain.User, error) {
	return s.listFn(ctx, page, limit)
}

func TestUserHandler_Create(t *testing.T) {
	h := NewUserHandler(&userServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
			if input.Role != domain.RoleChecker {
				t.Fatalf("unexpected role %q", input.Role)
			}
			return &domain.User{ID: "u1", Email: input.Email, Role: input.Role, Active: true}, nil
		},
	})

	body := `{"email":"c@example.com","name":"C","password":"secret123","role":"Checker"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp dto.UserResponse
	decodeEnvelope(t, rec, &resp)
	if resp.Email != "c@example.com" || resp.Role != "Checker" {
		t.Fatalf("unexpected user %+v", resp)
	}
}

func TestUserHandler_Create_DuplicateEmail(t *testing.T) {
	h := NewUserHandler(&userServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"email":"c@example.com"}`)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestUserHandler_Update(t *testing.T) {
	var captured usecase.UpdateUserInput
	h := NewUserHandler(&userServiceStub{
		updateFn: func(ctx context.Context, input usecase.UpdateUserInput) (*domain.User, error) {
			captured = input
			return &domain.User{ID: input.ID, Role: *input.Role}, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/users/u1", bytes.NewBufferString(`{"role":"Admin"}`)), "id", "u1")
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Role == nil || *captured.Role != domain.RoleAdmin || captured.Active != nil {
		t.Fatalf("unexpected input %+v", captured)
	}
}
