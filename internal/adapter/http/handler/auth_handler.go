package handler

import (
	"context"
	"net/http"

	"github.com/iho/cashdesk/internal/adapter/http/dto"
	"github.com/iho/cashdesk/internal/usecase"
)

// AuthService defines the behavior needed by AuthHandler.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*usecase.VerifyResult, error)
}

// AuthHandler handles the two-step login
type AuthHandler struct {
	authUC AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUC AuthService) *AuthHandler {
	return &AuthHandler{authUC: authUC}
}

// Login checks credentials and emails a one-time code.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authUC.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, "login failed", err)
		return
	}

	respond(w, http.StatusOK, "OTP sent to your email", dto.LoginResponse{
		Email:     result.Email,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
	})
}

// VerifyOTP exchanges a one-time code for an access token.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "email and otp are required", "")
		return
	}

	result, err := h.authUC.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeDomainError(w, r, "otp verification failed", err)
		return
	}

	respond(w, http.StatusOK, "Login successful", dto.TokenResponse{
		Token: result.Token,
		User:  dto.UserFromDomain(result.User),
	})
}
