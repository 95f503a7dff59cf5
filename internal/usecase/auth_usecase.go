package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashdesk/internal/domain"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(user *domain.User) (string, error)
}

// AuthUseCase implements password plus emailed one-time-code login.
type AuthUseCase struct {
	users    *UserUseCase
	userRepo UserRepository
	otpStore OTPStore
	notifier Notifier
	tokens   TokenIssuer
	logger   zerolog.Logger
	metrics  MetricsRecorder
	otpTTL   time.Duration
	genCode  func() (string, error)
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(
	users *UserUseCase,
	userRepo UserRepository,
	otpStore OTPStore,
	notifier Notifier,
	tokens TokenIssuer,
	logger zerolog.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		users:    users,
		userRepo: userRepo,
		otpStore: otpStore,
		notifier: notifier,
		tokens:   tokens,
		logger:   logger,
		metrics:  noopMetrics{},
		otpTTL:   DefaultOTPTTL,
		genCode:  generateOTP,
	}
}

// WithOTPTTL sets how long login codes stay valid.
func (uc *AuthUseCase) WithOTPTTL(ttl time.Duration) *AuthUseCase {
	if ttl > 0 {
		uc.otpTTL = ttl
	}
	return uc
}

// WithMetrics sets the domain metrics recorder.
func (uc *AuthUseCase) WithMetrics(m MetricsRecorder) *AuthUseCase {
	if m != nil {
		uc.metrics = m
	}
	return uc
}

// WithCodeGenerator overrides login code generation.
func (uc *AuthUseCase) WithCodeGenerator(gen func() (string, error)) *AuthUseCase {
	uc.genCode = gen
	return uc
}

// LoginResult tells the caller where the code went and for how long it is valid.
type LoginResult struct {
	Email     string
	ExpiresIn time.Duration
}

// VerifyResult carries the issued access token.
type VerifyResult struct {
	Token string
	User  *domain.User
}

// Login checks the password and emails a one-time code.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := uc.users.Authenticate(ctx, AuthenticateInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	code, err := uc.genCode()
	if err != nil {
		return nil, err
	}

	if err := uc.otpStore.Save(ctx, user.Email, code, uc.otpTTL); err != nil {
		return nil, err
	}

	minutes := int(uc.otpTTL / time.Minute)
	text := fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, minutes)
	html := fmt.Sprintf("<p>Your login code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, minutes)

	if err := uc.notifier.Send(ctx, user.Email, "Your login code", text, html); err != nil {
		return nil, err
	}

	uc.metrics.OTPSent()
	uc.logger.Info().Str("user_id", user.ID).Msg("login code sent")

	return &LoginResult{Email: user.Email, ExpiresIn: uc.otpTTL}, nil
}

// VerifyOTP consumes a login code and issues an access token. A code works once.
func (uc *AuthUseCase) VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, domain.Validationf("email and otp are required")
	}

	ok, err := uc.otpStore.Consume(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidOTP
	}

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	token, err := uc.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	user.HashedPassword = ""
	uc.logger.Info().Str("user_id", user.ID).Msg("login verified")

	return &VerifyResult{Token: token, User: user}, nil
}

func generateOTP() (string, error) {
	limit := big.NewInt(1)
	for range OTPDigits {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}
