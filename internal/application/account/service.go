package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPasswordHash  = "password_hash"
	fieldEmailVerified = "email_verified"
)

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (string, *domain.User, error)

	// RequestPasswordRecovery issues a reset code to the address. Whether the
	// address belongs to an account is never revealed: an unknown email
	// returns nil exactly like a known one.
	RequestPasswordRecovery(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error

	// RequestEmailVerification issues a verify code to the account's email,
	// or over SMS when viaSMS is set and the account has a phone number.
	RequestEmailVerification(ctx context.Context, userID string, viaSMS bool) error
	ConfirmEmail(ctx context.Context, userID, code string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type otpManager interface {
	HasExceededLimit(ctx context.Context, email, purpose string, maxPerDay int) (bool, error)
	Create(ctx context.Context, email, userID, purpose string) (string, error)
	Validate(ctx context.Context, email, purpose, code string) error
}

type codeMailer interface {
	SendCode(to, name, purpose, code string) error
}

type codeSMSSender interface {
	SendCode(ctx context.Context, to, code string) error
}

type jwtSigner interface {
	Sign(userID, email, role string) (string, error)
}

type service struct {
	users      userStore
	otps       otpManager
	mailer     codeMailer
	smsSender  codeSMSSender
	jwtSigner  jwtSigner
	dailyLimit int
}

type ServiceDeps struct {
	UserRepo    userStore
	OTPManager  otpManager
	Mailer      codeMailer
	SMSSender   codeSMSSender
	JWTProvider jwtSigner
	DailyLimit  int
}

func NewService(deps ServiceDeps) Service {
	limit := deps.DailyLimit
	if limit <= 0 {
		limit = 3
	}
	return &service{
		users:      deps.UserRepo,
		otps:       deps.OTPManager,
		mailer:     deps.Mailer,
		smsSender:  deps.SMSSender,
		jwtSigner:  deps.JWTProvider,
		dailyLimit: limit,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := domain.RoleUser
	if req.Provider {
		role = domain.RoleProvider
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("persist user: %w", err)
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, *domain.User, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	bearer, err := s.jwtSigner.Sign(u.UserID, u.Email, u.Role)
	if err != nil {
		return "", nil, err
	}
	return bearer, u, nil
}

func (s *service) RequestPasswordRecovery(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Same outcome as success so the endpoint can't be used to probe
			// which addresses have accounts.
			slog.Debug("password recovery requested for unknown email")
			return nil
		}
		return fmt.Errorf("look up account: %w", err)
	}

	exceeded, err := s.otps.HasExceededLimit(ctx, email, domain.PurposePasswordReset, s.dailyLimit)
	if err != nil {
		return err
	}
	if exceeded {
		return fmt.Errorf("daily code limit reached: %w", domain.ErrRateLimited)
	}

	code, err := s.otps.Create(ctx, email, u.UserID, domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	if err := s.mailer.SendCode(u.Email, u.FirstName, domain.PurposePasswordReset, code); err != nil {
		slog.Error("failed to send password reset code", "user_id", u.UserID, "err", err)
		return fmt.Errorf("could not send the code: %w", domain.ErrDelivery)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := s.otps.Validate(ctx, req.Email, domain.PurposePasswordReset, req.Code); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("look up account: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

func (s *service) RequestEmailVerification(ctx context.Context, userID string, viaSMS bool) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up account: %w", err)
	}
	if u.EmailVerified {
		return fmt.Errorf("email already verified: %w", domain.ErrConflict)
	}

	exceeded, err := s.otps.HasExceededLimit(ctx, u.Email, domain.PurposeEmailVerify, s.dailyLimit)
	if err != nil {
		return err
	}
	if exceeded {
		return fmt.Errorf("daily code limit reached: %w", domain.ErrRateLimited)
	}

	code, err := s.otps.Create(ctx, u.Email, u.UserID, domain.PurposeEmailVerify)
	if err != nil {
		return err
	}

	if viaSMS {
		if s.smsSender == nil || u.Phone == nil {
			return fmt.Errorf("sms delivery not available for this account: %w", domain.ErrBadRequest)
		}
		if err := s.smsSender.SendCode(ctx, *u.Phone, code); err != nil {
			slog.Error("failed to send verification code over sms", "user_id", u.UserID, "err", err)
			return fmt.Errorf("could not send the code: %w", domain.ErrDelivery)
		}
		return nil
	}
	if err := s.mailer.SendCode(u.Email, u.FirstName, domain.PurposeEmailVerify, code); err != nil {
		slog.Error("failed to send verification code", "user_id", u.UserID, "err", err)
		return fmt.Errorf("could not send the code: %w", domain.ErrDelivery)
	}
	return nil
}

func (s *service) ConfirmEmail(ctx context.Context, userID, code string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up account: %w", err)
	}
	if err := s.otps.Validate(ctx, u.Email, domain.PurposeEmailVerify, code); err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{fieldEmailVerified: true})
}
