package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/servicelink-api/internal/domain"
)

// codeLength is the number of digits in a generated code. Six digits across a
// ten-minute window keeps the guess probability negligible behind the per-IP
// limiter.
const codeLength = 6

type Service interface {
	// HasExceededLimit reports whether issuance for (email, purpose) has
	// reached maxPerDay within the current UTC calendar day. Calendar-day
	// semantics: the counter resets at midnight UTC, not on a rolling
	// 24h window. No side effects.
	HasExceededLimit(ctx context.Context, email, purpose string, maxPerDay int) (bool, error)

	// Create issues a new code for (email, purpose), replacing any earlier
	// active code for the pair, and logs an issuance event. Returns the code
	// for delivery.
	Create(ctx context.Context, email, userID, purpose string) (string, error)

	// Validate redeems a code. Failures are distinct: domain.ErrCodeNotFound,
	// ErrCodeExpired, ErrCodeMismatch, ErrCodeConsumed. A code validates at
	// most once.
	Validate(ctx context.Context, email, purpose, code string) error
}

type codeStore interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, email, purpose string) (*domain.OTPRecord, error)
	MarkConsumed(ctx context.Context, email, purpose string) error
}

type eventStore interface {
	Append(ctx context.Context, ev *domain.OTPIssuanceEvent) error
	CountSince(ctx context.Context, email, purpose string, since time.Time) (int, error)
}

type service struct {
	codes  codeStore
	events eventStore
	expiry time.Duration
}

type ServiceDeps struct {
	CodeRepo  codeStore
	EventRepo eventStore
	Expiry    time.Duration
}

func NewService(deps ServiceDeps) Service {
	expiry := deps.Expiry
	if expiry <= 0 {
		expiry = 10 * time.Minute
	}
	return &service{codes: deps.CodeRepo, events: deps.EventRepo, expiry: expiry}
}

func (s *service) HasExceededLimit(ctx context.Context, email, purpose string, maxPerDay int) (bool, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	count, err := s.events.CountSince(ctx, email, purpose, dayStart)
	if err != nil {
		return false, fmt.Errorf("count issuance events: %w", err)
	}
	return count >= maxPerDay, nil
}

func (s *service) Create(ctx context.Context, email, userID, purpose string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	rec := &domain.OTPRecord{
		Email:     email,
		Purpose:   purpose,
		UserID:    userID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.expiry).Unix(),
		Consumed:  false,
	}
	// The Put is keyed on (email, purpose), so it invalidates the previous
	// active code and inserts the new one in one write.
	if err := s.codes.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("persist otp record: %w", err)
	}
	ev := &domain.OTPIssuanceEvent{
		PairKey:  domain.OTPPairKey(email, purpose),
		IssuedAt: now.Format(time.RFC3339Nano),
	}
	if err := s.events.Append(ctx, ev); err != nil {
		// The code is already persisted and usable; a missed log row only
		// undercounts the daily limit.
		slog.Warn("failed to append otp issuance event", "purpose", purpose, "err", err)
	}
	return code, nil
}

func (s *service) Validate(ctx context.Context, email, purpose, code string) error {
	rec, err := s.codes.Get(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no code issued for this address: %w", domain.ErrCodeNotFound)
		}
		return fmt.Errorf("fetch otp record: %w", err)
	}
	if rec.Consumed {
		return fmt.Errorf("code was already used: %w", domain.ErrCodeConsumed)
	}
	if time.Now().Unix() >= rec.ExpiresAt {
		return fmt.Errorf("code has expired: %w", domain.ErrCodeExpired)
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return fmt.Errorf("submitted code does not match: %w", domain.ErrCodeMismatch)
	}
	// The conditional flip loses cleanly to a concurrent validation, so a code
	// can never be redeemed twice.
	if err := s.codes.MarkConsumed(ctx, email, purpose); err != nil {
		if errors.Is(err, domain.ErrCodeConsumed) {
			return err
		}
		return fmt.Errorf("mark code consumed: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
