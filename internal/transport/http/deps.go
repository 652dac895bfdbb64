package http

import (
	"context"
	"io"
	"time"

	"github.com/servicelink-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// OTPRepository is the minimal interface the router requires from a one-time-code store.
type OTPRepository interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, email, purpose string) (*domain.OTPRecord, error)
	MarkConsumed(ctx context.Context, email, purpose string) error
}

// OTPEventRepository is the minimal interface the router requires from the issuance log.
type OTPEventRepository interface {
	Append(ctx context.Context, ev *domain.OTPIssuanceEvent) error
	CountSince(ctx context.Context, email, purpose string, since time.Time) (int, error)
}

// VerificationRepository is the minimal interface the router requires from a submission store.
type VerificationRepository interface {
	Get(ctx context.Context, userID string) (*domain.VerificationSubmission, error)
	Put(ctx context.Context, sub *domain.VerificationSubmission) error
	SetReview(ctx context.Context, userID, status, reviewerID, reviewerNotes string, reviewedAt time.Time) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
