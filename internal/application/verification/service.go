package verification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/token"
)

// maxDocumentSize is the per-image upload cap (5 MB).
const maxDocumentSize = 5 << 20

// presignTTL is how long reviewer document links stay valid.
const presignTTL = 15 * time.Minute

// Document is an uploaded identity-document image as received at the
// transport boundary. Content type is decided by sniffing the bytes, never
// by trusting the filename.
type Document struct {
	Reader io.Reader
	Size   int64
}

// DocumentLinks are short-lived view URLs for a submission's images.
type DocumentLinks struct {
	FrontURL string `json:"front_url"`
	BackURL  string `json:"back_url"`
}

type Service interface {
	// Status returns the user's current submission, or a not_submitted view
	// when none exists.
	Status(ctx context.Context, userID string) (*domain.VerificationSubmission, error)

	// Submit validates and stores both document images and records a pending
	// submission. Rejected while a submission is pending or approved.
	Submit(ctx context.Context, userID string, front, back Document, notes string) (*domain.VerificationSubmission, error)

	// Review records a reviewer decision on a pending submission.
	// approved is terminal; only pending submissions can be reviewed.
	Review(ctx context.Context, userID, reviewerID string, approve bool, notes string) (*domain.VerificationSubmission, error)

	// Links returns presigned view URLs for a submission's documents.
	Links(ctx context.Context, userID string) (*DocumentLinks, error)
}

type submissionStore interface {
	Get(ctx context.Context, userID string) (*domain.VerificationSubmission, error)
	Put(ctx context.Context, sub *domain.VerificationSubmission) error
	SetReview(ctx context.Context, userID, status, reviewerID, reviewerNotes string, reviewedAt time.Time) error
}

type blobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	subs  submissionStore
	blobs blobStore
}

type ServiceDeps struct {
	SubmissionRepo submissionStore
	BlobStore      blobStore
}

func NewService(deps ServiceDeps) Service {
	return &service{subs: deps.SubmissionRepo, blobs: deps.BlobStore}
}

func (s *service) Status(ctx context.Context, userID string) (*domain.VerificationSubmission, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.VerificationSubmission{
				UserID: userID,
				Status: domain.VerificationNotSubmitted,
			}, nil
		}
		return nil, err
	}
	return sub, nil
}

func (s *service) Submit(ctx context.Context, userID string, front, back Document, notes string) (*domain.VerificationSubmission, error) {
	current, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case domain.VerificationPending:
		return nil, fmt.Errorf("a submission is already under review: %w", domain.ErrConflict)
	case domain.VerificationApproved:
		return nil, fmt.Errorf("identity already verified: %w", domain.ErrConflict)
	}

	frontData, frontType, err := readDocument("front", front)
	if err != nil {
		return nil, err
	}
	backData, backType, err := readDocument("back", back)
	if err != nil {
		return nil, err
	}

	// Object names derive from a random token so stored documents cannot be
	// found by walking user ids.
	tok, err := token.New(16)
	if err != nil {
		return nil, err
	}
	frontKey := fmt.Sprintf("verifications/%s/%s-front%s", userID, tok, extFor(frontType))
	backKey := fmt.Sprintf("verifications/%s/%s-back%s", userID, tok, extFor(backType))

	// Blobs first, record last: if the record write fails the blobs are
	// orphaned (cleaned up out of band) but the status never claims pending.
	if _, err := s.blobs.Upload(ctx, frontKey, bytes.NewReader(frontData), frontType); err != nil {
		return nil, fmt.Errorf("store front document: %w", err)
	}
	if _, err := s.blobs.Upload(ctx, backKey, bytes.NewReader(backData), backType); err != nil {
		return nil, fmt.Errorf("store back document: %w", err)
	}

	sub := &domain.VerificationSubmission{
		UserID:        userID,
		FrontImageKey: frontKey,
		BackImageKey:  backKey,
		Notes:         notes,
		Status:        domain.VerificationPending,
		SubmittedAt:   time.Now().UTC(),
	}
	if err := s.subs.Put(ctx, sub); err != nil {
		return nil, fmt.Errorf("persist submission: %w", err)
	}
	return sub, nil
}

func (s *service) Review(ctx context.Context, userID, reviewerID string, approve bool, notes string) (*domain.VerificationSubmission, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no submission for user: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	if sub.Status != domain.VerificationPending {
		return nil, fmt.Errorf("submission is %s, not pending: %w", sub.Status, domain.ErrConflict)
	}
	status := domain.VerificationRejected
	if approve {
		status = domain.VerificationApproved
	}
	now := time.Now().UTC()
	if err := s.subs.SetReview(ctx, userID, status, reviewerID, notes, now); err != nil {
		return nil, fmt.Errorf("persist review: %w", err)
	}
	sub.Status = status
	sub.ReviewerID = reviewerID
	sub.ReviewerNotes = notes
	sub.ReviewedAt = &now
	return sub, nil
}

func (s *service) Links(ctx context.Context, userID string) (*DocumentLinks, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	frontURL, err := s.blobs.PresignedURL(ctx, sub.FrontImageKey, presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign front document: %w", err)
	}
	backURL, err := s.blobs.PresignedURL(ctx, sub.BackImageKey, presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign back document: %w", err)
	}
	return &DocumentLinks{FrontURL: frontURL, BackURL: backURL}, nil
}

// readDocument buffers one image, enforcing presence, the size cap, and an
// accepted content signature (JPEG or PNG by magic bytes).
func readDocument(side string, d Document) ([]byte, string, error) {
	if d.Reader == nil {
		return nil, "", fmt.Errorf("%s image is required: %w", side, domain.ErrBadRequest)
	}
	if d.Size > maxDocumentSize {
		return nil, "", fmt.Errorf("%s image exceeds the 5 MB limit: %w", side, domain.ErrBadRequest)
	}
	data, err := io.ReadAll(io.LimitReader(d.Reader, maxDocumentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s image: %w", side, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%s image is empty: %w", side, domain.ErrBadRequest)
	}
	if len(data) > maxDocumentSize {
		return nil, "", fmt.Errorf("%s image exceeds the 5 MB limit: %w", side, domain.ErrBadRequest)
	}
	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return nil, "", fmt.Errorf("%s image must be a JPEG or PNG: %w", side, domain.ErrBadRequest)
	}
	return data, contentType, nil
}

func extFor(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	return ".jpg"
}
