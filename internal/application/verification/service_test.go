package verification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSubmissionStore struct{ mock.Mock }

func (m *mockSubmissionStore) Get(ctx context.Context, userID string) (*domain.VerificationSubmission, error) {
	args := m.Called(ctx, userID)
	if sub, _ := args.Get(0).(*domain.VerificationSubmission); sub != nil {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSubmissionStore) Put(ctx context.Context, sub *domain.VerificationSubmission) error {
	return m.Called(ctx, sub).Error(0)
}
func (m *mockSubmissionStore) SetReview(ctx context.Context, userID, status, reviewerID, reviewerNotes string, reviewedAt time.Time) error {
	return m.Called(ctx, userID, status, reviewerID, reviewerNotes, reviewedAt).Error(0)
}

type mockBlobStore struct{ mock.Mock }

func (m *mockBlobStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockBlobStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func newTestService(ss *mockSubmissionStore, bs *mockBlobStore) Service {
	return NewService(ServiceDeps{SubmissionRepo: ss, BlobStore: bs})
}

// jpegDoc and pngDoc carry real file signatures so content sniffing passes.
func jpegDoc() Document {
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x11}, 64)...)
	return Document{Reader: bytes.NewReader(data), Size: int64(len(data))}
}

func pngDoc() Document {
	data := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x22}, 64)...)
	return Document{Reader: bytes.NewReader(data), Size: int64(len(data))}
}

// --- Status ---

func TestStatus_NoSubmission(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newTestService(ss, &mockBlobStore{})
	sub, err := svc.Status(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationNotSubmitted, sub.Status)
	assert.Equal(t, "u1", sub.UserID)
}

func TestStatus_Existing(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(&domain.VerificationSubmission{
		UserID: "u1",
		Status: domain.VerificationPending,
	}, nil)

	svc := newTestService(ss, &mockBlobStore{})
	sub, err := svc.Status(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, sub.Status)
}

// --- Submit ---

func TestSubmit_RejectedWhilePending(t *testing.T) {
	ss := &mockSubmissionStore{}
	bs := &mockBlobStore{}
	ss.On("Get", mock.Anything, "u1").Return(&domain.VerificationSubmission{
		UserID: "u1", Status: domain.VerificationPending,
	}, nil)

	svc := newTestService(ss, bs)
	_, err := svc.Submit(context.Background(), "u1", jpegDoc(), jpegDoc(), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	bs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_RejectedWhenApproved(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(&domain.VerificationSubmission{
		UserID: "u1", Status: domain.VerificationApproved,
	}, nil)

	svc := newTestService(ss, &mockBlobStore{})
	_, err := svc.Submit(context.Background(), "u1", jpegDoc(), jpegDoc(), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestSubmit_AllowedAfterRejection(t *testing.T) {
	ss := &mockSubmissionStore{}
	bs := &mockBlobStore{}
	ss.On("Get", mock.Anything, "u1").Return(&domain.VerificationSubmission{
		UserID: "u1", Status: domain.VerificationRejected,
	}, nil)
	bs.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("key", nil)
	ss.On("Put", mock.Anything, mock.MatchedBy(func(sub *domain.VerificationSubmission) bool {
		return sub.Status == domain.VerificationPending
	})).Return(nil)

	svc := newTestService(ss, bs)
	sub, err := svc.Submit(context.Background(), "u1", jpegDoc(), pngDoc(), "second try")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, sub.Status)
	ss.AssertExpectations(t)
}

func TestSubmit_HappyPath(t *testing.T) {
	ss := &mockSubmissionStore{}
	bs := &mockBlobStore{}
	ss.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	var keys []string
	bs.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		keys = append(keys, key)
		return strings.HasPrefix(key, "verifications/u1/")
	}), mock.Anything, mock.Anything).Return("key", nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.VerificationSubmission")).Return(nil)

	svc := newTestService(ss, bs)
	sub, err := svc.Submit(context.Background(), "u1", jpegDoc(), pngDoc(), "docs attached")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, sub.Status)
	assert.Equal(t, "docs attached", sub.Notes)
	require.Len(t, keys, 2)
	assert.True(t, strings.HasSuffix(keys[0], "-front.jpg"), keys[0])
	assert.True(t, strings.HasSuffix(keys[1], "-back.png"), keys[1])
	assert.NotEqual(t, keys[0], keys[1])
}

func TestSubmit_RejectsNonImageContent(t *testing.T) {
	ss := &mockSubmissionStore{}
	bs := &mockBlobStore{}
	ss.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	text := []byte("definitely not an image, just text pretending")
	doc := Document{Reader: bytes.NewReader(text), Size: int64(len(text))}

	svc := newTestService(ss, bs)
	_, err := svc.Submit(context.Background(), "u1", doc, jpegDoc(), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	bs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_RejectsEmptyDocument(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newTestService(ss, &mockBlobStore{})
	_, err := svc.Submit(context.Background(), "u1", jpegDoc(), Document{Reader: bytes.NewReader(nil)}, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestSubmit_RejectsOversizeDocument(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	big := Document{Reader: bytes.NewReader([]byte{0xFF, 0xD8, 0xFF}), Size: maxDocumentSize + 1}

	svc := newTestService(ss, &mockBlobStore{})
	_, err := svc.Submit(context.Background(), "u1", big, jpegDoc(), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- Review ---

func TestReview_NoSubmission(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newTestService(ss, &mockBlobStore{})
	_, err := svc.Review(context.Background(), "u1", "admin1", true, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReview_NotPending(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(&domain.VerificationSubmission{
		UserID: "u1", Status: domain.VerificationApproved,
	}, nil)

	svc := newTestService(ss, &mockBlobStore{})
	_, err := svc.Review(context.Background(), "u1", "admin1", false, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestReview_Approve(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(&domain.VerificationSubmission{
		UserID: "u1", Status: domain.VerificationPending,
	}, nil)
	ss.On("SetReview", mock.Anything, "u1", domain.VerificationApproved, "admin1", "looks good", mock.Anything).Return(nil)

	svc := newTestService(ss, &mockBlobStore{})
	sub, err := svc.Review(context.Background(), "u1", "admin1", true, "looks good")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationApproved, sub.Status)
	assert.Equal(t, "admin1", sub.ReviewerID)
	require.NotNil(t, sub.ReviewedAt)
	ss.AssertExpectations(t)
}

func TestReview_Reject(t *testing.T) {
	ss := &mockSubmissionStore{}
	ss.On("Get", mock.Anything, "u1").Return(&domain.VerificationSubmission{
		UserID: "u1", Status: domain.VerificationPending,
	}, nil)
	ss.On("SetReview", mock.Anything, "u1", domain.VerificationRejected, "admin1", "photo is blurry", mock.Anything).Return(nil)

	svc := newTestService(ss, &mockBlobStore{})
	sub, err := svc.Review(context.Background(), "u1", "admin1", false, "photo is blurry")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationRejected, sub.Status)
	assert.Equal(t, "photo is blurry", sub.ReviewerNotes)
}

// --- Links ---

func TestLinks(t *testing.T) {
	ss := &mockSubmissionStore{}
	bs := &mockBlobStore{}
	ss.On("Get", mock.Anything, "u1").Return(&domain.VerificationSubmission{
		UserID:        "u1",
		Status:        domain.VerificationPending,
		FrontImageKey: "verifications/u1/tok-front.jpg",
		BackImageKey:  "verifications/u1/tok-back.jpg",
	}, nil)
	bs.On("PresignedURL", mock.Anything, "verifications/u1/tok-front.jpg", presignTTL).Return("https://s3/front", nil)
	bs.On("PresignedURL", mock.Anything, "verifications/u1/tok-back.jpg", presignTTL).Return("https://s3/back", nil)

	svc := newTestService(ss, bs)
	links, err := svc.Links(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "https://s3/front", links.FrontURL)
	assert.Equal(t, "https://s3/back", links.BackURL)
}
