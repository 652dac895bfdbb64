package otp

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) Put(ctx context.Context, rec *domain.OTPRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *mockCodeStore) Get(ctx context.Context, email, purpose string) (*domain.OTPRecord, error) {
	args := m.Called(ctx, email, purpose)
	if rec, _ := args.Get(0).(*domain.OTPRecord); rec != nil {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) MarkConsumed(ctx context.Context, email, purpose string) error {
	return m.Called(ctx, email, purpose).Error(0)
}

type mockEventStore struct{ mock.Mock }

func (m *mockEventStore) Append(ctx context.Context, ev *domain.OTPIssuanceEvent) error {
	return m.Called(ctx, ev).Error(0)
}
func (m *mockEventStore) CountSince(ctx context.Context, email, purpose string, since time.Time) (int, error) {
	args := m.Called(ctx, email, purpose, since)
	return args.Int(0), args.Error(1)
}

func newTestService(cs *mockCodeStore, es *mockEventStore) Service {
	return NewService(ServiceDeps{CodeRepo: cs, EventRepo: es, Expiry: 10 * time.Minute})
}

// --- Create ---

func TestCreate_PersistsCodeAndLogsEvent(t *testing.T) {
	cs := &mockCodeStore{}
	es := &mockEventStore{}

	var stored *domain.OTPRecord
	cs.On("Put", mock.Anything, mock.MatchedBy(func(rec *domain.OTPRecord) bool {
		stored = rec
		return rec.Email == "a@b.com" && rec.Purpose == domain.PurposePasswordReset && !rec.Consumed
	})).Return(nil)
	es.On("Append", mock.Anything, mock.MatchedBy(func(ev *domain.OTPIssuanceEvent) bool {
		return ev.PairKey == "a@b.com#password_reset"
	})).Return(nil)

	svc := newTestService(cs, es)
	code, err := svc.Create(context.Background(), "a@b.com", "u1", domain.PurposePasswordReset)

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
	require.NotNil(t, stored)
	assert.Equal(t, code, stored.Code)
	assert.Greater(t, stored.ExpiresAt, time.Now().Unix())
	assert.LessOrEqual(t, stored.ExpiresAt, time.Now().Add(11*time.Minute).Unix())
	cs.AssertExpectations(t)
	es.AssertExpectations(t)
}

func TestCreate_EventLogFailureDoesNotFailIssuance(t *testing.T) {
	cs := &mockCodeStore{}
	es := &mockEventStore{}
	cs.On("Put", mock.Anything, mock.Anything).Return(nil)
	es.On("Append", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	svc := newTestService(cs, es)
	code, err := svc.Create(context.Background(), "a@b.com", "u1", domain.PurposeEmailVerify)

	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestCreate_StoreFailure(t *testing.T) {
	cs := &mockCodeStore{}
	es := &mockEventStore{}
	cs.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	svc := newTestService(cs, es)
	_, err := svc.Create(context.Background(), "a@b.com", "u1", domain.PurposePasswordReset)

	require.Error(t, err)
	es.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// --- HasExceededLimit ---

func TestHasExceededLimit_CountsFromMidnightUTC(t *testing.T) {
	cs := &mockCodeStore{}
	es := &mockEventStore{}
	es.On("CountSince", mock.Anything, "a@b.com", domain.PurposePasswordReset,
		mock.MatchedBy(func(since time.Time) bool {
			return since.Equal(time.Now().UTC().Truncate(24 * time.Hour))
		})).Return(2, nil)

	svc := newTestService(cs, es)
	exceeded, err := svc.HasExceededLimit(context.Background(), "a@b.com", domain.PurposePasswordReset, 3)

	require.NoError(t, err)
	assert.False(t, exceeded)
	es.AssertExpectations(t)
}

func TestHasExceededLimit_AtLimit(t *testing.T) {
	cs := &mockCodeStore{}
	es := &mockEventStore{}
	es.On("CountSince", mock.Anything, "a@b.com", domain.PurposePasswordReset, mock.Anything).Return(3, nil)

	svc := newTestService(cs, es)
	exceeded, err := svc.HasExceededLimit(context.Background(), "a@b.com", domain.PurposePasswordReset, 3)

	require.NoError(t, err)
	assert.True(t, exceeded)
}

// --- Validate ---

func activeRecord(code string) *domain.OTPRecord {
	return &domain.OTPRecord{
		Email:     "a@b.com",
		Purpose:   domain.PurposePasswordReset,
		Code:      code,
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}
}

func TestValidate_NoCodeIssued(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposePasswordReset).Return(nil, domain.ErrNotFound)

	svc := newTestService(cs, &mockEventStore{})
	err := svc.Validate(context.Background(), "a@b.com", domain.PurposePasswordReset, "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeNotFound))
}

func TestValidate_ConsumedCode(t *testing.T) {
	cs := &mockCodeStore{}
	rec := activeRecord("123456")
	rec.Consumed = true
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposePasswordReset).Return(rec, nil)

	svc := newTestService(cs, &mockEventStore{})
	err := svc.Validate(context.Background(), "a@b.com", domain.PurposePasswordReset, "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeConsumed))
	cs.AssertNotCalled(t, "MarkConsumed", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_ExpiredCode(t *testing.T) {
	cs := &mockCodeStore{}
	rec := activeRecord("123456")
	rec.ExpiresAt = time.Now().Add(-1 * time.Second).Unix()
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposePasswordReset).Return(rec, nil)

	svc := newTestService(cs, &mockEventStore{})
	err := svc.Validate(context.Background(), "a@b.com", domain.PurposePasswordReset, "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeExpired))
}

func TestValidate_WrongCode(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposePasswordReset).Return(activeRecord("123456"), nil)

	svc := newTestService(cs, &mockEventStore{})
	err := svc.Validate(context.Background(), "a@b.com", domain.PurposePasswordReset, "654321")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
	cs.AssertNotCalled(t, "MarkConsumed", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_HappyPathConsumesCode(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposePasswordReset).Return(activeRecord("123456"), nil)
	cs.On("MarkConsumed", mock.Anything, "a@b.com", domain.PurposePasswordReset).Return(nil)

	svc := newTestService(cs, &mockEventStore{})
	err := svc.Validate(context.Background(), "a@b.com", domain.PurposePasswordReset, "123456")

	require.NoError(t, err)
	cs.AssertExpectations(t)
}

func TestValidate_LostConsumeRace(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposePasswordReset).Return(activeRecord("123456"), nil)
	cs.On("MarkConsumed", mock.Anything, "a@b.com", domain.PurposePasswordReset).Return(domain.ErrCodeConsumed)

	svc := newTestService(cs, &mockEventStore{})
	err := svc.Validate(context.Background(), "a@b.com", domain.PurposePasswordReset, "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeConsumed))
}

// --- generateCode ---

func TestGenerateCode_AlwaysSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
	}
}
