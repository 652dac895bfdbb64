package domain

import "time"

// Purposes a one-time code can be issued for. Codes issued for one purpose
// never validate against another.
const (
	PurposePasswordReset = "password_reset"
	PurposeEmailVerify   = "email_verify"
)

// OTPRecord is a short-lived numeric code proving control of an email address.
// PK: email, SK: purpose; writing a new record for the same (email, purpose)
// replaces the previous one, so at most one active code exists per pair.
// ExpiresAt doubles as the DynamoDB TTL attribute.
type OTPRecord struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Purpose   string    `json:"purpose" dynamodbav:"purpose"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Code      string    `json:"-" dynamodbav:"code"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
	Consumed  bool      `json:"consumed" dynamodbav:"consumed"`
}

// Active reports whether the record can still be redeemed at the given time.
func (r *OTPRecord) Active(now time.Time) bool {
	return !r.Consumed && now.Unix() < r.ExpiresAt
}

// OTPIssuanceEvent is an append-only log row recording that a code was issued.
// Used only to count issuance per (email, purpose) per calendar day; rows are
// never deleted here; retention is an operational concern.
// PK: pair_key ("email#purpose"), SK: issued_at (RFC3339Nano, sortable).
type OTPIssuanceEvent struct {
	PairKey  string `json:"pair_key" dynamodbav:"pair_key"`
	IssuedAt string `json:"issued_at" dynamodbav:"issued_at"`
}

// OTPPairKey builds the issuance-event partition key for an (email, purpose) pair.
func OTPPairKey(email, purpose string) string {
	return email + "#" + purpose
}
