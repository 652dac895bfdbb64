package domain

import "time"

// Identity-document verification states.
const (
	VerificationNotSubmitted = "not_submitted"
	VerificationPending      = "pending"
	VerificationApproved     = "approved"
	VerificationRejected     = "rejected"
)

// VerificationSubmission is a provider's uploaded identity documents plus
// their review status. PK: user_id; each user has exactly one current
// submission; a resubmission after rejection overwrites the record.
//
// Status transitions: not_submitted → pending (on valid submission),
// pending → approved|rejected (reviewer action), rejected → pending (on
// resubmission). approved is terminal; pending blocks resubmission.
type VerificationSubmission struct {
	UserID        string     `json:"user_id" dynamodbav:"user_id"`
	FrontImageKey string     `json:"-" dynamodbav:"front_image_key"`
	BackImageKey  string     `json:"-" dynamodbav:"back_image_key"`
	Notes         string     `json:"notes,omitempty" dynamodbav:"notes"`
	Status        string     `json:"status" dynamodbav:"status"`
	SubmittedAt   time.Time  `json:"submitted_at" dynamodbav:"submitted_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty" dynamodbav:"reviewed_at"`
	ReviewerID    string     `json:"-" dynamodbav:"reviewer_id"`
	ReviewerNotes string     `json:"reviewer_notes,omitempty" dynamodbav:"reviewer_notes"`
}
