package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/servicelink-api/internal/domain"
)

// VerificationRepo stores identity-document submissions. PK: user_id, one
// current submission per user; Put overwrites on resubmission.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, sub *domain.VerificationSubmission) error {
	item, err := attributevalue.MarshalMap(sub)
	if err != nil {
		return fmt.Errorf("marshal verification submission: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *VerificationRepo) Get(ctx context.Context, userID string) (*domain.VerificationSubmission, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification submission not found: %w", domain.ErrNotFound)
	}
	var sub domain.VerificationSubmission
	if err := attributevalue.UnmarshalMap(out.Item, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// SetReview records the reviewer decision on the current submission.
func (r *VerificationRepo) SetReview(ctx context.Context, userID, status, reviewerID, reviewerNotes string, reviewedAt time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"status":         status,
		"reviewer_id":    reviewerID,
		"reviewer_notes": reviewerNotes,
		"reviewed_at":    reviewedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
