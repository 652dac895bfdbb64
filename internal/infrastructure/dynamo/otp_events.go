package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/servicelink-api/internal/domain"
)

// OTPEventRepo is the append-only issuance log used for daily rate limiting.
// PK: pair_key ("email#purpose"), SK: issued_at (RFC3339Nano); timestamps
// sort lexicographically, so a key-condition range covers a calendar day.
type OTPEventRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPEventRepo(client *dynamodb.Client, tableName string) *OTPEventRepo {
	return &OTPEventRepo{client: client, tableName: tableName}
}

func (r *OTPEventRepo) Append(ctx context.Context, ev *domain.OTPIssuanceEvent) error {
	item, err := attributevalue.MarshalMap(ev)
	if err != nil {
		return fmt.Errorf("marshal issuance event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// CountSince returns the number of issuance events for the pair with
// issued_at >= since. Uses Select COUNT so no items are transferred.
func (r *OTPEventRepo) CountSince(ctx context.Context, email, purpose string, since time.Time) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		KeyConditionExpression:   aws.String("pair_key = :pk AND issued_at >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":    &types.AttributeValueMemberS{Value: domain.OTPPairKey(email, purpose)},
			":since": &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339Nano)},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}
