package sns

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/servicelink-api/internal/config"
)

// SMSSender sends SMS messages via AWS SNS. Used as the delivery channel for
// one-time codes when the account asks for SMS instead of email.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
	SendCode(ctx context.Context, to, code string) error
}

type sender struct {
	client *sns.Client
}

func NewSender(cfg *config.Config) (SMSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	return err
}

func (s *sender) SendCode(ctx context.Context, to, code string) error {
	return s.SendSMS(ctx, to, fmt.Sprintf("ServiceLink code: %s (valid 10 minutes)", code))
}
