package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// Channel delivers a notice through one provider
type Channel interface {
	Name() string
	Send(ctx context.Context, notice Notice) error
}

// LogChannel writes notices to the log. Used in development.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel creates a log-only channel
func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(_ context.Context, notice Notice) error {
	c.logger.Info("Verification notice",
		zap.String("recipient", notice.Recipient),
		zap.String("verification_id", notice.VerificationID),
		zap.String("decision", notice.Decision),
		zap.Float64("score", notice.Score))
	return nil
}

// SESAPI is the subset of the SES v2 client used here
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESChannel emails notices through Amazon SES
type SESChannel struct {
	client SESAPI
	sender string
}

// NewSESChannel creates an SES email channel
func NewSESChannel(client SESAPI, sender string) *SESChannel {
	return &SESChannel{client: client, sender: sender}
}

func (c *SESChannel) Name() string { return "ses" }

func (c *SESChannel) Send(ctx context.Context, notice Notice) error {
	if notice.Recipient == "" {
		return fmt.Errorf("notice %s has no recipient", notice.VerificationID)
	}

	_, err := c.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.sender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{notice.Recipient},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(notice.Subject())},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(notice.Body())},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SNSAPI is the subset of the SNS client used here
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSChannel publishes notices to an SNS topic
type SNSChannel struct {
	client   SNSAPI
	topicARN string
}

// NewSNSChannel creates an SNS topic channel
func NewSNSChannel(client SNSAPI, topicARN string) *SNSChannel {
	return &SNSChannel{client: client, topicARN: topicARN}
}

func (c *SNSChannel) Name() string { return "sns" }

func (c *SNSChannel) Send(ctx context.Context, notice Notice) error {
	_, err := c.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicARN),
		Subject:  aws.String(notice.Subject()),
		Message:  aws.String(notice.Body()),
	})
	if err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}
	return nil
}

// ChannelConfig selects and configures a delivery provider
type ChannelConfig struct {
	Provider string // log, ses or sns
	Region   string
	Sender   string
	TopicARN string
}

// NewChannel builds the channel named by cfg.Provider. AWS providers use the
// default credential chain.
func NewChannel(ctx context.Context, cfg ChannelConfig, logger *zap.Logger) (Channel, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogChannel(logger), nil
	case "ses", "sns":
	default:
		return nil, fmt.Errorf("unknown notification provider: %s", cfg.Provider)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Provider == "ses" {
		if cfg.Sender == "" {
			return nil, fmt.Errorf("ses provider requires a sender address")
		}
		return NewSESChannel(sesv2.NewFromConfig(awsCfg), cfg.Sender), nil
	}

	if cfg.TopicARN == "" {
		return nil, fmt.Errorf("sns provider requires a topic ARN")
	}
	return NewSNSChannel(sns.NewFromConfig(awsCfg), cfg.TopicARN), nil
}
