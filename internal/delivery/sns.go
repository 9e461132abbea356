package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"catalog-agent/internal/common/config"
	"catalog-agent/internal/common/logger"
)

// SNSService is the publish surface, extracted for mocking.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher mirrors each delivered response onto an SNS topic so other
// systems can subscribe to the conversation stream.
type SNSPublisher struct {
	cfg    config.SNSConfig
	client SNSService
	logger logger.Logger
}

func NewSNSPublisher(ctx context.Context, cfg config.SNSConfig, log logger.Logger) (*SNSPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SNSPublisher{
		cfg:    cfg,
		client: sns.NewFromConfig(awsCfg),
		logger: log.WithFields(map[string]interface{}{"component": "sns_delivery"}),
	}, nil
}

// NewSNSPublisherWithClient wires a prebuilt client, used by tests.
func NewSNSPublisherWithClient(cfg config.SNSConfig, client SNSService, log logger.Logger) *SNSPublisher {
	return &SNSPublisher{
		cfg:    cfg,
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "sns_delivery"}),
	}
}

// Publish sends env as the message body and returns the SNS message id.
func (p *SNSPublisher) Publish(ctx context.Context, env Envelope) (string, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("%w: encode envelope: %v", ErrDeliveryFailed, err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.cfg.TopicARN),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: publish to %s: %v", ErrDeliveryFailed, p.cfg.TopicARN, err)
	}

	messageID := aws.ToString(out.MessageId)
	p.logger.Info("response published", map[string]interface{}{
		"topic":     p.cfg.TopicARN,
		"messageId": messageID,
	})
	return messageID, nil
}
