// Package ses relays email through Amazon Simple Email Service.
package ses

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"

	"github.com/smashsend/smashsend-go/internal/core"
)

const name = "aws_ses"

// SES tag names and values allow only these characters.
var tagSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Provider implements core.Provider for AWS SES.
type Provider struct {
	client *ses.Client
	config core.ProviderSettings
}

// NewProvider creates an SES relay. Settings: region (required), access_key
// and secret_key (optional, default credential chain otherwise), session_token,
// configuration_set, endpoint (optional override).
func NewProvider(settings core.ProviderSettings) (*Provider, error) {
	p := &Provider{config: settings}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(settings.Get("region")),
	}
	if accessKey := settings.Get("access_key"); accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, settings.Get("secret_key"), settings.Get("session_token")),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, core.NewProviderError(name, "config_error", "failed to load AWS config", err)
	}

	p.client = ses.NewFromConfig(cfg, func(o *ses.Options) {
		if endpoint := settings.Get("endpoint"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return p, nil
}

func buildInput(email *core.Email, configurationSet string) *ses.SendEmailInput {
	input := &ses.SendEmailInput{
		Source: aws.String(email.From.String()),
		Destination: &types.Destination{
			ToAddresses: addresses(email.To),
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(email.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if email.TextBody != "" {
		input.Message.Body.Text = &types.Content{Data: aws.String(email.TextBody), Charset: aws.String("UTF-8")}
	}
	if email.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{Data: aws.String(email.HTMLBody), Charset: aws.String("UTF-8")}
	}

	if len(email.ReplyTo) > 0 {
		input.ReplyToAddresses = addresses(email.ReplyTo)
	}

	for _, tag := range email.Tags {
		clean := tagSanitizer.ReplaceAllString(tag, "_")
		if clean == "" {
			continue
		}
		input.Tags = append(input.Tags, types.MessageTag{
			Name:  aws.String(clean),
			Value: aws.String("true"),
		})
	}

	if configurationSet != "" {
		input.ConfigurationSetName = aws.String(configurationSet)
	}

	return input
}

// Send relays a single email.
func (p *Provider) Send(ctx context.Context, email *core.Email) (*core.SendResult, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	output, err := p.client.SendEmail(ctx, buildInput(email, p.config.Get("configuration_set")))
	if err != nil {
		perr := core.NewProviderError(name, "send_error", "failed to send email", err)
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			perr.Code = apiErr.ErrorCode()
			perr.IsRetryable = apiErr.ErrorFault() == smithy.FaultServer || apiErr.ErrorCode() == "Throttling"
		}
		return nil, perr
	}

	return &core.SendResult{
		MessageID: aws.ToString(output.MessageId),
		Provider:  p.Name(),
		Timestamp: time.Now(),
	}, nil
}

// SendBatch relays emails one by one. SES has no batch send for raw content.
func (p *Provider) SendBatch(ctx context.Context, emails []*core.Email) (*core.BatchResult, error) {
	return core.SendEach(ctx, p, emails), nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("region") == "" {
		return core.NewValidationError("region", "AWS region is required")
	}
	if p.config.Get("access_key") != "" && p.config.Get("secret_key") == "" {
		return core.NewValidationError("secret_key", "secret key is required when access key is provided")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return name
}

func addresses(list []core.Address) []string {
	result := make([]string, len(list))
	for i, addr := range list {
		result[i] = addr.String()
	}
	return result
}
