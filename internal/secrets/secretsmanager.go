package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/fairyhunter13/product-delete-service/internal/model"
)

// ManagerAPI is the subset of the Secrets Manager client used by
// ManagerProvider.
type ManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// ManagerProvider reads the credential bundle straight from a Secrets Manager
// secret holding the same JSON object the secrets function wraps.
type ManagerProvider struct {
	api      ManagerAPI
	secretID string
	logger   *slog.Logger
}

// NewManagerProvider returns a provider reading secretID through api.
func NewManagerProvider(api ManagerAPI, secretID string, logger *slog.Logger) *ManagerProvider {
	return &ManagerProvider{api: api, secretID: secretID, logger: logger}
}

// NewManagerProviderForRegion builds a Secrets Manager client from the ambient
// AWS configuration for region.
func NewManagerProviderForRegion(ctx context.Context, region, secretID string, logger *slog.Logger) (*ManagerProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewManagerProvider(secretsmanager.NewFromConfig(cfg), secretID, logger), nil
}

// Fetch reads and decodes the secret.
func (p *ManagerProvider) Fetch(ctx context.Context) (model.Credentials, error) {
	if p.secretID == "" {
		return model.Credentials{}, fmt.Errorf("%w: secret id is empty", ErrSecretInvoke)
	}
	out, err := p.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(p.secretID)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			err = fmt.Errorf("%w: %s: %s", ErrSecretInvoke, apiErr.ErrorCode(), apiErr.ErrorMessage())
		} else {
			err = fmt.Errorf("%w: %w", ErrSecretInvoke, err)
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "secrets_fetch_error", "secret_id", p.secretID, "error", err)
		}
		return model.Credentials{}, err
	}
	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	default:
		return model.Credentials{}, fmt.Errorf("%w: secret value is empty", ErrSecretPayload)
	}
	var creds model.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return model.Credentials{}, fmt.Errorf("%w: secret: %w", ErrSecretPayload, err)
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return model.Credentials{}, fmt.Errorf("%w: missing credential fields", ErrSecretPayload)
	}
	if p.logger != nil {
		p.logger.InfoContext(ctx, "secrets_fetch_done", "secret_id", p.secretID)
	}
	return creds, nil
}
