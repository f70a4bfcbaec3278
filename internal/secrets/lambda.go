// Package secrets fetches the storage credentials the service needs at startup.
//
// Credentials come from an AWS Lambda function whose response nests three JSON
// documents: the invoke payload carries a "body" string, the body carries a
// "secret" string, and the secret holds the credential fields. The same
// credential object can instead be read directly from AWS Secrets Manager.
// Secret values are never logged.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"

	"github.com/fairyhunter13/product-delete-service/internal/model"
)

var (
	// ErrSecretInvoke is returned when the secrets function cannot be invoked
	// or reports a function error.
	ErrSecretInvoke = errors.New("secrets function invoke failed")

	// ErrSecretPayload is returned when the function response cannot be
	// decoded into credentials.
	ErrSecretPayload = errors.New("secrets payload invalid")
)

// Provider returns the credential bundle used to reach storage.
type Provider interface {
	Fetch(ctx context.Context) (model.Credentials, error)
}

// LambdaAPI is the subset of the Lambda client used by LambdaProvider.
type LambdaAPI interface {
	Invoke(
		ctx context.Context,
		params *lambda.InvokeInput,
		optFns ...func(*lambda.Options),
	) (*lambda.InvokeOutput, error)
}

// Option configures a LambdaProvider.
type Option func(*LambdaProvider)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(p *LambdaProvider) {
		p.logger = logger
	}
}

// LambdaProvider retrieves credentials by invoking a named Lambda function.
type LambdaProvider struct {
	api          LambdaAPI
	functionName string
	logger       *slog.Logger
}

// NewLambdaProvider returns a provider invoking functionName through api.
func NewLambdaProvider(api LambdaAPI, functionName string, opts ...Option) *LambdaProvider {
	p := &LambdaProvider{api: api, functionName: functionName}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewLambdaProviderForRegion builds a Lambda client from the ambient AWS
// configuration for region.
func NewLambdaProviderForRegion(ctx context.Context, region, functionName string, opts ...Option) (*LambdaProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewLambdaProvider(lambda.NewFromConfig(cfg), functionName, opts...), nil
}

// Fetch invokes the secrets function and decodes its credential bundle.
func (p *LambdaProvider) Fetch(ctx context.Context) (model.Credentials, error) {
	if p.functionName == "" {
		return model.Credentials{}, fmt.Errorf("%w: function name is empty", ErrSecretInvoke)
	}
	if p.logger != nil {
		p.logger.InfoContext(ctx, "secrets_fetch_start", "function", p.functionName)
	}

	out, err := p.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(p.functionName),
		InvocationType: types.InvocationTypeRequestResponse,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			err = fmt.Errorf("%w: %s: %s", ErrSecretInvoke, apiErr.ErrorCode(), apiErr.ErrorMessage())
		} else {
			err = fmt.Errorf("%w: %w", ErrSecretInvoke, err)
		}
		p.logError(ctx, err)
		return model.Credentials{}, err
	}
	if out.FunctionError != nil {
		err := fmt.Errorf("%w: function error %s: %s", ErrSecretInvoke, aws.ToString(out.FunctionError), errorMessage(out.Payload))
		p.logError(ctx, err)
		return model.Credentials{}, err
	}

	creds, err := ParsePayload(out.Payload)
	if err != nil {
		p.logError(ctx, err)
		return model.Credentials{}, err
	}
	if p.logger != nil {
		p.logger.InfoContext(ctx, "secrets_fetch_done", "function", p.functionName)
	}
	return creds, nil
}

func (p *LambdaProvider) logError(ctx context.Context, err error) {
	if p.logger != nil {
		p.logger.ErrorContext(ctx, "secrets_fetch_error", "function", p.functionName, "error", err)
	}
}

type invokePayload struct {
	ErrorMessage string          `json:"errorMessage"`
	Body         json.RawMessage `json:"body"`
}

type secretBody struct {
	Secret json.RawMessage `json:"secret"`
}

// ParsePayload decodes the nested function response into credentials.
// The body and secret fields may each be a JSON-encoded string or an inline
// object.
func ParsePayload(payload []byte) (model.Credentials, error) {
	var inv invokePayload
	if err := json.Unmarshal(payload, &inv); err != nil {
		return model.Credentials{}, fmt.Errorf("%w: payload: %w", ErrSecretPayload, err)
	}
	if inv.ErrorMessage != "" {
		return model.Credentials{}, fmt.Errorf("%w: %s", ErrSecretInvoke, inv.ErrorMessage)
	}
	bodyRaw, err := unquote(inv.Body)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("%w: body: %w", ErrSecretPayload, err)
	}
	var body secretBody
	if err := json.Unmarshal(bodyRaw, &body); err != nil {
		return model.Credentials{}, fmt.Errorf("%w: body: %w", ErrSecretPayload, err)
	}
	secretRaw, err := unquote(body.Secret)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("%w: secret: %w", ErrSecretPayload, err)
	}
	var creds model.Credentials
	if err := json.Unmarshal(secretRaw, &creds); err != nil {
		return model.Credentials{}, fmt.Errorf("%w: secret: %w", ErrSecretPayload, err)
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return model.Credentials{}, fmt.Errorf("%w: missing credential fields", ErrSecretPayload)
	}
	return creds, nil
}

// unquote returns the document held by raw, decoding one level of string
// encoding when raw is a JSON string.
func unquote(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("missing")
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func errorMessage(payload []byte) string {
	var inv invokePayload
	if err := json.Unmarshal(payload, &inv); err != nil || inv.ErrorMessage == "" {
		return "unknown"
	}
	return inv.ErrorMessage
}
