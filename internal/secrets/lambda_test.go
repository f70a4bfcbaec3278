package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/product-delete-service/internal/model"
)

// mockLambdaAPI implements LambdaAPI for testing
type mockLambdaAPI struct {
	invokeFunc func(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
	lastInput  *lambda.InvokeInput
}

func (m *mockLambdaAPI) Invoke(
	ctx context.Context,
	params *lambda.InvokeInput,
	optFns ...func(*lambda.Options),
) (*lambda.InvokeOutput, error) {
	m.lastInput = params
	if m.invokeFunc != nil {
		return m.invokeFunc(ctx, params, optFns...)
	}
	return nil, errors.New("Invoke not implemented")
}

// nestedPayload encodes creds the way the secrets function does: a JSON
// secret inside a JSON body inside the invoke payload.
func nestedPayload(t *testing.T, creds map[string]string) []byte {
	t.Helper()
	secret, err := json.Marshal(creds)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]string{"secret": string(secret)})
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{"statusCode": 200, "body": string(body)})
	require.NoError(t, err)
	return payload
}

func returning(payload []byte) *mockLambdaAPI {
	return &mockLambdaAPI{
		invokeFunc: func(context.Context, *lambda.InvokeInput, ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
			return &lambda.InvokeOutput{StatusCode: 200, Payload: payload}, nil
		},
	}
}

func TestFetchDecodesNestedPayload(t *testing.T) {
	api := returning(nestedPayload(t, map[string]string{
		"AWS_ACCESS_KEY_ID":     "AKIAEXAMPLE",
		"AWS_SECRET_ACCESS_KEY": "s3cr3t",
	}))
	p := NewLambdaProvider(api, "fetchSecretsFunction_gr8")

	creds, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Credentials{AccessKeyID: "AKIAEXAMPLE", SecretAccessKey: "s3cr3t"}, creds)

	require.NotNil(t, api.lastInput)
	assert.Equal(t, "fetchSecretsFunction_gr8", aws.ToString(api.lastInput.FunctionName))
	assert.Equal(t, types.InvocationTypeRequestResponse, api.lastInput.InvocationType)
}

func TestFetchInvokeError(t *testing.T) {
	api := &mockLambdaAPI{
		invokeFunc: func(context.Context, *lambda.InvokeInput, ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "nope"}
		},
	}
	_, err := NewLambdaProvider(api, "fn").Fetch(context.Background())
	require.ErrorIs(t, err, ErrSecretInvoke)
	assert.Contains(t, err.Error(), "AccessDeniedException")
}

func TestFetchFunctionError(t *testing.T) {
	api := &mockLambdaAPI{
		invokeFunc: func(context.Context, *lambda.InvokeInput, ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
			return &lambda.InvokeOutput{
				FunctionError: aws.String("Unhandled"),
				Payload:       []byte(`{"errorMessage":"secret store down","errorType":"Error"}`),
			}, nil
		},
	}
	_, err := NewLambdaProvider(api, "fn").Fetch(context.Background())
	require.ErrorIs(t, err, ErrSecretInvoke)
	assert.Contains(t, err.Error(), "secret store down")
}

func TestFetchEmptyFunctionName(t *testing.T) {
	_, err := NewLambdaProvider(&mockLambdaAPI{}, "").Fetch(context.Background())
	assert.ErrorIs(t, err, ErrSecretInvoke)
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
		want    model.Credentials
	}{
		{
			name:    "string encoded body and secret",
			payload: `{"body":"{\"secret\":\"{\\\"AWS_ACCESS_KEY_ID\\\":\\\"a\\\",\\\"AWS_SECRET_ACCESS_KEY\\\":\\\"b\\\"}\"}"}`,
			want:    model.Credentials{AccessKeyID: "a", SecretAccessKey: "b"},
		},
		{
			name:    "inline objects",
			payload: `{"body":{"secret":{"AWS_ACCESS_KEY_ID":"a","AWS_SECRET_ACCESS_KEY":"b","AWS_SESSION_TOKEN":"t"}}}`,
			want:    model.Credentials{AccessKeyID: "a", SecretAccessKey: "b", SessionToken: "t"},
		},
		{name: "error message", payload: `{"errorMessage":"boom"}`, wantErr: ErrSecretInvoke},
		{name: "not json", payload: `not json`, wantErr: ErrSecretPayload},
		{name: "missing body", payload: `{}`, wantErr: ErrSecretPayload},
		{name: "body not json", payload: `{"body":"nope"}`, wantErr: ErrSecretPayload},
		{name: "missing secret", payload: `{"body":"{}"}`, wantErr: ErrSecretPayload},
		{name: "missing fields", payload: `{"body":{"secret":{"AWS_ACCESS_KEY_ID":"a"}}}`, wantErr: ErrSecretPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload([]byte(tt.payload))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchNeverLogsSecretValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	api := returning(nestedPayload(t, map[string]string{
		"AWS_ACCESS_KEY_ID":     "AKIAEXAMPLE",
		"AWS_SECRET_ACCESS_KEY": "very-secret-value",
	}))

	_, err := NewLambdaProvider(api, "fn", WithLogger(logger)).Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "secrets_fetch_done")
	assert.NotContains(t, buf.String(), "very-secret-value")
	assert.NotContains(t, buf.String(), "AKIAEXAMPLE")
}

func TestAWSConfigUsesStaticCredentials(t *testing.T) {
	cfg, err := AWSConfig(context.Background(), "us-east-2", model.Credentials{AccessKeyID: "id", SecretAccessKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", cfg.Region)

	got, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id", got.AccessKeyID)
	assert.Equal(t, "key", got.SecretAccessKey)
}

func TestAWSConfigRequiresRegion(t *testing.T) {
	_, err := AWSConfig(context.Background(), "", model.Credentials{})
	assert.Error(t, err)
}
