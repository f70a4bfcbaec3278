package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/product-delete-service/internal/model"
)

// mockManagerAPI implements ManagerAPI for testing
type mockManagerAPI struct {
	getSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func (m *mockManagerAPI) GetSecretValue(
	ctx context.Context,
	params *secretsmanager.GetSecretValueInput,
	optFns ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	if m.getSecretValueFunc != nil {
		return m.getSecretValueFunc(ctx, params, optFns...)
	}
	return nil, errors.New("GetSecretValue not implemented")
}

func secretReturning(out *secretsmanager.GetSecretValueOutput, err error) *mockManagerAPI {
	return &mockManagerAPI{
		getSecretValueFunc: func(context.Context, *secretsmanager.GetSecretValueInput, ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return out, err
		},
	}
}

func TestManagerProviderFetch(t *testing.T) {
	var gotID string
	api := &mockManagerAPI{
		getSecretValueFunc: func(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			gotID = aws.ToString(in.SecretId)
			return &secretsmanager.GetSecretValueOutput{
				SecretString: aws.String(`{"AWS_ACCESS_KEY_ID":"a","AWS_SECRET_ACCESS_KEY":"b"}`),
			}, nil
		},
	}
	creds, err := NewManagerProvider(api, "product-service/aws", nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "product-service/aws", gotID)
	assert.Equal(t, model.Credentials{AccessKeyID: "a", SecretAccessKey: "b"}, creds)
}

func TestManagerProviderBinarySecret(t *testing.T) {
	api := secretReturning(&secretsmanager.GetSecretValueOutput{
		SecretBinary: []byte(`{"AWS_ACCESS_KEY_ID":"a","AWS_SECRET_ACCESS_KEY":"b"}`),
	}, nil)
	creds, err := NewManagerProvider(api, "id", nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", creds.AccessKeyID)
}

func TestManagerProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		api     *mockManagerAPI
		id      string
		wantErr error
	}{
		{name: "empty id", api: &mockManagerAPI{}, id: "", wantErr: ErrSecretInvoke},
		{
			name:    "not found",
			api:     secretReturning(nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "x"}),
			id:      "id",
			wantErr: ErrSecretInvoke,
		},
		{name: "network", api: secretReturning(nil, errors.New("dial tcp")), id: "id", wantErr: ErrSecretInvoke},
		{name: "empty value", api: secretReturning(&secretsmanager.GetSecretValueOutput{}, nil), id: "id", wantErr: ErrSecretPayload},
		{
			name:    "bad json",
			api:     secretReturning(&secretsmanager.GetSecretValueOutput{SecretString: aws.String("nope")}, nil),
			id:      "id",
			wantErr: ErrSecretPayload,
		},
		{
			name:    "missing fields",
			api:     secretReturning(&secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{}`)}, nil),
			id:      "id",
			wantErr: ErrSecretPayload,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManagerProvider(tt.api, tt.id, nil).Fetch(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
