package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/fairyhunter13/product-delete-service/internal/model"
)

// AWSConfig returns an AWS configuration for region that authenticates with
// creds instead of the ambient credential chain.
func AWSConfig(ctx context.Context, region string, creds model.Credentials) (aws.Config, error) {
	if region == "" {
		return aws.Config{}, fmt.Errorf("region cannot be empty")
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
		)),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
