package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoTables.
type DynamoAPI interface {
	DeleteItem(
		ctx context.Context,
		params *dynamodb.DeleteItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.DeleteItemOutput, error)
}

// DynamoTables deletes product records from DynamoDB tables keyed by a
// single string attribute.
type DynamoTables struct {
	api     DynamoAPI
	keyAttr string
}

// NewDynamoTables wraps api. keyAttr is the partition key attribute name.
func NewDynamoTables(api DynamoAPI, keyAttr string) *DynamoTables {
	if keyAttr == "" {
		keyAttr = "productId"
	}
	return &DynamoTables{api: api, keyAttr: keyAttr}
}

// NewDynamoTablesFromConfig builds a DynamoDB client from cfg.
func NewDynamoTablesFromConfig(cfg aws.Config, keyAttr string) *DynamoTables {
	return NewDynamoTables(dynamodb.NewFromConfig(cfg), keyAttr)
}

// DeleteItem implements Tables.
func (d *DynamoTables) DeleteItem(ctx context.Context, table, productID string) error {
	_, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			d.keyAttr: &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("dynamodb DeleteItem %s: %s: %s: %w", table, apiErr.ErrorCode(), apiErr.ErrorMessage(), err)
	}
	return fmt.Errorf("dynamodb DeleteItem %s: %w", table, err)
}
