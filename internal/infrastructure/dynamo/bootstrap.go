package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dealer-transfers-api/internal/pkg/logger"
)

// Tables names the three notification tables.
type Tables struct {
	Templates  string
	Rules      string
	Activities string
}

// Bootstrap creates the notification tables and their GSIs when missing.
// Existing tables are left untouched, so it runs on every startup.
func Bootstrap(ctx context.Context, client API, tables Tables, logg *logger.Logger) {
	createTable(ctx, client, logg, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Templates),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(fieldTemplateID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(fieldCategory), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldTemplateID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexTemplatesByCategory, fieldCategory, ""),
		},
	})

	createTable(ctx, client, logg, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Rules),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(fieldRuleID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(fieldEvent), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(fieldPriority), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldRuleID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexRulesByEvent, fieldEvent, fieldPriority),
		},
	})

	activityIndexes := make([]types.GlobalSecondaryIndex, 0, len(activityLookups))
	defs := []types.AttributeDefinition{
		{AttributeName: aws.String(fieldActivityID), AttributeType: types.ScalarAttributeTypeS},
		{AttributeName: aws.String(fieldCreatedAt), AttributeType: types.ScalarAttributeTypeS},
	}
	for _, attr := range activityLookups {
		defs = append(defs, types.AttributeDefinition{AttributeName: aws.String(attr), AttributeType: types.ScalarAttributeTypeS})
		activityIndexes = append(activityIndexes, gsi(activityIndexName(attr), attr, fieldCreatedAt))
	}
	createTable(ctx, client, logg, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Activities),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: defs,
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldActivityID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: activityIndexes,
	})
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client API, logg *logger.Logger, input *dynamodb.CreateTableInput) {
	tctx := logg.WithField(ctx, "table", aws.ToString(input.TableName))
	_, err := client.CreateTable(ctx, input)
	if err == nil {
		logg.Info(tctx, "created table")
		return
	}
	var inUse *types.ResourceInUseException
	if !errors.As(err, &inUse) {
		logg.Error(tctx, "could not create table", err)
	}
}
