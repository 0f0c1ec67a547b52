package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dealer-transfers-api/internal/domain"
)

// TemplateRepo provides typed DynamoDB operations for the notification templates table.
type TemplateRepo struct {
	client    API
	tableName string
}

func NewTemplateRepo(client API, tableName string) *TemplateRepo {
	return &TemplateRepo{client: client, tableName: tableName}
}

// Create stores a new template and fails with ErrConflict if the id is taken.
func (r *TemplateRepo) Create(ctx context.Context, t *domain.NotificationTemplate) error {
	return r.put(ctx, t, "attribute_not_exists(template_id)", domain.ErrConflict)
}

// Replace overwrites an existing template.
func (r *TemplateRepo) Replace(ctx context.Context, t *domain.NotificationTemplate) error {
	return r.put(ctx, t, "attribute_exists(template_id)", domain.ErrNotFound)
}

func (r *TemplateRepo) put(ctx context.Context, t *domain.NotificationTemplate, cond string, onFail error) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String(cond),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("template %s: %w", t.TemplateID, onFail)
	}
	return err
}

func (r *TemplateRepo) Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldTemplateID, templateID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("template %s: %w", templateID, domain.ErrNotFound)
	}
	var t domain.NotificationTemplate
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns templates ordered by name. An empty category lists all of them.
func (r *TemplateRepo) List(ctx context.Context, category domain.TemplateCategory) ([]domain.NotificationTemplate, error) {
	var items []map[string]types.AttributeValue
	var err error
	if category == "" {
		items, err = scanAll(ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	} else {
		items, err = queryAll(ctx, r.client, &dynamodb.QueryInput{
			TableName:                aws.String(r.tableName),
			IndexName:                aws.String(indexTemplatesByCategory),
			KeyConditionExpression:   aws.String("#cat = :cat"),
			ExpressionAttributeNames: map[string]string{"#cat": fieldCategory},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":cat": &types.AttributeValueMemberS{Value: string(category)},
			},
		})
	}
	if err != nil {
		return nil, err
	}
	var out []domain.NotificationTemplate
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *TemplateRepo) Delete(ctx context.Context, templateID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldTemplateID, templateID),
		ConditionExpression: aws.String("attribute_exists(template_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("template %s: %w", templateID, domain.ErrNotFound)
	}
	return err
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}

// queryAll follows LastEvaluatedKey until the query is exhausted.
func queryAll(ctx context.Context, client API, in *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := client.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func scanAll(ctx context.Context, client API, in *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := client.Scan(ctx, in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
