package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dealer-transfers-api/internal/domain"
)

const (
	defaultActivityPage = 50
	maxActivityPage     = 200
)

// activityLookups are the reference attributes that get their own created_at-sorted index.
var activityLookups = []string{"rule_id", "transfer_id", "vehicle_id"}

func activityIndexName(attr string) string { return attr + "-created_at-index" }

// ActivityRepo provides typed DynamoDB operations for the notification activity log.
type ActivityRepo struct {
	client    API
	tableName string
}

func NewActivityRepo(client API, tableName string) *ActivityRepo {
	return &ActivityRepo{client: client, tableName: tableName}
}

func (r *ActivityRepo) Put(ctx context.Context, a *domain.NotificationActivity) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ActivityRepo) Get(ctx context.Context, activityID string) (*domain.NotificationActivity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldActivityID, activityID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("activity %s: %w", activityID, domain.ErrNotFound)
	}
	var a domain.NotificationActivity
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns one page of activities and the cursor for the next page ("" when done).
// The most selective reference in f picks the index; status is applied as a filter.
func (r *ActivityRepo) List(ctx context.Context, f domain.ActivityFilter) ([]domain.NotificationActivity, string, error) {
	start, err := decodeCursor(f.Cursor)
	if err != nil {
		return nil, "", fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultActivityPage
	}
	if limit > maxActivityPage {
		limit = maxActivityPage
	}

	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var filter *string
	if f.Status != "" {
		names["#st"] = fieldStatus
		values[":st"] = &types.AttributeValueMemberS{Value: string(f.Status)}
		filter = aws.String("#st = :st")
	}

	attr, key := "", ""
	switch {
	case f.TransferID != "":
		attr, key = "transfer_id", f.TransferID
	case f.VehicleID != "":
		attr, key = "vehicle_id", f.VehicleID
	case f.RuleID != "":
		attr, key = "rule_id", f.RuleID
	}

	var items []map[string]types.AttributeValue
	var last map[string]types.AttributeValue
	if attr == "" {
		in := &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			Limit:             aws.Int32(int32(limit)),
			ExclusiveStartKey: start,
			FilterExpression:  filter,
		}
		if filter != nil {
			in.ExpressionAttributeNames = names
			in.ExpressionAttributeValues = values
		}
		out, err := r.client.Scan(ctx, in)
		if err != nil {
			return nil, "", err
		}
		items, last = out.Items, out.LastEvaluatedKey
	} else {
		names["#ref"] = attr
		values[":ref"] = &types.AttributeValueMemberS{Value: key}
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(activityIndexName(attr)),
			KeyConditionExpression:    aws.String("#ref = :ref"),
			FilterExpression:          filter,
			ScanIndexForward:          aws.Bool(false),
			Limit:                     aws.Int32(int32(limit)),
			ExclusiveStartKey:         start,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
		if err != nil {
			return nil, "", err
		}
		items, last = out.Items, out.LastEvaluatedKey
	}

	activities := make([]domain.NotificationActivity, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &activities); err != nil {
		return nil, "", err
	}
	next, err := encodeCursor(last)
	if err != nil {
		return nil, "", err
	}
	return activities, next, nil
}

// UpdateStatus applies updates only while the stored status still equals from.
// A concurrent change makes it fail with ErrConflict.
func (r *ActivityRepo) UpdateStatus(ctx context.Context, activityID string, from domain.ActivityStatus, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#cur"] = fieldStatus
	ue.Values[":cur"] = &types.AttributeValueMemberS{Value: string(from)}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldActivityID, activityID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#cur = :cur"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("activity %s is no longer %s: %w", activityID, from, domain.ErrConflict)
	}
	return err
}
