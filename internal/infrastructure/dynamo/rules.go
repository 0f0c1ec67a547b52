package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dealer-transfers-api/internal/domain"
)

// RuleRepo provides typed DynamoDB operations for the notification rules table.
// Rules are indexed by event with priority as the sort key.
type RuleRepo struct {
	client    API
	tableName string
}

func NewRuleRepo(client API, tableName string) *RuleRepo {
	return &RuleRepo{client: client, tableName: tableName}
}

func (r *RuleRepo) Create(ctx context.Context, rule *domain.NotificationRule) error {
	return r.put(ctx, rule, "attribute_not_exists(rule_id)", domain.ErrConflict)
}

func (r *RuleRepo) Replace(ctx context.Context, rule *domain.NotificationRule) error {
	return r.put(ctx, rule, "attribute_exists(rule_id)", domain.ErrNotFound)
}

func (r *RuleRepo) put(ctx context.Context, rule *domain.NotificationRule, cond string, onFail error) error {
	rule.TemplateIDs = rule.ReferencedTemplates()
	item, err := attributevalue.MarshalMap(rule)
	if err != nil {
		return fmt.Errorf("marshal rule: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String(cond),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("rule %s: %w", rule.RuleID, onFail)
	}
	return err
}

func (r *RuleRepo) Get(ctx context.Context, ruleID string) (*domain.NotificationRule, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldRuleID, ruleID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("rule %s: %w", ruleID, domain.ErrNotFound)
	}
	var rule domain.NotificationRule
	if err := attributevalue.UnmarshalMap(out.Item, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// List returns rules ordered by priority, highest first. An empty event lists every rule.
func (r *RuleRepo) List(ctx context.Context, event domain.NotificationEvent) ([]domain.NotificationRule, error) {
	if event != "" {
		return r.byEvent(ctx, event, false)
	}
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var rules []domain.NotificationRule
	if err := attributevalue.UnmarshalListOfMaps(items, &rules); err != nil {
		return nil, err
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return rules, nil
}

// ListActiveByEvent returns the active rules for event, highest priority first.
func (r *RuleRepo) ListActiveByEvent(ctx context.Context, event domain.NotificationEvent) ([]domain.NotificationRule, error) {
	return r.byEvent(ctx, event, true)
}

func (r *RuleRepo) byEvent(ctx context.Context, event domain.NotificationEvent, activeOnly bool) ([]domain.NotificationRule, error) {
	in := &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexRulesByEvent),
		KeyConditionExpression:   aws.String("#ev = :ev"),
		ScanIndexForward:         aws.Bool(false),
		ExpressionAttributeNames: map[string]string{"#ev": fieldEvent},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ev": &types.AttributeValueMemberS{Value: string(event)},
		},
	}
	if activeOnly {
		in.FilterExpression = aws.String("#act = :on")
		in.ExpressionAttributeNames["#act"] = fieldActive
		in.ExpressionAttributeValues[":on"] = &types.AttributeValueMemberBOOL{Value: true}
	}
	items, err := queryAll(ctx, r.client, in)
	if err != nil {
		return nil, err
	}
	var rules []domain.NotificationRule
	if err := attributevalue.UnmarshalListOfMaps(items, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// ListByTemplate returns every rule whose channels reference templateID.
func (r *RuleRepo) ListByTemplate(ctx context.Context, templateID string) ([]domain.NotificationRule, error) {
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		FilterExpression:         aws.String("contains(#tids, :tid)"),
		ExpressionAttributeNames: map[string]string{"#tids": fieldTemplateIDs},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: templateID},
		},
	})
	if err != nil {
		return nil, err
	}
	var rules []domain.NotificationRule
	if err := attributevalue.UnmarshalListOfMaps(items, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleRepo) SetActive(ctx context.Context, ruleID string, active bool, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldActive:    active,
		fieldUpdatedAt: at,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldRuleID, ruleID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(rule_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("rule %s: %w", ruleID, domain.ErrNotFound)
	}
	return err
}

func (r *RuleRepo) Delete(ctx context.Context, ruleID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldRuleID, ruleID),
		ConditionExpression: aws.String("attribute_exists(rule_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("rule %s: %w", ruleID, domain.ErrNotFound)
	}
	return err
}
