package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *mockAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func (m *mockAPI) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.CreateTableOutput)
	return out, args.Error(1)
}

func mustItem(t *testing.T, v interface{}) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return item
}

var conditionFailed = &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}

func TestTemplateRepo_CreateConflict(t *testing.T) {
	api := new(mockAPI)
	repo := NewTemplateRepo(api, "templates")
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return aws.ToString(in.ConditionExpression) == "attribute_not_exists(template_id)"
	})).Return(nil, conditionFailed)

	err := repo.Create(context.Background(), &domain.NotificationTemplate{TemplateID: "t1"})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTemplateRepo_GetMissing(t *testing.T) {
	api := new(mockAPI)
	repo := NewTemplateRepo(api, "templates")
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := repo.Get(context.Background(), "t1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTemplateRepo_GetDecodes(t *testing.T) {
	api := new(mockAPI)
	repo := NewTemplateRepo(api, "templates")
	stored := domain.NotificationTemplate{
		TemplateID: "t1",
		Name:       "Transfer requested",
		Category:   domain.CategoryTransfer,
		Email:      &domain.EmailContent{Subject: "Transfer {{transfer.id}}", TextBody: "hi"},
		Active:     true,
	}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		key, ok := in.Key["template_id"].(*types.AttributeValueMemberS)
		return ok && key.Value == "t1"
	})).Return(&dynamodb.GetItemOutput{Item: mustItem(t, stored)}, nil)

	got, err := repo.Get(context.Background(), "t1")

	require.NoError(t, err)
	assert.Equal(t, stored.Email.Subject, got.Email.Subject)
	assert.Nil(t, got.SMS)
	assert.True(t, got.Active)
}

func TestTemplateRepo_ListByCategoryUsesIndexAndSorts(t *testing.T) {
	api := new(mockAPI)
	repo := NewTemplateRepo(api, "templates")
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == indexTemplatesByCategory
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		mustItem(t, domain.NotificationTemplate{TemplateID: "b", Name: "Zulu", Category: domain.CategoryVehicle}),
		mustItem(t, domain.NotificationTemplate{TemplateID: "a", Name: "Alpha", Category: domain.CategoryVehicle}),
	}}, nil)

	out, err := repo.List(context.Background(), domain.CategoryVehicle)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Alpha", out[0].Name)
	api.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
}

func TestTemplateRepo_ListAllFollowsPages(t *testing.T) {
	api := new(mockAPI)
	repo := NewTemplateRepo(api, "templates")
	page2 := strKey("template_id", "a")
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{mustItem(t, domain.NotificationTemplate{TemplateID: "a", Name: "A"})},
		LastEvaluatedKey: page2,
	}, nil).Once()
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{mustItem(t, domain.NotificationTemplate{TemplateID: "b", Name: "B"})},
	}, nil).Once()

	out, err := repo.List(context.Background(), "")

	require.NoError(t, err)
	assert.Len(t, out, 2)
	api.AssertExpectations(t)
}

func TestTemplateRepo_DeleteMissing(t *testing.T) {
	api := new(mockAPI)
	repo := NewTemplateRepo(api, "templates")
	api.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, conditionFailed)

	assert.ErrorIs(t, repo.Delete(context.Background(), "t1"), domain.ErrNotFound)
}

func TestRuleRepo_CreateStoresReferencedTemplates(t *testing.T) {
	api := new(mockAPI)
	repo := NewRuleRepo(api, "rules")
	var stored map[string]types.AttributeValue
	api.On("PutItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*dynamodb.PutItemInput).Item
	}).Return(&dynamodb.PutItemOutput{}, nil)

	rule := &domain.NotificationRule{
		RuleID: "r1",
		Event:  domain.EventTransferRequested,
		Channels: []domain.ChannelSetting{
			{Channel: domain.ChannelEmail, Enabled: true, TemplateID: "t-mail"},
			{Channel: domain.ChannelSMS, Enabled: false, TemplateID: "t-sms"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), rule))

	var back domain.NotificationRule
	require.NoError(t, attributevalue.UnmarshalMap(stored, &back))
	assert.ElementsMatch(t, []string{"t-mail", "t-sms"}, back.TemplateIDs)
}

func TestRuleRepo_ListActiveByEvent(t *testing.T) {
	api := new(mockAPI)
	repo := NewRuleRepo(api, "rules")
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		ev, _ := in.ExpressionAttributeValues[":ev"].(*types.AttributeValueMemberS)
		on, _ := in.ExpressionAttributeValues[":on"].(*types.AttributeValueMemberBOOL)
		return aws.ToString(in.IndexName) == indexRulesByEvent &&
			!aws.ToBool(in.ScanIndexForward) &&
			ev != nil && ev.Value == string(domain.EventTransferApproved) &&
			on != nil && on.Value
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		mustItem(t, domain.NotificationRule{RuleID: "high", Priority: 10, Active: true}),
		mustItem(t, domain.NotificationRule{RuleID: "low", Priority: 1, Active: true}),
	}}, nil)

	rules, err := repo.ListActiveByEvent(context.Background(), domain.EventTransferApproved)

	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "high", rules[0].RuleID)
}

func TestRuleRepo_ListByTemplate(t *testing.T) {
	api := new(mockAPI)
	repo := NewRuleRepo(api, "rules")
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		tid, _ := in.ExpressionAttributeValues[":tid"].(*types.AttributeValueMemberS)
		return aws.ToString(in.FilterExpression) == "contains(#tids, :tid)" && tid != nil && tid.Value == "t1"
	})).Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
		mustItem(t, domain.NotificationRule{RuleID: "r1"}),
	}}, nil)

	rules, err := repo.ListByTemplate(context.Background(), "t1")

	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestRuleRepo_SetActiveMissing(t *testing.T) {
	api := new(mockAPI)
	repo := NewRuleRepo(api, "rules")
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return aws.ToString(in.UpdateExpression) == "SET #f0 = :v0, #f1 = :v1" &&
			in.ExpressionAttributeNames["#f0"] == "active"
	})).Return(nil, conditionFailed)

	err := repo.SetActive(context.Background(), "r1", false, time.Now())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActivityRepo_ListByTransferUsesIndex(t *testing.T) {
	api := new(mockAPI)
	repo := NewActivityRepo(api, "activities")
	next := map[string]types.AttributeValue{
		"activity_id": &types.AttributeValueMemberS{Value: "a2"},
		"transfer_id": &types.AttributeValueMemberS{Value: "tr1"},
		"created_at":  &types.AttributeValueMemberS{Value: "2024-01-01T00:00:00Z"},
	}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == "transfer_id-created_at-index" &&
			aws.ToString(in.FilterExpression) == "#st = :st" &&
			aws.ToInt32(in.Limit) == 10
	})).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{mustItem(t, domain.NotificationActivity{ActivityID: "a1", TransferID: "tr1", Status: domain.ActivityFailed})},
		LastEvaluatedKey: next,
	}, nil)

	out, cursor, err := repo.List(context.Background(), domain.ActivityFilter{TransferID: "tr1", Status: domain.ActivityFailed, Limit: 10})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a1", out[0].ActivityID)
	require.NotEmpty(t, cursor)

	decoded, err := decodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, next, decoded)
}

func TestActivityRepo_ListScanCapsLimit(t *testing.T) {
	api := new(mockAPI)
	repo := NewActivityRepo(api, "activities")
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return aws.ToInt32(in.Limit) == maxActivityPage && in.FilterExpression == nil && in.ExpressionAttributeNames == nil
	})).Return(&dynamodb.ScanOutput{}, nil)

	out, cursor, err := repo.List(context.Background(), domain.ActivityFilter{Limit: 5000})

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, cursor)
}

func TestActivityRepo_ListBadCursor(t *testing.T) {
	repo := NewActivityRepo(new(mockAPI), "activities")

	_, _, err := repo.List(context.Background(), domain.ActivityFilter{Cursor: "%%%"})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestActivityRepo_UpdateStatusGuardsCurrentStatus(t *testing.T) {
	api := new(mockAPI)
	repo := NewActivityRepo(api, "activities")
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		cur, _ := in.ExpressionAttributeValues[":cur"].(*types.AttributeValueMemberS)
		return aws.ToString(in.ConditionExpression) == "#cur = :cur" &&
			in.ExpressionAttributeNames["#cur"] == "status" &&
			cur != nil && cur.Value == string(domain.ActivitySent)
	})).Return(nil, conditionFailed)

	err := repo.UpdateStatus(context.Background(), "a1", domain.ActivitySent, map[string]interface{}{"status": domain.ActivityDelivered})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBootstrap_IgnoresExistingTables(t *testing.T) {
	api := new(mockAPI)
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return aws.ToString(in.TableName) == "templates"
	})).Return(nil, &types.ResourceInUseException{Message: aws.String("exists")})
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return aws.ToString(in.TableName) == "rules"
	})).Return(nil, errors.New("throttled"))
	var activities *dynamodb.CreateTableInput
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return aws.ToString(in.TableName) == "activities"
	})).Run(func(args mock.Arguments) {
		activities = args.Get(1).(*dynamodb.CreateTableInput)
	}).Return(&dynamodb.CreateTableOutput{}, nil)

	Bootstrap(context.Background(), api, Tables{Templates: "templates", Rules: "rules", Activities: "activities"}, logger.Nop())

	api.AssertNumberOfCalls(t, "CreateTable", 3)
	require.NotNil(t, activities)
	var names []string
	for _, idx := range activities.GlobalSecondaryIndexes {
		names = append(names, aws.ToString(idx.IndexName))
	}
	assert.ElementsMatch(t, []string{"rule_id-created_at-index", "transfer_id-created_at-index", "vehicle_id-created_at-index"}, names)
}
