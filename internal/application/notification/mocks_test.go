package notification

import (
	"context"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/notify"
	"github.com/dealer-transfers-api/internal/pkg/fieldpath"
	"github.com/stretchr/testify/mock"
)

type mockTemplateStore struct{ mock.Mock }

func (m *mockTemplateStore) Create(ctx context.Context, t *domain.NotificationTemplate) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTemplateStore) Replace(ctx context.Context, t *domain.NotificationTemplate) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTemplateStore) Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error) {
	args := m.Called(ctx, templateID)
	if t, _ := args.Get(0).(*domain.NotificationTemplate); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTemplateStore) List(ctx context.Context, category domain.TemplateCategory) ([]domain.NotificationTemplate, error) {
	args := m.Called(ctx, category)
	return args.Get(0).([]domain.NotificationTemplate), args.Error(1)
}
func (m *mockTemplateStore) Delete(ctx context.Context, templateID string) error {
	return m.Called(ctx, templateID).Error(0)
}

type mockRuleStore struct{ mock.Mock }

func (m *mockRuleStore) Create(ctx context.Context, r *domain.NotificationRule) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRuleStore) Replace(ctx context.Context, r *domain.NotificationRule) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRuleStore) Get(ctx context.Context, ruleID string) (*domain.NotificationRule, error) {
	args := m.Called(ctx, ruleID)
	if r, _ := args.Get(0).(*domain.NotificationRule); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRuleStore) List(ctx context.Context, event domain.NotificationEvent) ([]domain.NotificationRule, error) {
	args := m.Called(ctx, event)
	return args.Get(0).([]domain.NotificationRule), args.Error(1)
}
func (m *mockRuleStore) ListByTemplate(ctx context.Context, templateID string) ([]domain.NotificationRule, error) {
	args := m.Called(ctx, templateID)
	return args.Get(0).([]domain.NotificationRule), args.Error(1)
}
func (m *mockRuleStore) SetActive(ctx context.Context, ruleID string, active bool, at time.Time) error {
	return m.Called(ctx, ruleID, active, at).Error(0)
}
func (m *mockRuleStore) Delete(ctx context.Context, ruleID string) error {
	return m.Called(ctx, ruleID).Error(0)
}

type mockActivityStore struct{ mock.Mock }

func (m *mockActivityStore) Get(ctx context.Context, activityID string) (*domain.NotificationActivity, error) {
	args := m.Called(ctx, activityID)
	if a, _ := args.Get(0).(*domain.NotificationActivity); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockActivityStore) List(ctx context.Context, f domain.ActivityFilter) ([]domain.NotificationActivity, string, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.NotificationActivity), args.String(1), args.Error(2)
}
func (m *mockActivityStore) UpdateStatus(ctx context.Context, activityID string, from domain.ActivityStatus, updates map[string]interface{}) error {
	return m.Called(ctx, activityID, from, updates).Error(0)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, cfg domain.RecipientConfig, data fieldpath.Getter) (notify.Recipients, error) {
	args := m.Called(ctx, cfg, data)
	return args.Get(0).(notify.Recipients), args.Error(1)
}

func fixedNow() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

func emailTemplate(id string) *domain.NotificationTemplate {
	return &domain.NotificationTemplate{
		TemplateID: id,
		Name:       "Transfer requested",
		Category:   domain.CategoryTransfer,
		Email:      &domain.EmailContent{Subject: "Transfer {{transfer.id}}", TextBody: "{{vehicle.vin}} is moving"},
		Active:     true,
	}
}

func boolPtr(b bool) *bool { return &b }
