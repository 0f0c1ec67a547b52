// Package notification administers notification templates, rules and the activity log.
package notification

import (
	"context"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
)

type templateStore interface {
	Create(ctx context.Context, t *domain.NotificationTemplate) error
	Replace(ctx context.Context, t *domain.NotificationTemplate) error
	Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error)
	List(ctx context.Context, category domain.TemplateCategory) ([]domain.NotificationTemplate, error)
	Delete(ctx context.Context, templateID string) error
}

type ruleStore interface {
	Create(ctx context.Context, r *domain.NotificationRule) error
	Replace(ctx context.Context, r *domain.NotificationRule) error
	Get(ctx context.Context, ruleID string) (*domain.NotificationRule, error)
	List(ctx context.Context, event domain.NotificationEvent) ([]domain.NotificationRule, error)
	ListByTemplate(ctx context.Context, templateID string) ([]domain.NotificationRule, error)
	SetActive(ctx context.Context, ruleID string, active bool, at time.Time) error
	Delete(ctx context.Context, ruleID string) error
}

type activityStore interface {
	Get(ctx context.Context, activityID string) (*domain.NotificationActivity, error)
	List(ctx context.Context, f domain.ActivityFilter) ([]domain.NotificationActivity, string, error)
	UpdateStatus(ctx context.Context, activityID string, from domain.ActivityStatus, updates map[string]interface{}) error
}
