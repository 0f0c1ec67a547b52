package http

import (
	"context"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/notify"
	"github.com/dealer-transfers-api/internal/pkg/logger"
	"github.com/dealer-transfers-api/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// LocationRepository is the minimal interface the router requires from a location store.
type LocationRepository interface {
	Create(ctx context.Context, l *domain.Location) error
	Get(ctx context.Context, locationID string) (*domain.Location, error)
	GetByCode(ctx context.Context, code string) (*domain.Location, error)
	List(ctx context.Context, active *bool) ([]domain.Location, error)
	Update(ctx context.Context, locationID string, updates map[string]interface{}) error
}

// VehicleRepository is the minimal interface the router requires from a vehicle store.
type VehicleRepository interface {
	Create(ctx context.Context, v *domain.Vehicle) error
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	List(ctx context.Context, f domain.VehicleFilter) ([]domain.Vehicle, int64, error)
	Update(ctx context.Context, vehicleID string, updates map[string]interface{}) error
}

// TransferRepository is the minimal interface the router requires from a transfer store.
type TransferRepository interface {
	Get(ctx context.Context, transferID string) (*domain.Transfer, error)
	List(ctx context.Context, f domain.TransferFilter) ([]domain.Transfer, int64, error)
	Open(ctx context.Context, t *domain.Transfer) error
	Advance(ctx context.Context, transferID string, from domain.TransferStatus, updates map[string]interface{}, vehicleID string, vehicleUpdates map[string]interface{}) error
}

// CommentRepository is the minimal interface the router requires from the comment and vehicle-trail store.
type CommentRepository interface {
	Create(ctx context.Context, c *domain.Comment) error
	ListByVehicle(ctx context.Context, vehicleID string) ([]domain.Comment, error)
	AppendActivity(ctx context.Context, a *domain.VehicleActivity) error
	ListActivity(ctx context.Context, vehicleID string, limit int) ([]domain.VehicleActivity, error)
}

// TemplateRepository is the minimal interface the router requires from a notification template store.
type TemplateRepository interface {
	Create(ctx context.Context, t *domain.NotificationTemplate) error
	Replace(ctx context.Context, t *domain.NotificationTemplate) error
	Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error)
	List(ctx context.Context, category domain.TemplateCategory) ([]domain.NotificationTemplate, error)
	Delete(ctx context.Context, templateID string) error
}

// RuleRepository is the minimal interface the router requires from a notification rule store.
type RuleRepository interface {
	Create(ctx context.Context, r *domain.NotificationRule) error
	Replace(ctx context.Context, r *domain.NotificationRule) error
	Get(ctx context.Context, ruleID string) (*domain.NotificationRule, error)
	List(ctx context.Context, event domain.NotificationEvent) ([]domain.NotificationRule, error)
	ListByTemplate(ctx context.Context, templateID string) ([]domain.NotificationRule, error)
	SetActive(ctx context.Context, ruleID string, active bool, at time.Time) error
	Delete(ctx context.Context, ruleID string) error
}

// ActivityRepository is the minimal interface the router requires from the notification activity log.
type ActivityRepository interface {
	Get(ctx context.Context, activityID string) (*domain.NotificationActivity, error)
	List(ctx context.Context, f domain.ActivityFilter) ([]domain.NotificationActivity, string, error)
	UpdateStatus(ctx context.Context, activityID string, from domain.ActivityStatus, updates map[string]interface{}) error
}

// Pinger reports whether the relational store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds every dependency the router wires into services and handlers.
type Deps struct {
	DB           Pinger
	UserRepo     UserRepository
	LocationRepo LocationRepository
	VehicleRepo  VehicleRepository
	TransferRepo TransferRepository
	CommentRepo  CommentRepository
	TemplateRepo TemplateRepository
	RuleRepo     RuleRepository
	ActivityRepo ActivityRepository
	Notifier     *notify.Notifier
	Resolver     *notify.Resolver
	Verifier     middleware.TokenVerifier
	Logger       *logger.Logger
	// Gatherer backs /metrics; nil falls back to the default registry.
	Gatherer prometheus.Gatherer
}
