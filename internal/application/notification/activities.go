package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
)

type ActivityService interface {
	List(ctx context.Context, f domain.ActivityFilter) ([]domain.NotificationActivity, string, error)
	Get(ctx context.Context, activityID string) (*domain.NotificationActivity, error)
	AdvanceStatus(ctx context.Context, upd domain.DeliveryStatusUpdate) (*domain.NotificationActivity, error)
}

type activityService struct {
	activities activityStore
	now        func() time.Time
}

type ActivityServiceDeps struct {
	ActivityRepo activityStore
}

func NewActivityService(deps ActivityServiceDeps) ActivityService {
	return &activityService{activities: deps.ActivityRepo, now: time.Now}
}

func (s *activityService) List(ctx context.Context, f domain.ActivityFilter) ([]domain.NotificationActivity, string, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, "", fmt.Errorf("unknown status %q: %w", f.Status, domain.ErrBadRequest)
	}
	return s.activities.List(ctx, f)
}

func (s *activityService) Get(ctx context.Context, activityID string) (*domain.NotificationActivity, error) {
	return s.activities.Get(ctx, activityID)
}

// AdvanceStatus applies a provider delivery report. Reports that would move an
// activity backwards, or out of a terminal state, are refused with ErrConflict.
func (s *activityService) AdvanceStatus(ctx context.Context, upd domain.DeliveryStatusUpdate) (*domain.NotificationActivity, error) {
	a, err := s.activities.Get(ctx, upd.ActivityID)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(upd.Status, a.Channel) {
		return nil, fmt.Errorf("cannot move %s activity from %s to %s: %w", a.Channel, a.Status, upd.Status, domain.ErrConflict)
	}

	now := s.now().UTC()
	at := now
	if upd.OccurredAt != nil && !upd.OccurredAt.IsZero() {
		at = upd.OccurredAt.UTC()
	}
	updates := map[string]interface{}{
		"status":     upd.Status,
		"updated_at": now,
	}
	switch upd.Status {
	case domain.ActivityDelivered:
		updates["delivered_at"] = at
		a.DeliveredAt = &at
	case domain.ActivityOpened:
		updates["opened_at"] = at
		a.OpenedAt = &at
	case domain.ActivityClicked:
		updates["clicked_at"] = at
		a.ClickedAt = &at
	case domain.ActivityFailed:
		msg := strings.TrimSpace(upd.Error)
		if msg == "" {
			msg = "reported failed by provider"
		}
		updates["failed_at"] = at
		updates["error_message"] = msg
		a.FailedAt = &at
		a.ErrorMessage = &msg
	}
	if err := s.activities.UpdateStatus(ctx, a.ActivityID, a.Status, updates); err != nil {
		return nil, err
	}
	a.Status = upd.Status
	a.UpdatedAt = now
	return a, nil
}
