package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/notify"
	"github.com/dealer-transfers-api/internal/pkg/id"
	"github.com/dealer-transfers-api/internal/pkg/logger"
)

const defaultPageSize = 50

type Service interface {
	List(ctx context.Context, f domain.TransferFilter) ([]domain.Transfer, int64, error)
	Get(ctx context.Context, transferID string) (*domain.Transfer, error)
	Create(ctx context.Context, actor domain.Actor, req domain.CreateTransferRequest) (*domain.Transfer, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, transferID string, req domain.UpdateTransferStatusRequest) (*domain.Transfer, error)
}

type transferStore interface {
	Open(ctx context.Context, t *domain.Transfer) error
	Get(ctx context.Context, transferID string) (*domain.Transfer, error)
	List(ctx context.Context, f domain.TransferFilter) ([]domain.Transfer, int64, error)
	Advance(ctx context.Context, transferID string, from domain.TransferStatus, updates map[string]interface{}, vehicleID string, vehicleUpdates map[string]interface{}) error
}

type vehicleStore interface {
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
}

type locationStore interface {
	Get(ctx context.Context, locationID string) (*domain.Location, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type activityStore interface {
	AppendActivity(ctx context.Context, a *domain.VehicleActivity) error
}

type notifier interface {
	Notify(ctx context.Context, event domain.NotificationEvent, in notify.EventData) []notify.DispatchResult
}

type service struct {
	transfers transferStore
	vehicles  vehicleStore
	locations locationStore
	users     userStore
	trail     activityStore
	notifier  notifier
	log       *logger.Logger
	now       func() time.Time
}

type ServiceDeps struct {
	TransferRepo transferStore
	VehicleRepo  vehicleStore
	LocationRepo locationStore
	UserRepo     userStore
	ActivityRepo activityStore
	Notifier     notifier
	Logger       *logger.Logger
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &service{
		transfers: deps.TransferRepo,
		vehicles:  deps.VehicleRepo,
		locations: deps.LocationRepo,
		users:     deps.UserRepo,
		trail:     deps.ActivityRepo,
		notifier:  deps.Notifier,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) List(ctx context.Context, f domain.TransferFilter) ([]domain.Transfer, int64, error) {
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	return s.transfers.List(ctx, f)
}

func (s *service) Get(ctx context.Context, transferID string) (*domain.Transfer, error) {
	return s.transfers.Get(ctx, transferID)
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req domain.CreateTransferRequest) (*domain.Transfer, error) {
	v, err := s.vehicles.Get(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.VehicleAvailable {
		return nil, fmt.Errorf("vehicle is %s: %w", v.Status, domain.ErrConflict)
	}
	if req.ToLocationID == v.LocationID {
		return nil, fmt.Errorf("vehicle is already at the destination: %w", domain.ErrBadRequest)
	}
	to, err := s.locations.Get(ctx, req.ToLocationID)
	if err != nil || !to.Active {
		return nil, fmt.Errorf("location %s is not an active location: %w", req.ToLocationID, domain.ErrBadRequest)
	}
	now := s.now().UTC()
	if req.NeededBy != nil && req.NeededBy.Before(now) {
		return nil, fmt.Errorf("needed_by is in the past: %w", domain.ErrBadRequest)
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	t := &domain.Transfer{
		TransferID:     id.New(),
		VehicleID:      v.VehicleID,
		FromLocationID: v.LocationID,
		ToLocationID:   to.LocationID,
		RequestedBy:    actor.UserID,
		Status:         domain.TransferRequested,
		Priority:       priority,
		Notes:          strings.TrimSpace(req.Notes),
		NeededBy:       req.NeededBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.transfers.Open(ctx, t); err != nil {
		return nil, err
	}
	v.Status = domain.VehicleReserved

	from := s.location(ctx, t.FromLocationID)
	s.record(ctx, t, actor.UserID, fmt.Sprintf("Transfer requested to %s", to.Name))
	s.notify(ctx, domain.EventTransferRequested, actor, notify.EventData{
		Vehicle:         v,
		VehicleLocation: from,
		Transfer:        t,
		FromLocation:    from,
		ToLocation:      to,
	})
	return t, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor domain.Actor, transferID string, req domain.UpdateTransferStatusRequest) (*domain.Transfer, error) {
	t, err := s.transfers.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if !t.Status.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("cannot move transfer from %s to %s: %w", t.Status, req.Status, domain.ErrConflict)
	}
	if err := authorize(actor, t, req.Status); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	previous := t.Status
	updates := map[string]interface{}{
		"status":      req.Status,
		"status_note": strings.TrimSpace(req.Note),
		"updated_at":  now,
	}
	var vehicleUpdates map[string]interface{}
	switch req.Status {
	case domain.TransferApproved:
		updates["approved_by"] = actor.UserID
		updates["approved_at"] = now
	case domain.TransferInTransit:
		updates["shipped_at"] = now
		vehicleUpdates = map[string]interface{}{"status": domain.VehicleInTransit, "updated_at": now}
	case domain.TransferDelivered:
		updates["delivered_at"] = now
		vehicleUpdates = map[string]interface{}{
			"status":      domain.VehicleAvailable,
			"location_id": t.ToLocationID,
			"updated_at":  now,
		}
	case domain.TransferRejected, domain.TransferCancelled:
		vehicleUpdates = map[string]interface{}{"status": domain.VehicleAvailable, "updated_at": now}
	}
	if err := s.transfers.Advance(ctx, transferID, previous, updates, t.VehicleID, vehicleUpdates); err != nil {
		return nil, err
	}

	t, err = s.transfers.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Transfer %s", strings.ReplaceAll(string(req.Status), "_", " "))
	if t.StatusNote != "" {
		msg += ": " + t.StatusNote
	}
	s.record(ctx, t, actor.UserID, msg)

	in := notify.EventData{
		Transfer:       t,
		FromLocation:   s.location(ctx, t.FromLocationID),
		ToLocation:     s.location(ctx, t.ToLocationID),
		PreviousStatus: string(previous),
	}
	if v, err := s.vehicles.Get(ctx, t.VehicleID); err == nil {
		in.Vehicle = v
		in.VehicleLocation = s.location(ctx, v.LocationID)
	}
	s.notify(ctx, req.Status.Event(), actor, in)
	return t, nil
}

// authorize applies the role rules for moving t into next.
func authorize(actor domain.Actor, t *domain.Transfer, next domain.TransferStatus) error {
	switch next {
	case domain.TransferApproved, domain.TransferRejected:
		if !actor.CanApprove() {
			return fmt.Errorf("only managers can mark a transfer %s: %w", next, domain.ErrForbidden)
		}
	case domain.TransferCancelled:
		if actor.UserID != t.RequestedBy && !actor.CanApprove() {
			return fmt.Errorf("only the requester or a manager can cancel: %w", domain.ErrForbidden)
		}
	}
	return nil
}

func (s *service) record(ctx context.Context, t *domain.Transfer, userID, msg string) {
	err := s.trail.AppendActivity(ctx, &domain.VehicleActivity{
		ActivityID: id.New(),
		VehicleID:  t.VehicleID,
		UserID:     userID,
		Type:       domain.VehicleActivityTransfer,
		Message:    msg,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		s.log.Error(s.log.WithField(ctx, "transfer_id", t.TransferID), "append vehicle activity", err)
	}
}

func (s *service) notify(ctx context.Context, event domain.NotificationEvent, actor domain.Actor, in notify.EventData) {
	if s.notifier == nil || event == "" {
		return
	}
	if actor.UserID != "" {
		if u, err := s.users.Get(ctx, actor.UserID); err == nil {
			in.Actor = u
		}
	}
	s.notifier.Notify(ctx, event, in)
}

func (s *service) location(ctx context.Context, locationID string) *domain.Location {
	loc, err := s.locations.Get(ctx, locationID)
	if err != nil {
		return nil
	}
	return loc
}
