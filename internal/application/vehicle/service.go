package vehicle

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

const (
	defaultPageSize     = 50
	defaultActivityPage = 100
)

type Service interface {
	List(ctx context.Context, f domain.VehicleFilter) ([]domain.Vehicle, int64, error)
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	Create(ctx context.Context, actor domain.Actor, req domain.CreateVehicleRequest) (*domain.Vehicle, error)
	Update(ctx context.Context, actor domain.Actor, vehicleID string, req domain.UpdateVehicleRequest) (*domain.Vehicle, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, vehicleID string, req domain.UpdateVehicleStatusRequest) (*domain.Vehicle, error)
	AddComment(ctx context.Context, actor domain.Actor, vehicleID string, in domain.CommentInput) (*domain.Comment, error)
	ListComments(ctx context.Context, vehicleID string) ([]domain.Comment, error)
	ListActivity(ctx context.Context, vehicleID string, limit int) ([]domain.VehicleActivity, error)
}

type vehicleStore interface {
	Create(ctx context.Context, v *domain.Vehicle) error
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	List(ctx context.Context, f domain.VehicleFilter) ([]domain.Vehicle, int64, error)
	Update(ctx context.Context, vehicleID string, updates map[string]interface{}) error
}

type commentStore interface {
	Create(ctx context.Context, c *domain.Comment) error
	ListByVehicle(ctx context.Context, vehicleID string) ([]domain.Comment, error)
	AppendActivity(ctx context.Context, a *domain.VehicleActivity) error
	ListActivity(ctx context.Context, vehicleID string, limit int) ([]domain.VehicleActivity, error)
}

type locationStore interface {
	Get(ctx context.Context, locationID string) (*domain.Location, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type notifier interface {
	Notify(ctx context.Context, event domain.NotificationEvent, in notify.EventData) []notify.DispatchResult
}

type service struct {
	vehicles  vehicleStore
	comments  commentStore
	locations locationStore
	users     userStore
	notifier  notifier
	log       *logger.Logger
	now       func() time.Time
}

type ServiceDeps struct {
	VehicleRepo  vehicleStore
	CommentRepo  commentStore
	LocationRepo locationStore
	UserRepo     userStore
	Notifier     notifier
	Logger       *logger.Logger
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &service{
		vehicles:  deps.VehicleRepo,
		comments:  deps.CommentRepo,
		locations: deps.LocationRepo,
		users:     deps.UserRepo,
		notifier:  deps.Notifier,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) List(ctx context.Context, f domain.VehicleFilter) ([]domain.Vehicle, int64, error) {
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	return s.vehicles.List(ctx, f)
}

func (s *service) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	return s.vehicles.Get(ctx, vehicleID)
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req domain.CreateVehicleRequest) (*domain.Vehicle, error) {
	loc, err := s.locations.Get(ctx, req.LocationID)
	if err != nil || !loc.Active {
		return nil, fmt.Errorf("location %s is not an active location: %w", req.LocationID, domain.ErrBadRequest)
	}
	now := s.now().UTC()
	v := &domain.Vehicle{
		VehicleID:   id.New(),
		VIN:         strings.ToUpper(req.VIN),
		StockNumber: req.StockNumber,
		Year:        req.Year,
		Make:        req.Make,
		Model:       req.Model,
		Trim:        req.Trim,
		Color:       req.Color,
		Mileage:     req.Mileage,
		PriceCents:  req.PriceCents,
		Status:      domain.VehicleAvailable,
		LocationID:  loc.LocationID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.vehicles.Create(ctx, v); err != nil {
		return nil, err
	}
	s.record(ctx, v.VehicleID, actor.UserID, domain.VehicleActivityCreated, fmt.Sprintf("Vehicle added at %s", loc.Name))
	s.notify(ctx, domain.EventVehicleCreated, actor, notify.EventData{Vehicle: v, VehicleLocation: loc})
	return v, nil
}

func (s *service) Update(ctx context.Context, actor domain.Actor, vehicleID string, req domain.UpdateVehicleRequest) (*domain.Vehicle, error) {
	updates := map[string]interface{}{}
	var changed []string
	if req.StockNumber != nil {
		updates["stock_number"] = *req.StockNumber
		changed = append(changed, "stock_number")
	}
	if req.Color != nil {
		updates["color"] = *req.Color
		changed = append(changed, "color")
	}
	if req.Trim != nil {
		updates["trim"] = *req.Trim
		changed = append(changed, "trim")
	}
	if req.Mileage != nil {
		updates["mileage"] = *req.Mileage
		changed = append(changed, "mileage")
	}
	if req.PriceCents != nil {
		updates["price_cents"] = *req.PriceCents
		changed = append(changed, "price_cents")
	}
	if len(updates) == 0 {
		return s.vehicles.Get(ctx, vehicleID)
	}
	updates["updated_at"] = s.now().UTC()
	if err := s.vehicles.Update(ctx, vehicleID, updates); err != nil {
		return nil, err
	}
	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, vehicleID, actor.UserID, domain.VehicleActivityUpdated, "Updated "+strings.Join(changed, ", "))
	s.notify(ctx, domain.EventVehicleUpdated, actor, notify.EventData{Vehicle: v, VehicleLocation: s.location(ctx, v.LocationID)})
	return v, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor domain.Actor, vehicleID string, req domain.UpdateVehicleStatusRequest) (*domain.Vehicle, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("invalid vehicle status %q: %w", req.Status, domain.ErrBadRequest)
	}
	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.Status == req.Status {
		return v, nil
	}
	previous := v.Status
	now := s.now().UTC()
	if err := s.vehicles.Update(ctx, vehicleID, map[string]interface{}{"status": req.Status, "updated_at": now}); err != nil {
		return nil, err
	}
	v.Status = req.Status
	v.UpdatedAt = now

	msg := fmt.Sprintf("Status changed from %s to %s", previous, req.Status)
	if note := strings.TrimSpace(req.Note); note != "" {
		msg += ": " + note
	}
	s.record(ctx, vehicleID, actor.UserID, domain.VehicleActivityStatusChanged, msg)
	s.notify(ctx, domain.EventVehicleStatusChanged, actor, notify.EventData{
		Vehicle:         v,
		VehicleLocation: s.location(ctx, v.LocationID),
		PreviousStatus:  string(previous),
	})
	return v, nil
}

func (s *service) AddComment(ctx context.Context, actor domain.Actor, vehicleID string, in domain.CommentInput) (*domain.Comment, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, fmt.Errorf("comment body is empty: %w", domain.ErrBadRequest)
	}
	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	c := &domain.Comment{
		CommentID: id.New(),
		VehicleID: vehicleID,
		UserID:    actor.UserID,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.record(ctx, vehicleID, actor.UserID, domain.VehicleActivityComment, "Comment added")
	s.notify(ctx, domain.EventCommentAdded, actor, notify.EventData{
		Vehicle:         v,
		VehicleLocation: s.location(ctx, v.LocationID),
		Comment:         c,
	})
	return c, nil
}

func (s *service) ListComments(ctx context.Context, vehicleID string) ([]domain.Comment, error) {
	if _, err := s.vehicles.Get(ctx, vehicleID); err != nil {
		return nil, err
	}
	return s.comments.ListByVehicle(ctx, vehicleID)
}

func (s *service) ListActivity(ctx context.Context, vehicleID string, limit int) ([]domain.VehicleActivity, error) {
	if limit < 1 {
		limit = defaultActivityPage
	}
	return s.comments.ListActivity(ctx, vehicleID, limit)
}

// record appends to the vehicle's activity trail. The mutation it describes has
// already been applied, so a failed write is logged rather than returned.
func (s *service) record(ctx context.Context, vehicleID, userID, kind, msg string) {
	err := s.comments.AppendActivity(ctx, &domain.VehicleActivity{
		ActivityID: id.New(),
		VehicleID:  vehicleID,
		UserID:     userID,
		Type:       kind,
		Message:    msg,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		s.log.Error(s.log.WithField(ctx, "vehicle_id", vehicleID), "append vehicle activity", err)
	}
}

func (s *service) notify(ctx context.Context, event domain.NotificationEvent, actor domain.Actor, in notify.EventData) {
	if s.notifier == nil {
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
