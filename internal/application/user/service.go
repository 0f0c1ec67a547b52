package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/id"
)

// Column names used in partial update maps.
const (
	fieldEmail      = "email"
	fieldPhone      = "phone"
	fieldFirstName  = "first_name"
	fieldLastName   = "last_name"
	fieldRole       = "role"
	fieldLocationID = "location_id"
	fieldActive     = "active"
	fieldUpdatedAt  = "updated_at"
)

const defaultPageSize = 50

type Service interface {
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Deactivate(ctx context.Context, userID string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type locationStore interface {
	Get(ctx context.Context, locationID string) (*domain.Location, error)
}

type service struct {
	repo      userStore
	locations locationStore
	now       func() time.Time
}

type ServiceDeps struct {
	UserRepo     userStore
	LocationRepo locationStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.UserRepo,
		locations: deps.LocationRepo,
		now:       time.Now,
	}
}

func (s *service) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	return s.repo.List(ctx, f)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if err := s.checkLocation(ctx, req.LocationID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:     id.New(),
		Email:      email,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Phone:      req.Phone,
		Role:       req.Role,
		LocationID: req.LocationID,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing.UserID != userID {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = email
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates[fieldLastName] = strings.TrimSpace(*req.LastName)
	}
	if req.Role != nil {
		if !domain.ValidRole(*req.Role) {
			return nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
		}
		updates[fieldRole] = *req.Role
	}
	if req.LocationID != nil {
		if err := s.checkLocation(ctx, req.LocationID); err != nil {
			return nil, err
		}
		updates[fieldLocationID] = *req.LocationID
	}
	if req.Active != nil {
		updates[fieldActive] = *req.Active
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	updates[fieldUpdatedAt] = s.now().UTC()
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Deactivate(ctx context.Context, userID string) error {
	return s.repo.Update(ctx, userID, map[string]interface{}{
		fieldActive:    false,
		fieldUpdatedAt: s.now().UTC(),
	})
}

func (s *service) checkLocation(ctx context.Context, locationID *string) error {
	if locationID == nil || *locationID == "" {
		return nil
	}
	if _, err := s.locations.Get(ctx, *locationID); err != nil {
		return fmt.Errorf("location %s: %w", *locationID, domain.ErrBadRequest)
	}
	return nil
}
