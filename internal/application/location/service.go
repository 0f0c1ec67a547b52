package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/id"
)

type Service interface {
	List(ctx context.Context, active *bool) ([]domain.Location, error)
	Get(ctx context.Context, locationID string) (*domain.Location, error)
	Create(ctx context.Context, in domain.LocationInput) (*domain.Location, error)
	Update(ctx context.Context, locationID string, in domain.LocationInput) (*domain.Location, error)
	Deactivate(ctx context.Context, locationID string) error
}

type locationStore interface {
	Create(ctx context.Context, l *domain.Location) error
	Get(ctx context.Context, locationID string) (*domain.Location, error)
	GetByCode(ctx context.Context, code string) (*domain.Location, error)
	List(ctx context.Context, active *bool) ([]domain.Location, error)
	Update(ctx context.Context, locationID string, updates map[string]interface{}) error
}

type service struct {
	repo locationStore
	now  func() time.Time
}

type ServiceDeps struct {
	LocationRepo locationStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.LocationRepo, now: time.Now}
}

func (s *service) List(ctx context.Context, active *bool) ([]domain.Location, error) {
	return s.repo.List(ctx, active)
}

func (s *service) Get(ctx context.Context, locationID string) (*domain.Location, error) {
	return s.repo.Get(ctx, locationID)
}

func (s *service) Create(ctx context.Context, in domain.LocationInput) (*domain.Location, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return nil, fmt.Errorf("location code %s already in use: %w", code, domain.ErrConflict)
	}
	now := s.now().UTC()
	l := &domain.Location{
		LocationID: id.New(),
		Code:       code,
		Name:       strings.TrimSpace(in.Name),
		Address:    in.Address,
		City:       in.City,
		State:      in.State,
		Phone:      in.Phone,
		Email:      strings.ToLower(in.Email),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) Update(ctx context.Context, locationID string, in domain.LocationInput) (*domain.Location, error) {
	current, err := s.repo.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code != current.Code {
		if _, err := s.repo.GetByCode(ctx, code); err == nil {
			return nil, fmt.Errorf("location code %s already in use: %w", code, domain.ErrConflict)
		}
	}
	updates := map[string]interface{}{
		"code":       code,
		"name":       strings.TrimSpace(in.Name),
		"address":    in.Address,
		"city":       in.City,
		"state":      in.State,
		"phone":      in.Phone,
		"email":      strings.ToLower(in.Email),
		"updated_at": s.now().UTC(),
	}
	if err := s.repo.Update(ctx, locationID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, locationID)
}

func (s *service) Deactivate(ctx context.Context, locationID string) error {
	return s.repo.Update(ctx, locationID, map[string]interface{}{
		"active":     false,
		"updated_at": s.now().UTC(),
	})
}
