package db

import (
	"context"

	"github.com/dealer-transfers-api/internal/domain"
	"gorm.io/gorm"
)

type LocationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Create(ctx context.Context, l *domain.Location) error {
	return mapErr(r.db.WithContext(ctx).Create(l).Error, "location")
}

func (r *LocationRepo) Get(ctx context.Context, locationID string) (*domain.Location, error) {
	var l domain.Location
	if err := r.db.WithContext(ctx).First(&l, "location_id = ?", locationID).Error; err != nil {
		return nil, mapErr(err, "location")
	}
	return &l, nil
}

func (r *LocationRepo) GetByCode(ctx context.Context, code string) (*domain.Location, error) {
	var l domain.Location
	if err := r.db.WithContext(ctx).First(&l, "code = ?", code).Error; err != nil {
		return nil, mapErr(err, "location")
	}
	return &l, nil
}

// List returns locations ordered by name; a nil active returns all of them.
func (r *LocationRepo) List(ctx context.Context, active *bool) ([]domain.Location, error) {
	q := r.db.WithContext(ctx)
	if active != nil {
		q = q.Where("active = ?", *active)
	}
	var out []domain.Location
	if err := q.Order("name").Find(&out).Error; err != nil {
		return nil, mapErr(err, "list locations")
	}
	return out, nil
}

func (r *LocationRepo) Update(ctx context.Context, locationID string, updates map[string]interface{}) error {
	return updateOne(r.db.WithContext(ctx), &domain.Location{}, "location_id", locationID, updates, "location")
}
