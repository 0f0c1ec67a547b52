package db

import (
	"context"
	"strings"

	"github.com/dealer-transfers-api/internal/domain"
	"gorm.io/gorm"
)

type VehicleRepo struct {
	db *gorm.DB
}

func NewVehicleRepo(db *gorm.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func (r *VehicleRepo) Create(ctx context.Context, v *domain.Vehicle) error {
	return mapErr(r.db.WithContext(ctx).Create(v).Error, "vehicle")
}

func (r *VehicleRepo) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := r.db.WithContext(ctx).First(&v, "vehicle_id = ?", vehicleID).Error; err != nil {
		return nil, mapErr(err, "vehicle")
	}
	return &v, nil
}

func (r *VehicleRepo) List(ctx context.Context, f domain.VehicleFilter) ([]domain.Vehicle, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Model(&domain.Vehicle{}).Count(&total).Error; err != nil {
		return nil, 0, mapErr(err, "count vehicles")
	}
	var out []domain.Vehicle
	if err := paginate(r.filtered(ctx, f), f.Limit, f.Offset).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, 0, mapErr(err, "list vehicles")
	}
	return out, total, nil
}

func (r *VehicleRepo) Update(ctx context.Context, vehicleID string, updates map[string]interface{}) error {
	return updateOne(r.db.WithContext(ctx), &domain.Vehicle{}, "vehicle_id", vehicleID, updates, "vehicle")
}

func (r *VehicleRepo) filtered(ctx context.Context, f domain.VehicleFilter) *gorm.DB {
	q := r.db.WithContext(ctx)
	if f.LocationID != "" {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Make != "" {
		q = q.Where("LOWER(make) = ?", strings.ToLower(f.Make))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(vin) LIKE ? OR LOWER(stock_number) LIKE ? OR LOWER(make) LIKE ? OR LOWER(model) LIKE ?", like, like, like, like)
	}
	return q
}
