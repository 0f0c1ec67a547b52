package db

import (
	"context"
	"fmt"

	"github.com/dealer-transfers-api/internal/domain"
	"gorm.io/gorm"
)

type TransferRepo struct {
	db *gorm.DB
}

func NewTransferRepo(db *gorm.DB) *TransferRepo {
	return &TransferRepo{db: db}
}

func (r *TransferRepo) Get(ctx context.Context, transferID string) (*domain.Transfer, error) {
	var t domain.Transfer
	if err := r.db.WithContext(ctx).First(&t, "transfer_id = ?", transferID).Error; err != nil {
		return nil, mapErr(err, "transfer")
	}
	return &t, nil
}

func (r *TransferRepo) List(ctx context.Context, f domain.TransferFilter) ([]domain.Transfer, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Model(&domain.Transfer{}).Count(&total).Error; err != nil {
		return nil, 0, mapErr(err, "count transfers")
	}
	var out []domain.Transfer
	if err := paginate(r.filtered(ctx, f), f.Limit, f.Offset).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, 0, mapErr(err, "list transfers")
	}
	return out, total, nil
}

// Open stores t and reserves its vehicle in one transaction. It fails with
// ErrConflict when the vehicle is no longer available.
func (r *TransferRepo) Open(ctx context.Context, t *domain.Transfer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Vehicle{}).
			Where("vehicle_id = ? AND status = ?", t.VehicleID, domain.VehicleAvailable).
			Updates(map[string]interface{}{"status": domain.VehicleReserved, "updated_at": t.CreatedAt})
		if res.Error != nil {
			return mapErr(res.Error, "reserve vehicle")
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("vehicle %s is not available: %w", t.VehicleID, domain.ErrConflict)
		}
		return mapErr(tx.Create(t).Error, "transfer")
	})
}

// Advance applies updates to a transfer still in status from and, in the same
// transaction, vehicleUpdates to its vehicle. A transfer that has moved on in
// the meantime yields ErrConflict.
func (r *TransferRepo) Advance(ctx context.Context, transferID string, from domain.TransferStatus, updates map[string]interface{}, vehicleID string, vehicleUpdates map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Transfer{}).
			Where("transfer_id = ? AND status = ?", transferID, from).
			Updates(updates)
		if res.Error != nil {
			return mapErr(res.Error, "transfer")
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("transfer %s is no longer %s: %w", transferID, from, domain.ErrConflict)
		}
		if len(vehicleUpdates) == 0 {
			return nil
		}
		return updateOne(tx, &domain.Vehicle{}, "vehicle_id", vehicleID, vehicleUpdates, "vehicle")
	})
}

func (r *TransferRepo) filtered(ctx context.Context, f domain.TransferFilter) *gorm.DB {
	q := r.db.WithContext(ctx)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.VehicleID != "" {
		q = q.Where("vehicle_id = ?", f.VehicleID)
	}
	if f.LocationID != "" {
		q = q.Where("from_location_id = ? OR to_location_id = ?", f.LocationID, f.LocationID)
	}
	return q
}
