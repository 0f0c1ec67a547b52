package db

import (
	"context"

	"github.com/dealer-transfers-api/internal/domain"
	"gorm.io/gorm"
)

// CommentRepo stores vehicle comments and the per-vehicle activity trail.
type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	return mapErr(r.db.WithContext(ctx).Create(c).Error, "comment")
}

func (r *CommentRepo) ListByVehicle(ctx context.Context, vehicleID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID).Order("created_at").Find(&out).Error
	if err != nil {
		return nil, mapErr(err, "list comments")
	}
	return out, nil
}

func (r *CommentRepo) AppendActivity(ctx context.Context, a *domain.VehicleActivity) error {
	return mapErr(r.db.WithContext(ctx).Create(a).Error, "vehicle activity")
}

// ListActivity returns newest first; limit <= 0 means all.
func (r *CommentRepo) ListActivity(ctx context.Context, vehicleID string, limit int) ([]domain.VehicleActivity, error) {
	var out []domain.VehicleActivity
	q := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID).Order("created_at DESC, activity_id DESC")
	if err := paginate(q, limit, 0).Find(&out).Error; err != nil {
		return nil, mapErr(err, "list vehicle activity")
	}
	return out, nil
}
