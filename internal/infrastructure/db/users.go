package db

import (
	"context"
	"strings"

	"github.com/dealer-transfers-api/internal/domain"
	"gorm.io/gorm"
)

// UserRepo stores dealership staff and serves the notification directory.
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return mapErr(r.db.WithContext(ctx).Create(u).Error, "user")
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return nil, mapErr(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "LOWER(email) = ?", strings.ToLower(email)).Error; err != nil {
		return nil, mapErr(err, "user")
	}
	return &u, nil
}

// List returns one page of users plus the total matching count.
func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, mapErr(err, "count users")
	}
	var users []domain.User
	if err := paginate(r.filtered(ctx, f), f.Limit, f.Offset).Order("last_name, first_name").Find(&users).Error; err != nil {
		return nil, 0, mapErr(err, "list users")
	}
	return users, total, nil
}

// ListActive returns every active user matching f. It backs recipient resolution.
func (r *UserRepo) ListActive(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	active := true
	f.Active = &active
	var users []domain.User
	if err := paginate(r.filtered(ctx, f), f.Limit, f.Offset).Order("created_at").Find(&users).Error; err != nil {
		return nil, mapErr(err, "list active users")
	}
	return users, nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return updateOne(r.db.WithContext(ctx), &domain.User{}, "user_id", userID, updates, "user")
}

func (r *UserRepo) filtered(ctx context.Context, f domain.UserFilter) *gorm.DB {
	q := r.db.WithContext(ctx)
	if len(f.IDs) > 0 {
		q = q.Where("user_id IN ?", f.IDs)
	}
	if f.LocationID != "" {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	return q
}
