package domain

import "time"

type Comment struct {
	CommentID string    `json:"id" gorm:"column:comment_id;primaryKey;size:26"`
	VehicleID string    `json:"vehicle_id" gorm:"index;size:26;not null"`
	UserID    string    `json:"user_id" gorm:"size:26;not null"`
	Body      string    `json:"body" gorm:"not null"`
	CreatedAt time.Time `json:"created"`
}

func (Comment) TableName() string { return "vehicle_comments" }

type CommentInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}

const (
	VehicleActivityCreated       = "created"
	VehicleActivityUpdated       = "updated"
	VehicleActivityStatusChanged = "status_changed"
	VehicleActivityTransfer      = "transfer"
	VehicleActivityComment       = "comment"
)

// VehicleActivity is the per-vehicle audit trail shown next to comments.
type VehicleActivity struct {
	ActivityID string    `json:"id" gorm:"column:activity_id;primaryKey;size:26"`
	VehicleID  string    `json:"vehicle_id" gorm:"index;size:26;not null"`
	UserID     string    `json:"user_id" gorm:"size:26"`
	Type       string    `json:"type" gorm:"not null"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created"`
}

func (VehicleActivity) TableName() string { return "vehicle_activities" }
