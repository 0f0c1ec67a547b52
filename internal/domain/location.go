package domain

import "time"

type Location struct {
	LocationID string    `json:"id" gorm:"column:location_id;primaryKey;size:26"`
	Code       string    `json:"code" gorm:"uniqueIndex;not null"`
	Name       string    `json:"name" gorm:"not null"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Active     bool      `json:"active" gorm:"not null"`
	CreatedAt  time.Time `json:"created"`
	UpdatedAt  time.Time `json:"updated"`
}

func (Location) TableName() string { return "locations" }

type LocationInput struct {
	Code    string `json:"code" validate:"required,max=16"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Phone   string `json:"phone" validate:"omitempty,e164"`
	Email   string `json:"email" validate:"omitempty,email"`
}
