package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSales   = "sales"
)

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleSales:
		return true
	}
	return false
}

type User struct {
	UserID     string    `json:"id" gorm:"column:user_id;primaryKey;size:26"`
	Email      string    `json:"email" gorm:"uniqueIndex;not null"`
	FirstName  string    `json:"first_name" gorm:"not null"`
	LastName   string    `json:"last_name" gorm:"not null"`
	Phone      *string   `json:"phone"`
	Role       string    `json:"role" gorm:"index;not null"`
	LocationID *string   `json:"location_id" gorm:"index;size:26"`
	Active     bool      `json:"active" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created"`
	UpdatedAt  time.Time `json:"updated"`
}

func (User) TableName() string { return "users" }

// FullName joins first and last name, skipping empty parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserFilter narrows user listings and directory lookups. Zero-valued fields are ignored.
type UserFilter struct {
	IDs        []string
	LocationID string
	Role       string
	Active     *bool
	Limit      int
	Offset     int
}

type CreateUserRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	FirstName  string  `json:"first_name" validate:"required"`
	LastName   string  `json:"last_name" validate:"required"`
	Phone      *string `json:"phone" validate:"omitempty,e164"`
	Role       string  `json:"role" validate:"required,oneof=admin manager sales"`
	LocationID *string `json:"location_id"`
}

type UpdateUserRequest struct {
	Email      *string `json:"email" validate:"omitempty,email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Phone      *string `json:"phone" validate:"omitempty,e164"`
	Role       *string `json:"role" validate:"omitempty,oneof=admin manager sales"`
	LocationID *string `json:"location_id"`
	Active     *bool   `json:"active"`
}
