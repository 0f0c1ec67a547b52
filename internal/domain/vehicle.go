package domain

import "time"

type VehicleStatus string

const (
	VehicleAvailable VehicleStatus = "available"
	VehicleReserved  VehicleStatus = "reserved"
	VehicleInTransit VehicleStatus = "in_transit"
	VehicleSold      VehicleStatus = "sold"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehicleReserved, VehicleInTransit, VehicleSold:
		return true
	}
	return false
}

type Vehicle struct {
	VehicleID   string        `json:"id" gorm:"column:vehicle_id;primaryKey;size:26"`
	VIN         string        `json:"vin" gorm:"column:vin;uniqueIndex;size:17;not null"`
	StockNumber string        `json:"stock_number" gorm:"index"`
	Year        int           `json:"year"`
	Make        string        `json:"make" gorm:"index"`
	Model       string        `json:"model"`
	Trim        string        `json:"trim"`
	Color       string        `json:"color"`
	Mileage     int           `json:"mileage"`
	PriceCents  int64         `json:"price_cents"`
	Status      VehicleStatus `json:"status" gorm:"index;not null"`
	LocationID  string        `json:"location_id" gorm:"index;size:26;not null"`
	CreatedAt   time.Time     `json:"created"`
	UpdatedAt   time.Time     `json:"updated"`
}

func (Vehicle) TableName() string { return "vehicles" }

type VehicleFilter struct {
	LocationID string
	Status     VehicleStatus
	Make       string
	Search     string // matched against VIN, stock number, make and model
	Limit      int
	Offset     int
}

type CreateVehicleRequest struct {
	VIN         string `json:"vin" validate:"required,len=17,alphanum"`
	StockNumber string `json:"stock_number"`
	Year        int    `json:"year" validate:"required,min=1900,max=2100"`
	Make        string `json:"make" validate:"required"`
	Model       string `json:"model" validate:"required"`
	Trim        string `json:"trim"`
	Color       string `json:"color"`
	Mileage     int    `json:"mileage" validate:"min=0"`
	PriceCents  int64  `json:"price_cents" validate:"min=0"`
	LocationID  string `json:"location_id" validate:"required"`
}

type UpdateVehicleRequest struct {
	StockNumber *string `json:"stock_number"`
	Color       *string `json:"color"`
	Trim        *string `json:"trim"`
	Mileage     *int    `json:"mileage" validate:"omitempty,min=0"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,min=0"`
}

type UpdateVehicleStatusRequest struct {
	Status VehicleStatus `json:"status" validate:"required,oneof=available reserved in_transit sold"`
	Note   string        `json:"note"`
}
