package domain

import "time"

type TransferStatus string

const (
	TransferRequested TransferStatus = "requested"
	TransferApproved  TransferStatus = "approved"
	TransferInTransit TransferStatus = "in_transit"
	TransferDelivered TransferStatus = "delivered"
	TransferRejected  TransferStatus = "rejected"
	TransferCancelled TransferStatus = "cancelled"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"
)

// validTransitions is the single source of truth for the transfer lifecycle.
var validTransitions = map[TransferStatus][]TransferStatus{
	TransferRequested: {TransferApproved, TransferRejected, TransferCancelled},
	TransferApproved:  {TransferInTransit, TransferCancelled},
	TransferInTransit: {TransferDelivered},
}

// CanTransitionTo reports whether a transfer in status s may move to next.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s TransferStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Event returns the notification event fired when a transfer enters status s.
func (s TransferStatus) Event() NotificationEvent {
	switch s {
	case TransferRequested:
		return EventTransferRequested
	case TransferApproved:
		return EventTransferApproved
	case TransferInTransit:
		return EventTransferInTransit
	case TransferDelivered:
		return EventTransferDelivered
	case TransferRejected:
		return EventTransferRejected
	case TransferCancelled:
		return EventTransferCancelled
	}
	return ""
}

type Transfer struct {
	TransferID     string         `json:"id" gorm:"column:transfer_id;primaryKey;size:26"`
	VehicleID      string         `json:"vehicle_id" gorm:"index;size:26;not null"`
	FromLocationID string         `json:"from_location_id" gorm:"index;size:26;not null"`
	ToLocationID   string         `json:"to_location_id" gorm:"index;size:26;not null"`
	RequestedBy    string         `json:"requested_by" gorm:"size:26;not null"`
	ApprovedBy     *string        `json:"approved_by" gorm:"size:26"`
	Status         TransferStatus `json:"status" gorm:"index;not null"`
	Priority       string         `json:"priority" gorm:"not null"`
	Notes          string         `json:"notes"`
	StatusNote     string         `json:"status_note"`
	NeededBy       *time.Time     `json:"needed_by"`
	ApprovedAt     *time.Time     `json:"approved_at"`
	ShippedAt      *time.Time     `json:"shipped_at"`
	DeliveredAt    *time.Time     `json:"delivered_at"`
	CreatedAt      time.Time      `json:"created"`
	UpdatedAt      time.Time      `json:"updated"`
}

func (Transfer) TableName() string { return "transfers" }

type TransferFilter struct {
	Status     TransferStatus
	LocationID string // matches either end of the transfer
	VehicleID  string
	Limit      int
	Offset     int
}

type CreateTransferRequest struct {
	VehicleID    string     `json:"vehicle_id" validate:"required"`
	ToLocationID string     `json:"to_location_id" validate:"required"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low normal urgent"`
	Notes        string     `json:"notes" validate:"max=2000"`
	NeededBy     *time.Time `json:"needed_by"`
}

type UpdateTransferStatusRequest struct {
	Status TransferStatus `json:"status" validate:"required,oneof=approved in_transit delivered rejected cancelled"`
	Note   string         `json:"note" validate:"max=2000"`
}
