package domain

import (
	"sort"
	"time"
)

type NotificationEvent string

const (
	EventTransferRequested    NotificationEvent = "transfer_requested"
	EventTransferApproved     NotificationEvent = "transfer_approved"
	EventTransferRejected     NotificationEvent = "transfer_rejected"
	EventTransferInTransit    NotificationEvent = "transfer_in_transit"
	EventTransferDelivered    NotificationEvent = "transfer_delivered"
	EventTransferCancelled    NotificationEvent = "transfer_cancelled"
	EventVehicleCreated       NotificationEvent = "vehicle_created"
	EventVehicleUpdated       NotificationEvent = "vehicle_updated"
	EventVehicleStatusChanged NotificationEvent = "vehicle_status_changed"
	EventCommentAdded         NotificationEvent = "comment_added"
)

var knownEvents = map[NotificationEvent]struct{}{
	EventTransferRequested:    {},
	EventTransferApproved:     {},
	EventTransferRejected:     {},
	EventTransferInTransit:    {},
	EventTransferDelivered:    {},
	EventTransferCancelled:    {},
	EventVehicleCreated:       {},
	EventVehicleUpdated:       {},
	EventVehicleStatusChanged: {},
	EventCommentAdded:         {},
}

func (e NotificationEvent) Valid() bool {
	_, ok := knownEvents[e]
	return ok
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

func (c Channel) Valid() bool { return c == ChannelEmail || c == ChannelSMS }

type TemplateCategory string

const (
	CategoryTransfer TemplateCategory = "transfer"
	CategorySystem   TemplateCategory = "system"
	CategoryVehicle  TemplateCategory = "vehicle"
	CategoryGeneral  TemplateCategory = "general"
)

type EmailContent struct {
	Subject  string `json:"subject" dynamodbav:"subject" validate:"required"`
	HTMLBody string `json:"html_body" dynamodbav:"html_body"`
	TextBody string `json:"text_body" dynamodbav:"text_body"`
}

type SMSContent struct {
	Message string `json:"message" dynamodbav:"message" validate:"required,max=1600"`
}

type NotificationTemplate struct {
	TemplateID  string           `json:"id" dynamodbav:"template_id"`
	Name        string           `json:"name" dynamodbav:"name"`
	Description string           `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Category    TemplateCategory `json:"category" dynamodbav:"category"`
	Email       *EmailContent    `json:"email,omitempty" dynamodbav:"email,omitempty"`
	SMS         *SMSContent      `json:"sms,omitempty" dynamodbav:"sms,omitempty"`
	Active      bool             `json:"active" dynamodbav:"active"`
	CreatedAt   time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time        `json:"updated" dynamodbav:"updated_at"`
}

// Supports reports whether the template carries content for ch.
func (t *NotificationTemplate) Supports(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return t.Email != nil && t.Email.Subject != "" && (t.Email.HTMLBody != "" || t.Email.TextBody != "")
	case ChannelSMS:
		return t.SMS != nil && t.SMS.Message != ""
	}
	return false
}

type TemplateInput struct {
	Name        string           `json:"name" validate:"required,max=120"`
	Description string           `json:"description" validate:"max=500"`
	Category    TemplateCategory `json:"category" validate:"required,oneof=transfer system vehicle general"`
	Email       *EmailContent    `json:"email"`
	SMS         *SMSContent      `json:"sms"`
	Active      *bool            `json:"active"`
}

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
)

func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpContains, OpNotContains:
		return true
	}
	return false
}

type Condition struct {
	Field    string   `json:"field" dynamodbav:"field" validate:"required"`
	Operator Operator `json:"operator" dynamodbav:"operator" validate:"required,oneof=equals not_equals contains not_contains"`
	Value    string   `json:"value" dynamodbav:"value"`
}

type ConditionLogic string

const (
	LogicAnd ConditionLogic = "AND"
	LogicOr  ConditionLogic = "OR"
)

type LocationRole string

const (
	LocationRequesting  LocationRole = "requesting"
	LocationDestination LocationRole = "destination"
	LocationCurrent     LocationRole = "current"
)

// RecipientConfig lists independent recipient sources; their results are unioned.
type RecipientConfig struct {
	UserIDs       []string       `json:"user_ids,omitempty" dynamodbav:"user_ids,omitempty" validate:"dive,required"`
	Emails        []string       `json:"emails,omitempty" dynamodbav:"emails,omitempty" validate:"dive,email"`
	Phones        []string       `json:"phones,omitempty" dynamodbav:"phones,omitempty" validate:"dive,e164"`
	Roles         []string       `json:"roles,omitempty" dynamodbav:"roles,omitempty" validate:"dive,oneof=admin manager sales"`
	LocationIDs   []string       `json:"location_ids,omitempty" dynamodbav:"location_ids,omitempty" validate:"dive,required"`
	LocationRoles []LocationRole `json:"location_roles,omitempty" dynamodbav:"location_roles,omitempty" validate:"dive,oneof=requesting destination current"`
}

func (c RecipientConfig) IsEmpty() bool {
	return len(c.UserIDs) == 0 && len(c.Emails) == 0 && len(c.Phones) == 0 &&
		len(c.Roles) == 0 && len(c.LocationIDs) == 0 && len(c.LocationRoles) == 0
}

type ChannelSetting struct {
	Channel    Channel `json:"channel" dynamodbav:"channel" validate:"required,oneof=email sms"`
	Enabled    bool    `json:"enabled" dynamodbav:"enabled"`
	TemplateID string  `json:"template_id" dynamodbav:"template_id"`
	Order      int     `json:"order" dynamodbav:"order"`
}

type NotificationRule struct {
	RuleID         string            `json:"id" dynamodbav:"rule_id"`
	Name           string            `json:"name" dynamodbav:"name"`
	Description    string            `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Event          NotificationEvent `json:"event" dynamodbav:"event"`
	Conditions     []Condition       `json:"conditions" dynamodbav:"conditions"`
	ConditionLogic ConditionLogic    `json:"condition_logic" dynamodbav:"condition_logic"`
	Recipients     RecipientConfig   `json:"recipients" dynamodbav:"recipients"`
	Channels       []ChannelSetting  `json:"channels" dynamodbav:"channels"`
	Active         bool              `json:"active" dynamodbav:"active"`
	Priority       int               `json:"priority" dynamodbav:"priority"`
	// TemplateIDs is denormalised from Channels so reference checks can filter server-side.
	TemplateIDs []string  `json:"-" dynamodbav:"template_ids,omitempty"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// EnabledChannels returns the enabled channel settings in delivery order.
func (r *NotificationRule) EnabledChannels() []ChannelSetting {
	var out []ChannelSetting
	for _, c := range r.Channels {
		if c.Enabled {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ReferencedTemplates returns the distinct template ids used by any channel.
func (r *NotificationRule) ReferencedTemplates() []string {
	seen := make(map[string]struct{}, len(r.Channels))
	var ids []string
	for _, c := range r.Channels {
		if c.TemplateID == "" {
			continue
		}
		if _, ok := seen[c.TemplateID]; ok {
			continue
		}
		seen[c.TemplateID] = struct{}{}
		ids = append(ids, c.TemplateID)
	}
	return ids
}

type RuleInput struct {
	Name           string            `json:"name" validate:"required,max=120"`
	Description    string            `json:"description" validate:"max=500"`
	Event          NotificationEvent `json:"event" validate:"required"`
	Conditions     []Condition       `json:"conditions" validate:"dive"`
	ConditionLogic ConditionLogic    `json:"condition_logic" validate:"omitempty,oneof=AND OR"`
	Recipients     RecipientConfig   `json:"recipients"`
	Channels       []ChannelSetting  `json:"channels" validate:"required,min=1,dive"`
	Active         *bool             `json:"active"`
	Priority       int               `json:"priority"`
}

type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "pending"
	ActivitySent      ActivityStatus = "sent"
	ActivityDelivered ActivityStatus = "delivered"
	ActivityOpened    ActivityStatus = "opened"
	ActivityClicked   ActivityStatus = "clicked"
	ActivityFailed    ActivityStatus = "failed"
)

// activityProgress orders the non-failure states; webhooks may skip ahead but never move back.
var activityProgress = map[ActivityStatus]int{
	ActivityPending:   0,
	ActivitySent:      1,
	ActivityDelivered: 2,
	ActivityOpened:    3,
	ActivityClicked:   4,
}

func (s ActivityStatus) Valid() bool {
	_, ok := activityProgress[s]
	return ok || s == ActivityFailed
}

func (s ActivityStatus) Terminal() bool {
	return s == ActivityFailed || s == ActivityClicked
}

// CanTransitionTo reports whether an activity delivered over ch may move from s to next.
func (s ActivityStatus) CanTransitionTo(next ActivityStatus, ch Channel) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == ActivityFailed {
		return s == ActivityPending || s == ActivitySent
	}
	if (next == ActivityOpened || next == ActivityClicked) && ch != ChannelEmail {
		return false
	}
	return activityProgress[next] > activityProgress[s]
}

// NotificationActivity is the audit row written for every attempted send.
type NotificationActivity struct {
	ActivityID        string            `json:"id" dynamodbav:"activity_id"`
	Event             NotificationEvent `json:"event" dynamodbav:"event"`
	RuleID            string            `json:"rule_id" dynamodbav:"rule_id"`
	TemplateID        string            `json:"template_id" dynamodbav:"template_id"`
	Channel           Channel           `json:"channel" dynamodbav:"channel"`
	Status            ActivityStatus    `json:"status" dynamodbav:"status"`
	ErrorMessage      *string           `json:"error_message,omitempty" dynamodbav:"error_message,omitempty"`
	Recipients        []string          `json:"recipients" dynamodbav:"recipients"`
	Subject           string            `json:"subject,omitempty" dynamodbav:"subject,omitempty"`
	ProviderMessageID string            `json:"provider_message_id,omitempty" dynamodbav:"provider_message_id,omitempty"`
	VehicleID         string            `json:"vehicle_id,omitempty" dynamodbav:"vehicle_id,omitempty"`
	TransferID        string            `json:"transfer_id,omitempty" dynamodbav:"transfer_id,omitempty"`
	UserID            string            `json:"user_id,omitempty" dynamodbav:"user_id,omitempty"`
	LocationID        string            `json:"location_id,omitempty" dynamodbav:"location_id,omitempty"`
	CreatedAt         time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time         `json:"updated" dynamodbav:"updated_at"`
	SentAt            *time.Time        `json:"sent_at,omitempty" dynamodbav:"sent_at,omitempty"`
	DeliveredAt       *time.Time        `json:"delivered_at,omitempty" dynamodbav:"delivered_at,omitempty"`
	OpenedAt          *time.Time        `json:"opened_at,omitempty" dynamodbav:"opened_at,omitempty"`
	ClickedAt         *time.Time        `json:"clicked_at,omitempty" dynamodbav:"clicked_at,omitempty"`
	FailedAt          *time.Time        `json:"failed_at,omitempty" dynamodbav:"failed_at,omitempty"`
}

type ActivityFilter struct {
	RuleID     string
	TransferID string
	VehicleID  string
	Status     ActivityStatus
	Limit      int
	Cursor     string
}

// DeliveryStatusUpdate is posted by the email/SMS provider webhook.
type DeliveryStatusUpdate struct {
	ActivityID string         `json:"activity_id" validate:"required"`
	Status     ActivityStatus `json:"status" validate:"required,oneof=delivered opened clicked failed"`
	Error      string         `json:"error"`
	OccurredAt *time.Time     `json:"occurred_at"`
}

// EmailMessage is the provider-neutral email handed to an email sender.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}
