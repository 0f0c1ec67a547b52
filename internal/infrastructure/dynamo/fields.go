package dynamo

// Attribute names shared by key lookups, indexes and update expressions.
const (
	fieldTemplateID  = "template_id"
	fieldRuleID      = "rule_id"
	fieldActivityID  = "activity_id"
	fieldEvent       = "event"
	fieldCategory    = "category"
	fieldPriority    = "priority"
	fieldActive      = "active"
	fieldTemplateIDs = "template_ids"
	fieldStatus      = "status"
	fieldUpdatedAt   = "updated_at"
	fieldCreatedAt   = "created_at"

	indexRulesByEvent        = "event-priority-index"
	indexTemplatesByCategory = "category-index"
)
