package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/notify"
	"github.com/dealer-transfers-api/internal/pkg/fieldpath"
	"github.com/dealer-transfers-api/internal/pkg/id"
	"github.com/dealer-transfers-api/internal/pkg/validate"
)

type RuleService interface {
	List(ctx context.Context, event domain.NotificationEvent) ([]domain.NotificationRule, error)
	Get(ctx context.Context, ruleID string) (*domain.NotificationRule, error)
	Create(ctx context.Context, in domain.RuleInput) (*domain.NotificationRule, error)
	Update(ctx context.Context, ruleID string, in domain.RuleInput) (*domain.NotificationRule, error)
	Delete(ctx context.Context, ruleID string) error
	SetActive(ctx context.Context, ruleID string, active bool) (*domain.NotificationRule, error)
	Test(ctx context.Context, ruleID string, data map[string]any) (*RuleTestResult, error)
}

// ConditionResult is one condition's outcome during a dry run.
type ConditionResult struct {
	domain.Condition
	Actual  string `json:"actual"`
	Matched bool   `json:"matched"`
}

// ChannelPreview is what one enabled channel would send during a dry run.
type ChannelPreview struct {
	Channel    domain.Channel  `json:"channel"`
	TemplateID string          `json:"template_id"`
	Rendered   notify.Rendered `json:"rendered"`
	Error      string          `json:"error,omitempty"`
}

// RuleTestResult reports what Dispatch would do with a rule for the given data, without sending.
type RuleTestResult struct {
	RuleID     string            `json:"rule_id"`
	Matched    bool              `json:"matched"`
	Conditions []ConditionResult `json:"conditions"`
	Recipients notify.Recipients `json:"recipients"`
	Channels   []ChannelPreview  `json:"channels"`
}

type recipientResolver interface {
	Resolve(ctx context.Context, cfg domain.RecipientConfig, data fieldpath.Getter) (notify.Recipients, error)
}

type ruleService struct {
	rules     ruleStore
	templates templateStore
	resolver  recipientResolver
	now       func() time.Time
}

type RuleServiceDeps struct {
	RuleRepo     ruleStore
	TemplateRepo templateStore
	Resolver     recipientResolver
}

func NewRuleService(deps RuleServiceDeps) RuleService {
	return &ruleService{
		rules:     deps.RuleRepo,
		templates: deps.TemplateRepo,
		resolver:  deps.Resolver,
		now:       time.Now,
	}
}

func (s *ruleService) List(ctx context.Context, event domain.NotificationEvent) ([]domain.NotificationRule, error) {
	if event != "" && !event.Valid() {
		return nil, fmt.Errorf("unknown event %q: %w", event, domain.ErrBadRequest)
	}
	return s.rules.List(ctx, event)
}

func (s *ruleService) Get(ctx context.Context, ruleID string) (*domain.NotificationRule, error) {
	return s.rules.Get(ctx, ruleID)
}

func (s *ruleService) Create(ctx context.Context, in domain.RuleInput) (*domain.NotificationRule, error) {
	now := s.now().UTC()
	r := &domain.NotificationRule{
		RuleID:    id.New(),
		Active:    true,
		CreatedAt: now,
	}
	applyRuleInput(r, in, now)
	if err := s.check(ctx, r); err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ruleService) Update(ctx context.Context, ruleID string, in domain.RuleInput) (*domain.NotificationRule, error) {
	r, err := s.rules.Get(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	applyRuleInput(r, in, s.now().UTC())
	if err := s.check(ctx, r); err != nil {
		return nil, err
	}
	if err := s.rules.Replace(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ruleService) Delete(ctx context.Context, ruleID string) error {
	return s.rules.Delete(ctx, ruleID)
}

func (s *ruleService) SetActive(ctx context.Context, ruleID string, active bool) (*domain.NotificationRule, error) {
	now := s.now().UTC()
	if err := s.rules.SetActive(ctx, ruleID, active, now); err != nil {
		return nil, err
	}
	return s.rules.Get(ctx, ruleID)
}

// Test evaluates the rule, resolves its recipients and renders each enabled channel.
// Nothing is sent and no activity is written.
func (s *ruleService) Test(ctx context.Context, ruleID string, data map[string]any) (*RuleTestResult, error) {
	r, err := s.rules.Get(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	getter := fieldpath.Map(data)
	res := &RuleTestResult{
		RuleID:     r.RuleID,
		Matched:    notify.Evaluate(r, getter),
		Conditions: make([]ConditionResult, 0, len(r.Conditions)),
		Channels:   []ChannelPreview{},
	}
	for _, c := range r.Conditions {
		res.Conditions = append(res.Conditions, ConditionResult{
			Condition: c,
			Actual:    fieldpath.String(getter, c.Field),
			Matched:   notify.Match(c, getter),
		})
	}
	recipients, err := s.resolver.Resolve(ctx, r.Recipients, getter)
	if err != nil {
		return nil, err
	}
	res.Recipients = recipients
	for _, ch := range r.EnabledChannels() {
		preview := ChannelPreview{Channel: ch.Channel, TemplateID: ch.TemplateID}
		t, err := s.templates.Get(ctx, ch.TemplateID)
		switch {
		case err != nil:
			preview.Error = err.Error()
		case !t.Supports(ch.Channel):
			preview.Error = fmt.Sprintf("template has no %s content", ch.Channel)
		default:
			preview.Rendered = notify.RenderTemplate(t, getter)
		}
		res.Channels = append(res.Channels, preview)
	}
	return res, nil
}

func applyRuleInput(r *domain.NotificationRule, in domain.RuleInput, now time.Time) {
	r.Name = strings.TrimSpace(in.Name)
	r.Description = strings.TrimSpace(in.Description)
	r.Event = in.Event
	r.Conditions = in.Conditions
	if r.Conditions == nil {
		r.Conditions = []domain.Condition{}
	}
	r.ConditionLogic = in.ConditionLogic
	if r.ConditionLogic == "" {
		r.ConditionLogic = domain.LogicAnd
	}
	r.Recipients = in.Recipients
	r.Channels = in.Channels
	r.Priority = in.Priority
	if in.Active != nil {
		r.Active = *in.Active
	}
	r.UpdatedAt = now
}

// check enforces what struct tags cannot: a known event, non-blank recipient ids,
// at least one enabled channel and an active template for every enabled channel.
func (s *ruleService) check(ctx context.Context, r *domain.NotificationRule) error {
	if !r.Event.Valid() {
		return validate.Field("event", "oneof")
	}
	if r.Recipients.IsEmpty() {
		return validate.Field("recipients", "required")
	}
	for i, id := range r.Recipients.UserIDs {
		if strings.TrimSpace(id) == "" {
			return validate.Field(fmt.Sprintf("recipients.user_ids[%d]", i), "required")
		}
	}
	for i, id := range r.Recipients.LocationIDs {
		if strings.TrimSpace(id) == "" {
			return validate.Field(fmt.Sprintf("recipients.location_ids[%d]", i), "required")
		}
	}
	seen := make(map[domain.Channel]bool, len(r.Channels))
	for i, ch := range r.Channels {
		if seen[ch.Channel] {
			return validate.Field(fmt.Sprintf("channels[%d].channel", i), "unique")
		}
		seen[ch.Channel] = true
	}
	enabled := r.EnabledChannels()
	if len(enabled) == 0 {
		return validate.Field("channels", "one_enabled")
	}
	for i, ch := range r.Channels {
		if !ch.Enabled {
			continue
		}
		field := fmt.Sprintf("channels[%d].template_id", i)
		if ch.TemplateID == "" {
			return validate.Field(field, "required")
		}
		t, err := s.templates.Get(ctx, ch.TemplateID)
		if errors.Is(err, domain.ErrNotFound) {
			return validate.Field(field, "exists")
		}
		if err != nil {
			return err
		}
		if !t.Active {
			return validate.Field(field, "active")
		}
		if !t.Supports(ch.Channel) {
			return validate.Field(field, "supports_channel")
		}
	}
	return nil
}
