package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/notify"
	"github.com/dealer-transfers-api/internal/pkg/fieldpath"
	"github.com/dealer-transfers-api/internal/pkg/id"
	"github.com/dealer-transfers-api/internal/pkg/validate"
)

type TemplateService interface {
	List(ctx context.Context, category domain.TemplateCategory) ([]domain.NotificationTemplate, error)
	Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error)
	Create(ctx context.Context, in domain.TemplateInput) (*domain.NotificationTemplate, error)
	Update(ctx context.Context, templateID string, in domain.TemplateInput) (*domain.NotificationTemplate, error)
	Delete(ctx context.Context, templateID string) error
	Preview(ctx context.Context, templateID string, data map[string]any) (notify.Rendered, error)
}

type templateService struct {
	templates templateStore
	rules     ruleStore
	now       func() time.Time
}

type TemplateServiceDeps struct {
	TemplateRepo templateStore
	RuleRepo     ruleStore
}

func NewTemplateService(deps TemplateServiceDeps) TemplateService {
	return &templateService{
		templates: deps.TemplateRepo,
		rules:     deps.RuleRepo,
		now:       time.Now,
	}
}

func (s *templateService) List(ctx context.Context, category domain.TemplateCategory) ([]domain.NotificationTemplate, error) {
	return s.templates.List(ctx, category)
}

func (s *templateService) Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error) {
	return s.templates.Get(ctx, templateID)
}

func (s *templateService) Create(ctx context.Context, in domain.TemplateInput) (*domain.NotificationTemplate, error) {
	now := s.now().UTC()
	t := &domain.NotificationTemplate{
		TemplateID: id.New(),
		Active:     true,
		CreatedAt:  now,
	}
	applyTemplateInput(t, in, now)
	if err := checkTemplate(t); err != nil {
		return nil, err
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the template's content. A change that would leave an enabled rule
// channel without content, or deactivate a template in use, is refused.
func (s *templateService) Update(ctx context.Context, templateID string, in domain.TemplateInput) (*domain.NotificationTemplate, error) {
	t, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	applyTemplateInput(t, in, s.now().UTC())
	if err := checkTemplate(t); err != nil {
		return nil, err
	}
	rules, err := s.rules.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		for _, ch := range r.EnabledChannels() {
			if ch.TemplateID != templateID {
				continue
			}
			if !t.Active && r.Active {
				return nil, fmt.Errorf("template is used by active rule %q: %w", r.Name, domain.ErrConflict)
			}
			if !t.Supports(ch.Channel) {
				return nil, fmt.Errorf("rule %q sends %s with this template: %w", r.Name, ch.Channel, domain.ErrConflict)
			}
		}
	}
	if err := s.templates.Replace(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *templateService) Delete(ctx context.Context, templateID string) error {
	rules, err := s.rules.ListByTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if len(rules) > 0 {
		names := make([]string, 0, len(rules))
		for _, r := range rules {
			names = append(names, r.Name)
		}
		return fmt.Errorf("template is referenced by rules %s: %w", strings.Join(names, ", "), domain.ErrConflict)
	}
	return s.templates.Delete(ctx, templateID)
}

// Preview renders every channel of the template against caller-supplied sample data.
func (s *templateService) Preview(ctx context.Context, templateID string, data map[string]any) (notify.Rendered, error) {
	t, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return notify.Rendered{}, err
	}
	return notify.RenderTemplate(t, fieldpath.Map(data)), nil
}

func applyTemplateInput(t *domain.NotificationTemplate, in domain.TemplateInput, now time.Time) {
	t.Name = strings.TrimSpace(in.Name)
	t.Description = strings.TrimSpace(in.Description)
	t.Category = in.Category
	t.Email = in.Email
	t.SMS = in.SMS
	if in.Active != nil {
		t.Active = *in.Active
	}
	t.UpdatedAt = now
}

func checkTemplate(t *domain.NotificationTemplate) error {
	if t.Email == nil && t.SMS == nil {
		return validate.Field("email", "required_without_sms")
	}
	if t.Email != nil && !t.Supports(domain.ChannelEmail) {
		return validate.Field("email.html_body", "required_without_text_body")
	}
	return nil
}
