package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/fieldpath"
	"github.com/dealer-transfers-api/internal/pkg/id"
	"github.com/dealer-transfers-api/internal/pkg/logger"
	"github.com/dealer-transfers-api/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Outcomes reported per dispatch result.
const (
	OutcomeSent         = "sent"
	OutcomeFailed       = "failed"
	OutcomePartial      = "partial"
	OutcomeNoRecipients = "no_recipients"
	OutcomeError        = "error"
)

const smsPreviewLen = 160

type RuleSource interface {
	ListActiveByEvent(ctx context.Context, event domain.NotificationEvent) ([]domain.NotificationRule, error)
}

type TemplateSource interface {
	Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error)
}

type ActivitySink interface {
	Put(ctx context.Context, a *domain.NotificationActivity) error
}

// EmailSender delivers one email and returns the provider's message id.
type EmailSender interface {
	SendEmail(ctx context.Context, msg domain.EmailMessage) (string, error)
}

// SMSSender delivers one text message and returns the provider's message id.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) (string, error)
}

// DispatchResult summarises one rule × channel attempt. Rule-level skips carry no channel.
type DispatchResult struct {
	RuleID      string         `json:"rule_id"`
	RuleName    string         `json:"rule_name"`
	Channel     domain.Channel `json:"channel,omitempty"`
	TemplateID  string         `json:"template_id,omitempty"`
	Outcome     string         `json:"outcome"`
	Attempted   int            `json:"attempted"`
	Sent        int            `json:"sent"`
	Failed      int            `json:"failed"`
	ActivityIDs []string       `json:"activity_ids,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type DispatcherConfig struct {
	SendTimeout      time.Duration
	MaxParallelRules int
}

type DispatcherDeps struct {
	Rules      RuleSource
	Templates  TemplateSource
	Activities ActivitySink
	Resolver   *Resolver
	Email      EmailSender
	SMS        SMSSender
	Logger     *logger.Logger
	Metrics    *metrics.DispatchMetrics
	Config     DispatcherConfig
}

// Dispatcher is the single entry point every event producer calls.
type Dispatcher struct {
	rules      RuleSource
	templates  TemplateSource
	activities ActivitySink
	resolver   *Resolver
	email      EmailSender
	sms        SMSSender
	log        *logger.Logger
	metrics    *metrics.DispatchMetrics
	cfg        DispatcherConfig
	now        func() time.Time
	newID      func() string
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	cfg := deps.Config
	if cfg.MaxParallelRules < 1 {
		cfg.MaxParallelRules = 1
	}
	return &Dispatcher{
		rules:      deps.Rules,
		templates:  deps.Templates,
		activities: deps.Activities,
		resolver:   deps.Resolver,
		email:      deps.Email,
		sms:        deps.SMS,
		log:        log,
		metrics:    deps.Metrics,
		cfg:        cfg,
		now:        time.Now,
		newID:      id.New,
	}
}

// Dispatch runs every active rule for event against data. It never fails: rule and
// provider errors are logged, recorded as failed activity and reported in the results.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.NotificationEvent, data fieldpath.Getter) []DispatchResult {
	start := d.now()
	ctx = d.log.WithField(ctx, "event", string(event))
	defer func() { d.metrics.ObserveDispatch(string(event), time.Since(start)) }()

	rules, err := d.rules.ListActiveByEvent(ctx, event)
	if err != nil {
		d.log.Error(ctx, "notify.load_rules_failed", err)
		return nil
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	perRule := make([][]DispatchResult, len(rules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxParallelRules)
	for i := range rules {
		i := i
		rule := &rules[i]
		g.Go(func() error {
			perRule[i] = d.runRule(gctx, event, rule, data)
			return nil
		})
	}
	_ = g.Wait()

	var results []DispatchResult
	for _, rs := range perRule {
		results = append(results, rs...)
	}
	return results
}

func (d *Dispatcher) runRule(ctx context.Context, event domain.NotificationEvent, rule *domain.NotificationRule, data fieldpath.Getter) []DispatchResult {
	ctx = d.log.WithField(ctx, "rule_id", rule.RuleID)
	if !rule.Active || !Evaluate(rule, data) {
		return nil
	}

	recipients, err := d.resolver.Resolve(ctx, rule.Recipients, data)
	if err != nil {
		d.log.Error(ctx, "notify.resolve_recipients_failed", err)
		d.metrics.IncSkipped("lookup_error")
		return []DispatchResult{{RuleID: rule.RuleID, RuleName: rule.Name, Outcome: OutcomeError, Error: err.Error()}}
	}
	if recipients.Empty() {
		d.log.Info(ctx, "notify.no_recipients")
		d.metrics.IncSkipped(OutcomeNoRecipients)
		return []DispatchResult{{RuleID: rule.RuleID, RuleName: rule.Name, Outcome: OutcomeNoRecipients}}
	}

	var results []DispatchResult
	for _, ch := range rule.EnabledChannels() {
		results = append(results, d.runChannel(ctx, event, rule, ch, recipients, data))
	}
	return results
}

func (d *Dispatcher) runChannel(ctx context.Context, event domain.NotificationEvent, rule *domain.NotificationRule, ch domain.ChannelSetting, recipients Recipients, data fieldpath.Getter) DispatchResult {
	res := DispatchResult{RuleID: rule.RuleID, RuleName: rule.Name, Channel: ch.Channel, TemplateID: ch.TemplateID}

	targets := channelTargets(ch.Channel, recipients)
	if len(targets) == 0 {
		res.Outcome = OutcomeNoRecipients
		d.metrics.IncSkipped(OutcomeNoRecipients)
		return res
	}

	tmpl, tmplErr := d.loadTemplate(ctx, ch)
	refs := activityRefs(data)

	for _, rcpt := range targets {
		scoped := fieldpath.Layered{recipientOverlay(rcpt), data}
		act := &domain.NotificationActivity{
			ActivityID: d.newID(),
			Event:      event,
			RuleID:     rule.RuleID,
			TemplateID: ch.TemplateID,
			Channel:    ch.Channel,
			Status:     domain.ActivityPending,
			VehicleID:  refs.vehicleID,
			TransferID: refs.transferID,
			UserID:     refs.userID,
			LocationID: refs.locationID,
		}

		var sendErr error
		if tmplErr != nil {
			act.Recipients = []string{address(ch.Channel, rcpt)}
			sendErr = tmplErr
		} else {
			sendErr = d.send(ctx, ch.Channel, tmpl, rcpt, scoped, act)
		}

		now := d.now().UTC()
		act.CreatedAt, act.UpdatedAt = now, now
		res.Attempted++
		if sendErr != nil {
			msg := sendErr.Error()
			act.Status = domain.ActivityFailed
			act.ErrorMessage = &msg
			act.FailedAt = &now
			res.Failed++
			res.Error = msg
			d.log.Warn(d.log.WithFields(ctx, map[string]any{"channel": string(ch.Channel), "error": msg}), "notify.send_failed")
		} else {
			act.Status = domain.ActivitySent
			act.SentAt = &now
			res.Sent++
		}
		d.metrics.IncSend(string(ch.Channel), string(act.Status))

		// The audit row is written even when the caller has gone away.
		if err := d.activities.Put(context.WithoutCancel(ctx), act); err != nil {
			d.log.Error(ctx, "notify.activity_write_failed", err)
			continue
		}
		res.ActivityIDs = append(res.ActivityIDs, act.ActivityID)
	}

	switch {
	case res.Failed == 0:
		res.Outcome = OutcomeSent
	case res.Sent == 0:
		res.Outcome = OutcomeFailed
	default:
		res.Outcome = OutcomePartial
	}
	return res
}

func (d *Dispatcher) loadTemplate(ctx context.Context, ch domain.ChannelSetting) (*domain.NotificationTemplate, error) {
	if ch.TemplateID == "" {
		return nil, errors.New("channel has no template")
	}
	tmpl, err := d.templates.Get(ctx, ch.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", ch.TemplateID, err)
	}
	if !tmpl.Active {
		return nil, fmt.Errorf("template %s is inactive", ch.TemplateID)
	}
	if !tmpl.Supports(ch.Channel) {
		return nil, fmt.Errorf("template %s has no %s content", ch.TemplateID, ch.Channel)
	}
	return tmpl, nil
}

// send renders for one recipient and hands the message to the channel's provider under a timeout.
func (d *Dispatcher) send(ctx context.Context, ch domain.Channel, tmpl *domain.NotificationTemplate, rcpt RecipientDetail, data fieldpath.Getter, act *domain.NotificationActivity) error {
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}

	var (
		providerID string
		err        error
	)
	switch ch {
	case domain.ChannelEmail:
		msg := domain.EmailMessage{
			To:      rcpt.Email,
			Subject: Render(tmpl.Email.Subject, data),
			HTML:    Render(tmpl.Email.HTMLBody, data),
			Text:    Render(tmpl.Email.TextBody, data),
		}
		act.Recipients = []string{msg.To}
		act.Subject = msg.Subject
		if d.email == nil {
			return errors.New("email sender not configured")
		}
		providerID, err = d.email.SendEmail(ctx, msg)
	case domain.ChannelSMS:
		body := Render(tmpl.SMS.Message, data)
		act.Recipients = []string{rcpt.Phone}
		act.Subject = preview(body)
		if d.sms == nil {
			return errors.New("sms sender not configured")
		}
		providerID, err = d.sms.SendSMS(ctx, rcpt.Phone, body)
	default:
		return fmt.Errorf("unsupported channel %q", ch)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("send timed out after %s", d.cfg.SendTimeout)
	}
	if err != nil {
		return err
	}
	act.ProviderMessageID = providerID
	return nil
}

func channelTargets(ch domain.Channel, r Recipients) []RecipientDetail {
	var out []RecipientDetail
	for _, d := range r.Details {
		if address(ch, d) != "" {
			out = append(out, d)
		}
	}
	return out
}

func address(ch domain.Channel, d RecipientDetail) string {
	if ch == domain.ChannelSMS {
		return d.Phone
	}
	return d.Email
}

type refs struct {
	vehicleID, transferID, userID, locationID string
}

func activityRefs(data fieldpath.Getter) refs {
	return refs{
		vehicleID:  fieldpath.String(data, "vehicle.id"),
		transferID: fieldpath.String(data, "transfer.id"),
		userID:     fieldpath.String(data, "user.id"),
		locationID: fieldpath.String(data, "location.id"),
	}
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= smsPreviewLen {
		return s
	}
	r := []rune(s)
	return string(r[:smsPreviewLen])
}
