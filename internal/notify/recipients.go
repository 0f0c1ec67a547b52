package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/fieldpath"
)

// Directory answers "which active users match" queries for recipient expansion.
type Directory interface {
	ListActive(ctx context.Context, f domain.UserFilter) ([]domain.User, error)
}

// locationRolePaths maps a rule's location role to the context path holding the location id.
var locationRolePaths = map[domain.LocationRole]string{
	domain.LocationRequesting:  "transfer.from_location.id",
	domain.LocationDestination: "transfer.to_location.id",
	domain.LocationCurrent:     "vehicle.location.id",
}

type RecipientDetail struct {
	UserID     string `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Name       string `json:"name,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	Role       string `json:"role,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	Source     string `json:"source"`
}

type Recipients struct {
	Emails  []string          `json:"emails"`
	Details []RecipientDetail `json:"details"`
}

func (r Recipients) Empty() bool { return len(r.Details) == 0 }

// Resolver expands a RecipientConfig against an event context.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve unions every configured source. Directory-backed sources are collected
// first so user details win over bare addresses. Zero matches is not an error.
func (r *Resolver) Resolve(ctx context.Context, cfg domain.RecipientConfig, data fieldpath.Getter) (Recipients, error) {
	set := newRecipientSet()

	if ids := nonBlank(cfg.UserIDs); len(ids) > 0 {
		users, err := r.lookup(ctx, domain.UserFilter{IDs: ids})
		if err != nil {
			return Recipients{}, fmt.Errorf("resolve user_ids: %w", err)
		}
		set.addUsers(users, "user_id")
	}

	for _, role := range cfg.LocationRoles {
		path, ok := locationRolePaths[role]
		if !ok {
			continue
		}
		locID := fieldpath.String(data, path)
		if locID == "" {
			continue
		}
		users, err := r.lookup(ctx, domain.UserFilter{LocationID: locID})
		if err != nil {
			return Recipients{}, fmt.Errorf("resolve location role %s: %w", role, err)
		}
		set.addUsers(users, "location_role:"+string(role))
	}

	for _, locID := range nonBlank(cfg.LocationIDs) {
		users, err := r.lookup(ctx, domain.UserFilter{LocationID: locID})
		if err != nil {
			return Recipients{}, fmt.Errorf("resolve location %s: %w", locID, err)
		}
		set.addUsers(users, "location")
	}

	for _, role := range cfg.Roles {
		users, err := r.lookup(ctx, domain.UserFilter{Role: role})
		if err != nil {
			return Recipients{}, fmt.Errorf("resolve role %s: %w", role, err)
		}
		set.addUsers(users, "role")
	}

	for _, email := range cfg.Emails {
		set.add(RecipientDetail{Email: strings.TrimSpace(email), Source: "email"})
	}
	for _, phone := range cfg.Phones {
		set.add(RecipientDetail{Phone: strings.TrimSpace(phone), Source: "phone"})
	}

	return set.result(), nil
}

// nonBlank drops empty ids; an empty filter value would widen the directory query to everyone.
func nonBlank(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (r *Resolver) lookup(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	if r.dir == nil {
		return nil, fmt.Errorf("no user directory configured")
	}
	active := true
	f.Active = &active
	return r.dir.ListActive(ctx, f)
}

type recipientSet struct {
	emails  map[string]struct{}
	phones  map[string]struct{}
	details []RecipientDetail
}

func newRecipientSet() *recipientSet {
	return &recipientSet{
		emails: make(map[string]struct{}),
		phones: make(map[string]struct{}),
	}
}

func (s *recipientSet) addUsers(users []domain.User, source string) {
	for _, u := range users {
		d := RecipientDetail{
			UserID:    u.UserID,
			Email:     strings.TrimSpace(u.Email),
			Name:      u.FullName(),
			FirstName: u.FirstName,
			Role:      u.Role,
			Source:    source,
		}
		if u.Phone != nil {
			d.Phone = strings.TrimSpace(*u.Phone)
		}
		if u.LocationID != nil {
			d.LocationID = *u.LocationID
		}
		s.add(d)
	}
}

// add keeps the first entry per lowercased email; entries without email dedupe by phone.
func (s *recipientSet) add(d RecipientDetail) {
	emailKey := strings.ToLower(d.Email)
	switch {
	case emailKey != "":
		if _, seen := s.emails[emailKey]; seen {
			return
		}
	case d.Phone != "":
		if _, seen := s.phones[d.Phone]; seen {
			return
		}
	default:
		return
	}
	if emailKey != "" {
		s.emails[emailKey] = struct{}{}
	}
	if d.Phone != "" {
		s.phones[d.Phone] = struct{}{}
	}
	s.details = append(s.details, d)
}

func (s *recipientSet) result() Recipients {
	out := Recipients{Emails: []string{}, Details: []RecipientDetail{}}
	for _, d := range s.details {
		if d.Email != "" {
			out.Emails = append(out.Emails, d.Email)
		}
		out.Details = append(out.Details, d)
	}
	return out
}
