package notify

import (
	"strings"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/fieldpath"
)

// EventData is what an event producer knows at the moment the event fires.
// Any field may be nil; the matching context keys are then simply absent.
type EventData struct {
	Vehicle         *domain.Vehicle
	VehicleLocation *domain.Location
	Transfer        *domain.Transfer
	FromLocation    *domain.Location
	ToLocation      *domain.Location
	Actor           *domain.User
	Comment         *domain.Comment
	PreviousStatus  string
}

// ContextBuilder shapes EventData into the nested context that rules and templates address.
type ContextBuilder struct {
	appName string
	baseURL string
	now     func() time.Time
}

func NewContextBuilder(appName, baseURL string) *ContextBuilder {
	return &ContextBuilder{
		appName: appName,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (b *ContextBuilder) Build(in EventData) fieldpath.Map {
	ctx := fieldpath.Map{
		"system": map[string]any{
			"app_name": b.appName,
			"base_url": b.baseURL,
			"now":      b.now().UTC(),
		},
	}

	var link string
	if in.Vehicle != nil {
		v := vehicleMap(in.Vehicle)
		if in.VehicleLocation != nil {
			v["location"] = locationMap(in.VehicleLocation)
		} else {
			v["location"] = map[string]any{"id": in.Vehicle.LocationID}
		}
		if in.PreviousStatus != "" {
			v["previous_status"] = in.PreviousStatus
		}
		ctx["vehicle"] = v
		link = b.baseURL + "/vehicles/" + in.Vehicle.VehicleID
	}
	if in.Transfer != nil {
		t := transferMap(in.Transfer)
		t["from_location"] = orLocationID(in.FromLocation, in.Transfer.FromLocationID)
		t["to_location"] = orLocationID(in.ToLocation, in.Transfer.ToLocationID)
		if in.PreviousStatus != "" {
			t["previous_status"] = in.PreviousStatus
		}
		ctx["transfer"] = t
		ctx["location"] = t["to_location"]
		link = b.baseURL + "/transfers/" + in.Transfer.TransferID
	} else if loc, ok := ctxValue(ctx, "vehicle", "location"); ok {
		ctx["location"] = loc
	}
	if in.Actor != nil {
		ctx["user"] = userMap(in.Actor)
	}
	if in.Comment != nil {
		ctx["comment"] = map[string]any{
			"id":      in.Comment.CommentID,
			"body":    in.Comment.Body,
			"created": in.Comment.CreatedAt,
		}
	}
	if link != "" {
		ctx["link"] = map[string]any{"url": link}
	}
	return ctx
}

func ctxValue(m fieldpath.Map, key, sub string) (any, bool) {
	inner, ok := m[key].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := inner[sub]
	return v, ok
}

func vehicleMap(v *domain.Vehicle) map[string]any {
	return map[string]any{
		"id":           v.VehicleID,
		"vin":          v.VIN,
		"stock_number": v.StockNumber,
		"year":         v.Year,
		"make":         v.Make,
		"model":        v.Model,
		"trim":         v.Trim,
		"color":        v.Color,
		"mileage":      v.Mileage,
		"price_cents":  v.PriceCents,
		"status":       string(v.Status),
		"title":        strings.TrimSpace(strings.Join([]string{itoa(v.Year), v.Make, v.Model}, " ")),
	}
}

func transferMap(t *domain.Transfer) map[string]any {
	m := map[string]any{
		"id":           t.TransferID,
		"vehicle_id":   t.VehicleID,
		"status":       string(t.Status),
		"priority":     t.Priority,
		"notes":        t.Notes,
		"status_note":  t.StatusNote,
		"requested_by": t.RequestedBy,
		"created":      t.CreatedAt,
	}
	if t.NeededBy != nil {
		m["needed_by"] = *t.NeededBy
	}
	if t.ApprovedBy != nil {
		m["approved_by"] = *t.ApprovedBy
	}
	return m
}

func locationMap(l *domain.Location) map[string]any {
	return map[string]any{
		"id":    l.LocationID,
		"code":  l.Code,
		"name":  l.Name,
		"city":  l.City,
		"state": l.State,
		"phone": l.Phone,
		"email": l.Email,
	}
}

func orLocationID(l *domain.Location, id string) map[string]any {
	if l != nil {
		return locationMap(l)
	}
	return map[string]any{"id": id}
}

func userMap(u *domain.User) map[string]any {
	m := map[string]any{
		"id":         u.UserID,
		"name":       u.FullName(),
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"role":       u.Role,
	}
	if u.Phone != nil {
		m["phone"] = *u.Phone
	}
	return m
}

func recipientOverlay(d RecipientDetail) fieldpath.Map {
	return fieldpath.Map{"recipient": map[string]any{
		"name":       d.Name,
		"first_name": d.FirstName,
		"email":      d.Email,
		"phone":      d.Phone,
		"role":       d.Role,
	}}
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return fieldpath.Stringify(n)
}
