// Package notify turns domain events into rendered, delivered and audited notifications.
package notify

import (
	"io"
	"strings"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/fieldpath"
	"github.com/valyala/fasttemplate"
)

const (
	tagStart = "{{"
	tagEnd   = "}}"
)

// Render substitutes every {{dotted.path}} in tmpl with the stringified value found in data.
// Unresolvable paths render as "". An opening tag without a closing one is left as is,
// so "{{ {{a}}" keeps the stray "{{ " and substitutes a.
func Render(tmpl string, data fieldpath.Getter) string {
	if !strings.Contains(tmpl, tagStart) {
		return tmpl
	}
	return fasttemplate.ExecuteFuncString(tmpl, tagStart, tagEnd, func(w io.Writer, tag string) (int, error) {
		var n int
		if i := strings.LastIndex(tag, tagStart); i >= 0 {
			lit, err := io.WriteString(w, tagStart+tag[:i])
			n += lit
			if err != nil {
				return n, err
			}
			tag = tag[i+len(tagStart):]
		}
		val, err := io.WriteString(w, fieldpath.String(data, strings.TrimSpace(tag)))
		return n + val, err
	})
}

// RenderedEmail is a template's email content after substitution.
type RenderedEmail struct {
	Subject string `json:"subject"`
	HTML    string `json:"html_body"`
	Text    string `json:"text_body"`
}

// Rendered holds the per-channel output of a template; channels the template lacks stay nil.
type Rendered struct {
	Email *RenderedEmail `json:"email,omitempty"`
	SMS   *string        `json:"sms,omitempty"`
}

// RenderTemplate renders every channel the template carries.
func RenderTemplate(t *domain.NotificationTemplate, data fieldpath.Getter) Rendered {
	var out Rendered
	if t == nil {
		return out
	}
	if t.Email != nil {
		out.Email = &RenderedEmail{
			Subject: Render(t.Email.Subject, data),
			HTML:    Render(t.Email.HTMLBody, data),
			Text:    Render(t.Email.TextBody, data),
		}
	}
	if t.SMS != nil {
		msg := Render(t.SMS.Message, data)
		out.SMS = &msg
	}
	return out
}
