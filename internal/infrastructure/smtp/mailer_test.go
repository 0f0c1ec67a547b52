package smtp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dealer-transfers-api/internal/config"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentAt = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func TestBuildMessage_Multipart(t *testing.T) {
	raw := string(buildMessage("noreply@dealer.com", "<id@host>", sentAt, domain.EmailMessage{
		To: "a@x.com", Subject: "Transfer approved", HTML: "<p>ok</p>", Text: "line1\nline2",
	}))

	assert.Contains(t, raw, "From: noreply@dealer.com\r\n")
	assert.Contains(t, raw, "To: a@x.com\r\n")
	assert.Contains(t, raw, "Subject: Transfer approved\r\n")
	assert.Contains(t, raw, "Message-ID: <id@host>\r\n")
	assert.Contains(t, raw, `multipart/alternative; boundary="dealer-transfers-alt"`)
	assert.Contains(t, raw, "line1\r\nline2")
	assert.Less(t, strings.Index(raw, "text/plain"), strings.Index(raw, "text/html"))
	assert.True(t, strings.HasSuffix(raw, "--dealer-transfers-alt--\r\n"))
}

func TestBuildMessage_SingleBody(t *testing.T) {
	raw := string(buildMessage("f@x.com", "<id>", sentAt, domain.EmailMessage{To: "a@x.com", Subject: "s", HTML: "<b>hi</b>"}))
	assert.Contains(t, raw, `Content-Type: text/html; charset="utf-8"`)
	assert.NotContains(t, raw, "multipart")

	raw = string(buildMessage("f@x.com", "<id>", sentAt, domain.EmailMessage{To: "a@x.com", Subject: "s", Text: "hi"}))
	assert.Contains(t, raw, `Content-Type: text/plain; charset="utf-8"`)
}

func TestBuildMessage_EncodesNonASCIISubject(t *testing.T) {
	raw := string(buildMessage("f@x.com", "<id>", sentAt, domain.EmailMessage{To: "a@x.com", Subject: "Traslado aprobado ✓", Text: "x"}))
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
}

func TestSendEmail_DialFailure(t *testing.T) {
	m := NewMailer(&config.Config{
		SMTP:  config.SMTPConfig{Host: "127.0.0.1", Port: "1"},
		Email: config.EmailConfig{From: "noreply@dealer.com"},
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := m.SendEmail(ctx, domain.EmailMessage{To: "a@x.com", Subject: "s", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp dial")
}
