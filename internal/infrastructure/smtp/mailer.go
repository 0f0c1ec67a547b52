package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/dealer-transfers-api/internal/config"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/id"
)

// Mailer sends emails through a plain SMTP relay.
type Mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	now      func() time.Time
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		from:     cfg.Email.From,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		now:      time.Now,
	}
}

// SendEmail delivers msg and returns the Message-ID it was sent with.
func (m *Mailer) SendEmail(ctx context.Context, msg domain.EmailMessage) (string, error) {
	messageID := fmt.Sprintf("<%s@%s>", id.New(), m.host)
	body := buildMessage(m.from, messageID, m.now(), msg)

	addr := net.JoinHostPort(m.host, m.port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return "", fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if m.username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return "", fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(m.from); err != nil {
		return "", fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return "", fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return "", fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return "", fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("smtp data close: %w", err)
	}
	return messageID, c.Quit()
}

const boundary = "dealer-transfers-alt"

// buildMessage renders an RFC 5322 message; when both bodies are present it is multipart/alternative.
func buildMessage(from, messageID string, at time.Time, msg domain.EmailMessage) []byte {
	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", msg.To)
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", at.UTC().Format(time.RFC1123Z))
	header("Message-ID", messageID)
	header("MIME-Version", "1.0")

	switch {
	case msg.HTML != "" && msg.Text != "":
		header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
		b.WriteString("\r\n")
		writePart(&b, "text/plain", msg.Text)
		writePart(&b, "text/html", msg.HTML)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case msg.HTML != "":
		header("Content-Type", `text/html; charset="utf-8"`)
		b.WriteString("\r\n")
		b.WriteString(crlf(msg.HTML))
	default:
		header("Content-Type", `text/plain; charset="utf-8"`)
		b.WriteString("\r\n")
		b.WriteString(crlf(msg.Text))
	}
	return b.Bytes()
}

func writePart(b *bytes.Buffer, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\n", boundary)
	fmt.Fprintf(b, "Content-Type: %s; charset=\"utf-8\"\r\n\r\n", contentType)
	b.WriteString(crlf(body))
	b.WriteString("\r\n")
}

func crlf(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}
