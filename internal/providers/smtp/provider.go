// Package smtp relays email through a plain SMTP server.
package smtp

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/smashsend/smashsend-go/internal/core"
)

const name = "smtp"

// Provider implements core.Provider for SMTP.
type Provider struct {
	config core.ProviderSettings
	dialer *net.Dialer
}

// NewProvider creates an SMTP relay. Settings: host and port (required),
// username and password (optional, PLAIN auth), tls=true for implicit TLS,
// tls_skip_verify=true to accept any certificate.
func NewProvider(settings core.ProviderSettings) (*Provider, error) {
	p := &Provider{
		config: settings,
		dialer: &net.Dialer{Timeout: 30 * time.Second},
	}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}
	return p, nil
}

// Send relays a single email.
func (p *Provider) Send(ctx context.Context, email *core.Email) (*core.SendResult, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	host := p.config.Get("host")
	messageID := newMessageID(host)

	message, err := buildMessage(email, messageID, time.Now())
	if err != nil {
		return nil, core.NewProviderError(name, "message_build_error", "failed to build message", err)
	}

	recipients := make([]string, 0, len(email.To))
	for _, to := range email.To {
		recipients = append(recipients, to.Email)
	}

	if err := p.deliver(ctx, email.From.Email, recipients, message); err != nil {
		perr := core.NewProviderError(name, "send_error", "failed to send email", err)
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) {
			perr.StatusCode = tpErr.Code
			perr.IsRetryable = tpErr.Code >= 400 && tpErr.Code < 500
		} else {
			perr.IsRetryable = true
		}
		return nil, perr
	}

	return &core.SendResult{
		MessageID: messageID,
		Provider:  p.Name(),
		Timestamp: time.Now(),
	}, nil
}

func (p *Provider) deliver(ctx context.Context, from string, to []string, message []byte) error {
	host := p.config.Get("host")
	addr := net.JoinHostPort(host, p.config.Get("port"))
	tlsConfig := &tls.Config{
		ServerName:         host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: p.config.Get("tls_skip_verify") == "true", //nolint:gosec
	}

	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if p.config.Get("tls") == "true" {
		conn = tls.Client(conn, tlsConfig)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if p.config.Get("tls") != "true" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return err
			}
		}
	}

	if username := p.config.Get("username"); username != "" {
		if err := client.Auth(smtp.PlainAuth("", username, p.config.Get("password"), host)); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(message); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// SendBatch relays emails one by one.
func (p *Provider) SendBatch(ctx context.Context, emails []*core.Email) (*core.BatchResult, error) {
	return core.SendEach(ctx, p, emails), nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("host") == "" {
		return core.NewValidationError("host", "SMTP host is required")
	}

	port := p.config.Get("port")
	if port == "" {
		return core.NewValidationError("port", "SMTP port is required")
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return core.NewValidationErrorWithValue("port", "invalid port number", port)
	}

	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return name
}

// buildMessage renders the email in RFC 5322 format with quoted-printable bodies.
func buildMessage(email *core.Email, messageID string, date time.Time) ([]byte, error) {
	var buf bytes.Buffer

	header := func(key, value string) {
		buf.WriteString(key + ": " + value + "\r\n")
	}

	header("From", email.From.String())
	header("To", joinAddresses(email.To))
	if len(email.ReplyTo) > 0 {
		header("Reply-To", joinAddresses(email.ReplyTo))
	}
	header("Subject", mime.QEncoding.Encode("UTF-8", email.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("Message-ID", "<"+messageID+">")
	header("MIME-Version", "1.0")
	if len(email.Tags) > 0 {
		header("X-Tags", strings.Join(email.Tags, ","))
	}
	for key, value := range email.Headers {
		header(textproto.CanonicalMIMEHeaderKey(key), value)
	}

	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		mw := multipart.NewWriter(&buf)
		header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
		buf.WriteString("\r\n")
		for _, part := range []struct{ contentType, body string }{
			{"text/plain; charset=UTF-8", email.TextBody},
			{"text/html; charset=UTF-8", email.HTMLBody},
		} {
			pw, err := mw.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {part.contentType},
				"Content-Transfer-Encoding": {"quoted-printable"},
			})
			if err != nil {
				return nil, err
			}
			if err := writeQuotedPrintable(pw, part.body); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
	case email.HTMLBody != "":
		header("Content-Type", "text/html; charset=UTF-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, email.HTMLBody); err != nil {
			return nil, err
		}
	default:
		header("Content-Type", "text/plain; charset=UTF-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, email.TextBody); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func joinAddresses(list []core.Address) string {
	parts := make([]string, len(list))
	for i, addr := range list {
		parts[i] = addr.String()
	}
	return strings.Join(parts, ", ")
}

func newMessageID(host string) string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%d.%s@%s", time.Now().UnixNano(), hex.EncodeToString(b), host)
}
