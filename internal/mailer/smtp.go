package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/config"
)

// SMTPMailer submits mail to an SMTP server, upgrading with STARTTLS when offered
type SMTPMailer struct {
	addr     string
	host     string
	from     string
	username string
	password string
	tls      *tls.Config
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(cfg config.SMTPConfig, from string) *SMTPMailer {
	return &SMTPMailer{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:     cfg.Host,
		from:     from,
		username: cfg.Username,
		password: cfg.Password,
		tls:      &tls.Config{ServerName: cfg.Host},
	}
}

// Send delivers msg. The context deadline bounds the whole SMTP session.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	raw, err := Compose(m.from, msg, time.Now())
	if err != nil {
		return err
	}

	c, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if m.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", m.username, m.password)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := c.SendMail(m.from, msg.To, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	if err := c.Quit(); err != nil {
		logrus.Debugf("SMTP quit failed: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email sent via SMTP")
	return nil
}

// dial opens a client session. When the server offers STARTTLS the
// connection is reopened and upgraded before any credentials are sent.
func (m *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	conn, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	c := smtp.NewClient(conn)
	if err := c.Hello("localhost"); err != nil {
		c.Close()
		return nil, fmt.Errorf("SMTP hello failed: %w", err)
	}
	if ok, _ := c.Extension("STARTTLS"); !ok {
		return c, nil
	}
	c.Close()

	conn, err = m.connect(ctx)
	if err != nil {
		return nil, err
	}
	c, err = smtp.NewClientStartTLS(conn, m.tls)
	if err != nil {
		return nil, fmt.Errorf("SMTP STARTTLS failed: %w", err)
	}
	return c, nil
}

func (m *SMTPMailer) connect(ctx context.Context) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn = &deadlineConn{Conn: conn, limit: deadline}
		conn.SetDeadline(deadline)
	}
	return conn, nil
}

// deadlineConn caps every deadline the client sets at limit. The client
// resets deadlines per command, which would otherwise outlive the context.
type deadlineConn struct {
	net.Conn
	limit time.Time
}

func (c *deadlineConn) SetDeadline(t time.Time) error {
	if t.IsZero() || t.After(c.limit) {
		t = c.limit
	}
	return c.Conn.SetDeadline(t)
}
