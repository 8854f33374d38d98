package intake

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/config"
)

// IMAPFetcher reads new messages from an IMAP mailbox. A connection is
// opened for every fetch.
type IMAPFetcher struct {
	addr      string
	user      string
	password  string
	mailbox   string
	lastCheck time.Time
}

// NewIMAPFetcher creates an IMAP fetcher starting with the last 24 hours
func NewIMAPFetcher(cfg config.IntakeConfig) *IMAPFetcher {
	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &IMAPFetcher{
		addr:      fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
		user:      cfg.IMAPUser,
		password:  cfg.IMAPPassword,
		mailbox:   mailbox,
		lastCheck: time.Now().Add(-24 * time.Hour),
	}
}

// FetchNewEmails fetches messages received since the previous successful fetch
func (f *IMAPFetcher) FetchNewEmails(ctx context.Context) ([]InboundEmail, error) {
	dialer := &contextDialer{ctx: ctx}
	defer dialer.release()

	c, err := client.DialWithDialerTLS(dialer, f.addr, nil)
	if err != nil {
		dialer.close()
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if deadline, ok := ctx.Deadline(); ok {
		c.Timeout = time.Until(deadline)
	}

	if err := c.Login(f.user, f.password); err != nil {
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	if _, err := c.Select(f.mailbox, true); err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", f.mailbox, err)
	}

	started := time.Now()
	criteria := imap.NewSearchCriteria()
	criteria.Since = f.lastCheck

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(uids) == 0 {
		f.lastCheck = started
		return []InboundEmail{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}, messages)
	}()

	var emails []InboundEmail
	for msg := range messages {
		email, err := parseIMAPMessage(msg, section)
		if err != nil {
			logrus.Warnf("Failed to parse IMAP message %d: %v", msg.Uid, err)
			continue
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	f.lastCheck = started
	return emails, nil
}

func parseIMAPMessage(msg *imap.Message, section *imap.BodySectionName) (InboundEmail, error) {
	email := InboundEmail{ID: fmt.Sprintf("imap-%d", msg.Uid)}

	if msg.Envelope != nil {
		if msg.Envelope.MessageId != "" {
			email.ID = msg.Envelope.MessageId
		}
		email.Subject = msg.Envelope.Subject
		if len(msg.Envelope.From) > 0 {
			email.FromName = msg.Envelope.From[0].PersonalName
			email.FromAddress = msg.Envelope.From[0].Address()
		}
	}

	r := msg.GetBody(section)
	if r == nil {
		return email, fmt.Errorf("server did not return message body")
	}

	body, err := plainTextBody(r)
	if err != nil {
		return email, err
	}
	email.Body = body
	return email, nil
}

// plainTextBody returns the first text/plain part of a MIME message
func plainTextBody(r io.Reader) (string, error) {
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return "", fmt.Errorf("failed to read message: %w", err)
	}
	body, _, err := findPlainText(entity)
	return body, err
}

func findPlainText(entity *message.Entity) (string, bool, error) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				return "", false, nil
			}
			if err != nil && !message.IsUnknownCharset(err) {
				return "", false, fmt.Errorf("failed to read part: %w", err)
			}
			body, found, err := findPlainText(p)
			if err != nil || found {
				return body, found, err
			}
		}
	}

	mediaType, _, _ := entity.Header.ContentType()
	if mediaType != "" && mediaType != "text/plain" {
		return "", false, nil
	}
	content, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", false, fmt.Errorf("failed to read message body: %w", err)
	}
	return string(content), true, nil
}

// Close is a no-op, connections are per fetch
func (f *IMAPFetcher) Close() error {
	return nil
}

// contextDialer bounds the connection by ctx. The deadline covers the TLS
// handshake and greeting, and cancellation closes the connection.
type contextDialer struct {
	ctx  context.Context
	conn net.Conn
	stop func() bool
}

func (d *contextDialer) Dial(network, addr string) (net.Conn, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(d.ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := d.ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	d.conn = conn
	d.stop = context.AfterFunc(d.ctx, func() { conn.Close() })
	return conn, nil
}

func (d *contextDialer) release() {
	if d.stop != nil {
		d.stop()
	}
}

func (d *contextDialer) close() {
	if d.conn != nil {
		d.conn.Close()
	}
}
