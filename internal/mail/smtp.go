package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPConfig describes how to reach the outbound relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// ImplicitTLS dials with TLS from the first byte (port 465). Otherwise the
	// session is upgraded with STARTTLS when the server offers it.
	ImplicitTLS bool
	Timeout     time.Duration
	// LocalName is sent with EHLO. Defaults to "localhost".
	LocalName string
	TLSConfig *tls.Config
}

// SMTPSender sends messages through an authenticated SMTP relay, one session per message.
type SMTPSender struct {
	cfg   SMTPConfig
	now   func() time.Time
	msgID func(from string) string
}

// NewSMTPSender validates cfg and returns a sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TLSConfig == nil {
		cfg.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return &SMTPSender{cfg: cfg, now: time.Now, msgID: NewMessageID}, nil
}

// Addr returns the relay address in host:port form.
func (s *SMTPSender) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Send delivers msg in a fresh SMTP session.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	raw, err := Compose(msg, s.now(), s.msgID(msg.From.Email))
	if err != nil {
		return err
	}

	client, closeConn, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer closeConn()

	if s.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			return errors.New("mail: relay does not offer AUTH")
		}
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mail: authenticate: %w", err)
		}
	}
	if err := client.Mail(msg.From.envelope()); err != nil {
		return fmt.Errorf("mail: MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To.envelope()); err != nil {
		return fmt.Errorf("mail: RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("mail: write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: finish message: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("mail: QUIT: %w", err)
	}
	return nil
}

// Ping opens a session and closes it politely. Used by readiness probes.
func (s *SMTPSender) Ping(ctx context.Context) error {
	client, closeConn, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer closeConn()
	if err := client.Noop(); err != nil {
		return fmt.Errorf("mail: NOOP: %w", err)
	}
	return client.Quit()
}

func (s *SMTPSender) open(ctx context.Context) (*smtp.Client, func(), error) {
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	var (
		conn net.Conn
		err  error
	)
	if s.cfg.ImplicitTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: s.cfg.TLSConfig}
		conn, err = tlsDialer.DialContext(ctx, "tcp", s.Addr())
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", s.Addr())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("mail: dial %s: %w", s.Addr(), err)
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		stop()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("mail: greeting: %w", err)
	}
	closeConn := func() {
		stop()
		_ = client.Close()
	}

	localName := s.cfg.LocalName
	if localName == "" {
		localName = "localhost"
	}
	if err := client.Hello(localName); err != nil {
		closeConn()
		return nil, nil, fmt.Errorf("mail: EHLO: %w", err)
	}
	if !s.cfg.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.cfg.TLSConfig); err != nil {
				closeConn()
				return nil, nil, fmt.Errorf("mail: STARTTLS: %w", err)
			}
		}
	}
	return client, closeConn, nil
}
