package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers account mail. Registration only ever enqueues through the
// Dispatcher, so a slow or dead mail server cannot block the request path.
type Mailer interface {
	SendVerification(ctx context.Context, to, username, verifyURL string) error
}

// SMTPMailer sends over a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	User string
	Pass string
	From string
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, username, verifyURL string) error {
	body := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: Verify your Book Store account",
		"",
		fmt.Sprintf("Hi %s,", username),
		"",
		"Click the link below to verify your email address:",
		verifyURL,
		"",
	}, "\r\n")

	var a smtp.Auth
	if m.User != "" {
		host := m.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		a = smtp.PlainAuth("", m.User, m.Pass, host)
	}
	return smtp.SendMail(m.Addr, a, m.From, []string{to}, []byte(body))
}

// LogMailer writes the mail to the log instead of sending it. Default when
// no SMTP relay is configured, and what the tests swap in.
type LogMailer struct{}

func (LogMailer) SendVerification(ctx context.Context, to, username, verifyURL string) error {
	slog.Info("==========================================")
	slog.Info("📧 EMAIL SENT TO: " + to)
	slog.Info("Subject: Verify your Book Store account")
	slog.Info("Verify: " + verifyURL)
	slog.Info("==========================================")
	return nil
}

type job struct {
	to        string
	username  string
	verifyURL string
}

// Dispatcher feeds a single delivery worker through a buffered queue.
// Enqueue never blocks; delivery failures are logged and dropped because
// the registration they belong to has already been committed.
type Dispatcher struct {
	mailer Mailer
	queue  chan job
}

func NewDispatcher(m Mailer, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{mailer: m, queue: make(chan job, buffer)}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for j := range d.queue {
		if err := d.mailer.SendVerification(context.Background(), j.to, j.username, j.verifyURL); err != nil {
			slog.Error("verification mail failed", "to", j.to, "error", err)
			continue
		}
		slog.Info("verification mail sent", "to", j.to)
	}
}

// EnqueueVerification queues a verification mail, dropping it if the queue
// is full.
func (d *Dispatcher) EnqueueVerification(to, username, verifyURL string) {
	select {
	case d.queue <- job{to: to, username: username, verifyURL: verifyURL}:
	default:
		slog.Warn("mail queue full, dropping verification mail", "to", to)
	}
}

// Close stops the worker after the queue drains.
func (d *Dispatcher) Close() {
	close(d.queue)
}
