package auth

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// MailTemplateSignup is the template name for the registration email.
const MailTemplateSignup = "registration_signup"

// SignupURL builds the link embedded in registration email. The token
// travels as a query parameter so the frontend route stays static.
func SignupURL(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "/signup?token=" + url.QueryEscape(token)
	}
	u.Path, _ = url.JoinPath(u.Path, "signup")
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// MailDispatcher hands outbound mail to a delivery backend without blocking
// the caller. Registration commits must never wait on, or fail with, SMTP.
type MailDispatcher interface {
	Enqueue(msg MailMessage)
}

type noopMailDispatcher struct{}

func (noopMailDispatcher) Enqueue(MailMessage) {}

func normalizeMailDispatcher(d MailDispatcher) MailDispatcher {
	if d == nil {
		return noopMailDispatcher{}
	}
	return d
}

// QueuedMailDispatcher buffers messages and delivers them from a single
// background worker. A full buffer drops the message with a log line
// rather than blocking the enqueueing request.
type QueuedMailDispatcher struct {
	mailer  Mailer
	queue   chan MailMessage
	logger  Logger
	timeout time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewQueuedMailDispatcher starts the delivery worker immediately.
func NewQueuedMailDispatcher(mailer Mailer, buffer int) *QueuedMailDispatcher {
	if buffer <= 0 {
		buffer = 64
	}

	d := &QueuedMailDispatcher{
		mailer:  mailer,
		queue:   make(chan MailMessage, buffer),
		logger:  defLogger{},
		timeout: 15 * time.Second,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go d.worker()

	return d
}

func (d *QueuedMailDispatcher) WithLogger(logger Logger) *QueuedMailDispatcher {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// Enqueue never blocks; messages that do not fit the buffer are dropped.
func (d *QueuedMailDispatcher) Enqueue(msg MailMessage) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping message", "to", msg.To, "template", msg.Template)
	}
}

// Close stops the worker after draining messages already queued.
func (d *QueuedMailDispatcher) Close() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	<-d.done
}

func (d *QueuedMailDispatcher) worker() {
	defer close(d.done)

	for {
		select {
		case msg := <-d.queue:
			d.deliver(msg)
		case <-d.stop:
			for {
				select {
				case msg := <-d.queue:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *QueuedMailDispatcher) deliver(msg MailMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logger.Error("mail delivery failed", "to", msg.To, "template", msg.Template, "error", err)
	}
}

var _ MailDispatcher = (*QueuedMailDispatcher)(nil)
