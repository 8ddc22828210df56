package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/saige-footwear/contact-relay/internal/dispatch"
	"github.com/saige-footwear/contact-relay/internal/mail"
	"github.com/saige-footwear/contact-relay/internal/obs"
)

// Outcome describes how an accepted submission was handled.
type Outcome int

const (
	// Delivered means the notification reached the relay.
	Delivered Outcome = iota + 1
	// Trapped means the honeypot was filled and nothing was sent.
	Trapped
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Trapped:
		return "trapped"
	default:
		return "unknown"
	}
}

// ServiceConfig wires the relay's collaborators.
type ServiceConfig struct {
	Mailer     mail.Sender
	Dispatcher dispatch.Dispatcher
	Identity   Identity
	// AutoReply enables the acknowledgment to the visitor.
	AutoReply bool
	// NotifyTimeout bounds the notification send. Zero means no bound beyond
	// the sender's own.
	NotifyTimeout time.Duration
	Logger        zerolog.Logger
}

// Service relays contact submissions to the business inbox.
type Service struct {
	mailer     mail.Sender
	dispatcher dispatch.Dispatcher
	identity   Identity
	autoReply  bool
	notifyWait time.Duration
	logger     zerolog.Logger
}

// NewService validates cfg and returns a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Mailer == nil {
		return nil, errors.New("contact: mailer is required")
	}
	if strings.TrimSpace(cfg.Identity.Sender) == "" {
		return nil, errors.New("contact: sender address is required")
	}
	if strings.TrimSpace(cfg.Identity.Inbox) == "" {
		return nil, errors.New("contact: inbox address is required")
	}
	if cfg.AutoReply && cfg.Dispatcher == nil {
		return nil, errors.New("contact: dispatcher is required when auto-reply is enabled")
	}
	return &Service{
		mailer:     cfg.Mailer,
		dispatcher: cfg.Dispatcher,
		identity:   cfg.Identity,
		autoReply:  cfg.AutoReply,
		notifyWait: cfg.NotifyTimeout,
		logger:     cfg.Logger,
	}, nil
}

// Submit applies the honeypot and validation rules, delivers the notification and
// schedules the acknowledgment. Only a notification failure is returned as a
// *DeliveryError; the acknowledgment's outcome never reaches the caller.
func (s *Service) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	if sub.Trapped() {
		return Trapped, nil
	}

	email, err := sub.Validate()
	if err != nil {
		return 0, err
	}

	notification := ComposeNotification(sub, email, s.identity)
	if err := s.notify(ctx, notification); err != nil {
		return 0, &DeliveryError{Err: err}
	}

	s.acknowledge(ctx, sub, email)
	return Delivered, nil
}

// notify sends the notification detached from the caller's cancellation so a
// client that goes away mid-send does not abort delivery.
func (s *Service) notify(ctx context.Context, msg mail.Message) error {
	sendCtx := context.WithoutCancel(ctx)
	if s.notifyWait > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(sendCtx, s.notifyWait)
		defer cancel()
	}
	return s.mailer.Send(sendCtx, msg)
}

func (s *Service) acknowledge(ctx context.Context, sub Submission, email string) {
	if !s.autoReply {
		return
	}
	if reason := autoReplySkipReason(email, s.identity.Inbox, s.identity.Sender); reason != "" {
		obs.ObserveAutoReplySkipped(reason)
		s.logger.Debug().Str("reason", reason).Str("visitor_domain", domainOf(email)).Msg("auto-reply skipped")
		return
	}
	reply := ComposeAutoReply(sub, email, s.identity)
	s.dispatcher.Go(ctx, TagAutoReply, func(taskCtx context.Context) error {
		return s.mailer.Send(taskCtx, reply)
	})
}

func domainOf(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return strings.ToLower(email[at+1:])
	}
	return ""
}
