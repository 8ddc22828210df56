package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/saige-footwear/contact-relay/internal/config"
	"github.com/saige-footwear/contact-relay/internal/contact"
	"github.com/saige-footwear/contact-relay/internal/dispatch"
	"github.com/saige-footwear/contact-relay/internal/mail"
	"github.com/saige-footwear/contact-relay/internal/obs"
)

// Dependencies enumerates the collaborators shared by the HTTP surface and shutdown.
type Dependencies struct {
	Mailer     mail.Sender
	Dispatcher dispatch.Dispatcher
	Contact    *contact.Service

	async *dispatch.Async
}

// NewDependencies wires the relay service on top of transport.
func NewDependencies(cfg *config.Config, logger zerolog.Logger, transport mail.Sender) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if transport == nil {
		return nil, errors.New("app: mail transport is required")
	}
	deps := &Dependencies{Mailer: mail.Instrumented{Next: transport}}

	onError := func(name string, err error) {
		obs.ObserveTaskFailure(name)
		logger.Error().Err(err).Str("task", name).Msg("auto-reply error")
	}
	switch cfg.AutoReplyMode {
	case "sync":
		deps.Dispatcher = dispatch.Inline{Timeout: cfg.AutoReplyTimeout, OnError: onError}
	default:
		deps.async = &dispatch.Async{Timeout: cfg.AutoReplyTimeout, OnError: onError}
		deps.Dispatcher = deps.async
	}

	svc, err := contact.NewService(contact.ServiceConfig{
		Mailer:     deps.Mailer,
		Dispatcher: deps.Dispatcher,
		Identity: contact.Identity{
			Sender:        cfg.MailFrom,
			Inbox:         cfg.MailTo,
			NotifyName:    cfg.NotifySenderName,
			AutoReplyName: cfg.AutoReplySenderName,
		},
		AutoReply:     cfg.AutoReplyEnabled,
		NotifyTimeout: cfg.SMTP.Timeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	deps.Contact = svc
	return deps, nil
}

// Drain waits for detached acknowledgments to finish or ctx to expire.
func (d *Dependencies) Drain(ctx context.Context) error {
	if d == nil || d.async == nil {
		return nil
	}
	return d.async.Wait(ctx)
}
