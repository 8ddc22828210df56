package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/saige-footwear/contact-relay/internal/config"
	"github.com/saige-footwear/contact-relay/internal/contact"
	"github.com/saige-footwear/contact-relay/internal/mail"
)

func main() {
	var (
		pingOnly  = flag.Bool("ping", false, "only open a session and issue NOOP")
		to        = flag.String("to", "", "recipient for the sample notification; defaults to MAIL_TO")
		autoReply = flag.Bool("auto-reply", false, "send the sample acknowledgment instead of the notification")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall deadline")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.User,
		Password:    cfg.SMTP.Pass,
		ImplicitTLS: cfg.SMTP.ImplicitTLS(),
		Timeout:     cfg.SMTP.Timeout,
	})
	if err != nil {
		log.Fatalf("smtp transport: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Printf("Relay %s (implicit TLS: %t)", sender.Addr(), cfg.SMTP.ImplicitTLS())
	if *pingOnly {
		if err := sender.Ping(ctx); err != nil {
			log.Fatalf("ping: %v", err)
		}
		log.Println("Relay reachable")
		return
	}

	id := contact.Identity{
		Sender:        cfg.MailFrom,
		Inbox:         cfg.MailTo,
		NotifyName:    cfg.NotifySenderName,
		AutoReplyName: cfg.AutoReplySenderName,
	}
	visitor := *to
	if visitor == "" {
		visitor = cfg.MailTo
	}
	sample := contact.Submission{
		Name:    "Relay check",
		Email:   contact.FormText(visitor),
		Message: contact.FormText("Sample submission sent at " + time.Now().UTC().Format(time.RFC3339)),
	}

	msg := contact.ComposeNotification(sample, visitor, id)
	if *to != "" {
		msg.To = mail.Address{Email: *to}
	}
	if *autoReply {
		msg = contact.ComposeAutoReply(sample, visitor, id)
	}
	if err := sender.Send(ctx, msg); err != nil {
		log.Fatalf("send %s: %v", msg.Tag, err)
	}
	log.Printf("Sent %s to %s", msg.Tag, msg.To.Email)
}
