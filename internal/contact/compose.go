package contact

import (
	"fmt"
	"strings"

	"github.com/saige-footwear/contact-relay/internal/mail"
)

// Message tags used in logs and metrics.
const (
	TagNotification = "notification"
	TagAutoReply    = "auto_reply"
)

// Identity names the mailboxes the relay speaks for.
type Identity struct {
	// Sender is the relay-authorised From address (MAIL_FROM).
	Sender string
	// Inbox is the business inbox receiving notifications (MAIL_TO).
	Inbox         string
	NotifyName    string
	AutoReplyName string
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var lineBreaks = strings.NewReplacer("\r\n", "<br>", "\n", "<br>")

// EscapeHTML escapes the five characters significant in HTML text and attributes.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ComposeNotification builds the message delivered to the business inbox. Replies
// to it go straight to the visitor.
func ComposeNotification(sub Submission, email string, id Identity) mail.Message {
	name := string(sub.Name)
	message := string(sub.Message)

	var html strings.Builder
	html.WriteString("<h3>New Website Message</h3>\n")
	fmt.Fprintf(&html, "<p><b>Name:</b> %s</p>\n", EscapeHTML(name))
	fmt.Fprintf(&html, "<p><b>Email:</b> %s</p>\n", EscapeHTML(email))
	html.WriteString("<p><b>Message:</b></p>\n")
	fmt.Fprintf(&html, "<p>%s</p>\n", lineBreaks.Replace(EscapeHTML(message)))

	return mail.Message{
		Tag:     TagNotification,
		From:    mail.Address{Name: id.NotifyName, Email: id.Sender},
		To:      mail.Address{Email: id.Inbox},
		ReplyTo: mail.Address{Email: email},
		Subject: "New message from " + name,
		Text:    fmt.Sprintf("Name: %s\nEmail: %s\n\n%s", name, email, message),
		HTML:    html.String(),
	}
}

// ComposeAutoReply builds the bilingual acknowledgment sent to the visitor. Replies
// to it land in the business inbox.
func ComposeAutoReply(sub Submission, email string, id Identity) mail.Message {
	name := string(sub.Name)
	return mail.Message{
		Tag:     TagAutoReply,
		From:    mail.Address{Name: id.AutoReplyName, Email: id.Sender},
		To:      mail.Address{Email: email},
		ReplyTo: mail.Address{Email: id.Inbox},
		Subject: "我们已收到您的来信 | We received your message",
		Text: fmt.Sprintf("您好 %s：\n感谢您的来信！我们已收到，并会在 24–48 小时内回复您。\n"+
			"Thank you for your message. We will get back to you within 24–48 hours.\n\n— %s",
			name, id.AutoReplyName),
		HTML: fmt.Sprintf("<p>您好 %s：</p>\n"+
			"<p>感谢您的来信！我们已收到，并会在 <b>24–48 小时</b> 内回复您。</p>\n"+
			"<p>Thank you for your message. We will get back to you within <b>24–48 hours</b>.</p>\n"+
			"<p>— %s</p>\n",
			EscapeHTML(name), EscapeHTML(id.AutoReplyName)),
	}
}
