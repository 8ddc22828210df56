package contact

import "strings"

// Substrings that mark automated mailboxes. Acknowledging them risks a reply loop.
var autoReplyDenyList = []string{"postmaster", "mailer-daemon", "bounce", "no-reply", "noreply"}

// Reasons an acknowledgment is withheld.
const (
	skipEmpty      = "empty_address"
	skipInbox      = "business_inbox"
	skipSender     = "sender_address"
	skipDenyListed = "deny_listed"
)

// SafeToAutoReply reports whether an acknowledgment may be sent to email
// without risking a loop with the business inbox, the relay sender, or an
// automated mailbox.
func SafeToAutoReply(email, inbox, sender string) bool {
	return autoReplySkipReason(email, inbox, sender) == ""
}

func autoReplySkipReason(email, inbox, sender string) string {
	lower := strings.ToLower(strings.TrimSpace(email))
	switch {
	case lower == "":
		return skipEmpty
	case lower == strings.ToLower(strings.TrimSpace(inbox)):
		return skipInbox
	case lower == strings.ToLower(strings.TrimSpace(sender)):
		return skipSender
	}
	for _, marker := range autoReplyDenyList {
		if strings.Contains(lower, marker) {
			return skipDenyListed
		}
	}
	return ""
}
