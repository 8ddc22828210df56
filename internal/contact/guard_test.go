package contact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeToAutoReply(t *testing.T) {
	const inbox, sender = "sales@saige.example", "web@saige.example"
	cases := []struct {
		email  string
		want   bool
		reason string
	}{
		{"ana@example.com", true, ""},
		{"", false, skipEmpty},
		{"SALES@saige.example", false, skipInbox},
		{"Web@Saige.Example", false, skipSender},
		{"postmaster@example.com", false, skipDenyListed},
		{"MAILER-DAEMON@example.com", false, skipDenyListed},
		{"bounces+123@lists.example.com", false, skipDenyListed},
		{"no-reply@shop.example", false, skipDenyListed},
		{"NoReply@shop.example", false, skipDenyListed},
		{"ana@noreply.example", false, skipDenyListed},
		{"sales@saige.example.org", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			require.Equal(t, tc.want, SafeToAutoReply(tc.email, inbox, sender))
			require.Equal(t, tc.reason, autoReplySkipReason(tc.email, inbox, sender))
		})
	}
}
