package mail_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/saige-footwear/contact-relay/internal/mail"
	"github.com/saige-footwear/contact-relay/internal/obs"
)

func TestInstrumentedRecordsResults(t *testing.T) {
	obs.MustRegisterDomainMetrics("contact_relay", prometheus.NewRegistry())

	boom := errors.New("421 service not available")
	rec := &mail.Recorder{Fail: func(msg mail.Message) error {
		if msg.Tag == "auto_reply" {
			return boom
		}
		return nil
	}}
	sender := mail.Instrumented{Next: rec}

	okBefore := testutil.ToFloat64(obs.MailSendTotal.WithLabelValues("notification", "ok"))
	errBefore := testutil.ToFloat64(obs.MailSendTotal.WithLabelValues("auto_reply", "error"))
	untaggedBefore := testutil.ToFloat64(obs.MailSendTotal.WithLabelValues("untagged", "ok"))

	to := mail.Address{Email: "sales@saige.example"}
	require.NoError(t, sender.Send(context.Background(), mail.Message{Tag: "notification", To: to}))
	require.ErrorIs(t, sender.Send(context.Background(), mail.Message{Tag: "auto_reply", To: to}), boom)
	require.NoError(t, sender.Send(context.Background(), mail.Message{To: to}))

	require.Equal(t, okBefore+1, testutil.ToFloat64(obs.MailSendTotal.WithLabelValues("notification", "ok")))
	require.Equal(t, errBefore+1, testutil.ToFloat64(obs.MailSendTotal.WithLabelValues("auto_reply", "error")))
	require.Equal(t, untaggedBefore+1, testutil.ToFloat64(obs.MailSendTotal.WithLabelValues("untagged", "ok")))
	require.Len(t, rec.Outbox(), 3)
}

func TestRecorderTagged(t *testing.T) {
	sent := make(chan mail.Message, 2)
	rec := &mail.Recorder{Sent: sent}
	require.NoError(t, rec.Send(context.Background(), mail.Message{Tag: "notification"}))
	require.NoError(t, rec.Send(context.Background(), mail.Message{Tag: "auto_reply"}))

	require.Equal(t, "notification", (<-sent).Tag)
	require.Equal(t, "auto_reply", (<-sent).Tag)
	require.Len(t, rec.Tagged("auto_reply"), 1)
	require.Empty(t, rec.Tagged("digest"))
}
