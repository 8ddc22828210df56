package mail

import (
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComposeHeadersAndParts(t *testing.T) {
	msg := Message{
		Tag:     "auto_reply",
		From:    Address{Name: "赛格鞋业 SAIGE Footwear", Email: "web@saige.example"},
		To:      Address{Email: "ana@example.com"},
		ReplyTo: Address{Email: "sales@saige.example"},
		Subject: "我们已收到您的来信 | We received your message",
		Text:    "您好 Ana：\n感谢您的来信！",
		HTML:    "<p>您好 Ana：</p>",
	}
	date := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	raw, err := Compose(msg, date, "<id-1@saige.example>")
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	require.Equal(t, msg.Subject, subject)

	from, err := parsed.Header.AddressList("From")
	require.NoError(t, err)
	require.Equal(t, "赛格鞋业 SAIGE Footwear", from[0].Name)
	require.Equal(t, "web@saige.example", from[0].Address)
	require.Equal(t, "<sales@saige.example>", parsed.Header.Get("Reply-To"))
	require.Equal(t, "<ana@example.com>", parsed.Header.Get("To"))
	require.Equal(t, "<id-1@saige.example>", parsed.Header.Get("Message-ID"))
	require.Equal(t, "1.0", parsed.Header.Get("MIME-Version"))
	sent, err := parsed.Header.Date()
	require.NoError(t, err)
	require.True(t, sent.Equal(date))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])
	var bodies []string
	var types []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		types = append(types, part.Header.Get("Content-Type"))
		bodies = append(bodies, string(data))
	}
	require.Equal(t, []string{"text/plain; charset=utf-8", "text/html; charset=utf-8"}, types)
	require.Equal(t, "您好 Ana：\r\n感谢您的来信！", bodies[0])
	require.Equal(t, "<p>您好 Ana：</p>", bodies[1])
}

func TestComposeStripsHeaderInjection(t *testing.T) {
	msg := Message{
		From:    Address{Email: "web@saige.example"},
		To:      Address{Email: "sales@saige.example"},
		Subject: "New message from Eve\r\nBcc: victim@example.com",
		Text:    "hi",
	}
	raw, err := Compose(msg, time.Now(), "")
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	require.Empty(t, parsed.Header.Get("Bcc"))
	require.Empty(t, parsed.Header.Get("Message-ID"))
	require.Contains(t, parsed.Header.Get("Subject"), "Bcc: victim@example.com")
}

func TestComposeRequiresRecipient(t *testing.T) {
	_, err := Compose(Message{From: Address{Email: "web@saige.example"}}, time.Now(), "")
	require.ErrorIs(t, err, ErrNoRecipient)
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID("web@saige.example")
	require.True(t, strings.HasPrefix(id, "<"))
	require.True(t, strings.HasSuffix(id, "@saige.example>"))
	require.NotEqual(t, id, NewMessageID("web@saige.example"))
	require.True(t, strings.HasSuffix(NewMessageID(""), "@localhost>"))
}

func TestAddressString(t *testing.T) {
	require.Equal(t, "<ana@example.com>", Address{Email: "ana@example.com"}.String())
	require.Equal(t, `"Website Contact" <web@saige.example>`, Address{Name: "Website Contact", Email: "web@saige.example"}.String())
	require.Equal(t, "ana@example.com", Address{Email: "ana@example.com"}.envelope())
}

func TestComposeQuotesUnusualLocalParts(t *testing.T) {
	for _, email := range []string{"a,b@c.io", "a<b@c.io"} {
		t.Run(email, func(t *testing.T) {
			raw, err := Compose(Message{
				From:    Address{Email: "web@saige.example"},
				To:      Address{Email: "sales@saige.example"},
				ReplyTo: Address{Email: email},
				Text:    "hi",
			}, time.Now(), "")
			require.NoError(t, err)

			parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
			require.NoError(t, err)
			replyTo, err := parsed.Header.AddressList("Reply-To")
			require.NoError(t, err)
			require.Len(t, replyTo, 1)
			require.Equal(t, email, replyTo[0].Address)
		})
	}
}

func TestComposeFoldsLongSubjects(t *testing.T) {
	cases := map[string]string{
		"ascii": strings.Repeat("a", 2000),
		"cjk":   strings.Repeat("张", 400),
		"words": strings.Repeat("Ana Maria ", 150),
		"mixed": strings.Repeat("x_y=z?", 50) + " 赛格 " + strings.Repeat("b", 90),
	}
	for name, visitor := range cases {
		t.Run(name, func(t *testing.T) {
			subject := "New message from " + visitor
			raw, err := Compose(Message{
				From:    Address{Name: "Website Contact", Email: "web@saige.example"},
				To:      Address{Email: "sales@saige.example"},
				Subject: subject,
				Text:    "hi",
			}, time.Now(), "<id-1@saige.example>")
			require.NoError(t, err)

			head, _, found := strings.Cut(string(raw), "\r\n\r\n")
			require.True(t, found)
			for _, line := range strings.Split(head, "\r\n") {
				require.LessOrEqual(t, len(line), 998, line)
			}

			parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
			require.NoError(t, err)
			decoded, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
			require.NoError(t, err)
			require.Equal(t, strings.TrimSpace(subject), decoded)
		})
	}
}
