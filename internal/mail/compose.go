package mail

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

var headerSanitizer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

const (
	// foldWidth is the soft line limit for header lines, excluding CRLF.
	foldWidth = 76
	// maxWordPayload keeps each encoded-word within 75 octets.
	maxWordPayload = 75 - len("=?utf-8?q??=")
)

// Compose renders msg as an RFC 5322 message with a multipart/alternative body.
func Compose(msg Message, date time.Time, messageID string) ([]byte, error) {
	if strings.TrimSpace(msg.To.Email) == "" {
		return nil, ErrNoRecipient
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := writePart(mw, "text/plain; charset=utf-8", msg.Text); err != nil {
		return nil, fmt.Errorf("mail: write text part: %w", err)
	}
	if msg.HTML != "" {
		if err := writePart(mw, "text/html; charset=utf-8", msg.HTML); err != nil {
			return nil, fmt.Errorf("mail: write html part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("mail: close multipart: %w", err)
	}

	var out bytes.Buffer
	writeHeader(&out, "From", msg.From.String())
	writeHeader(&out, "To", msg.To.String())
	if msg.ReplyTo.Email != "" {
		writeHeader(&out, "Reply-To", msg.ReplyTo.String())
	}
	writeHeader(&out, "Subject", encodeSubject(msg.Subject))
	writeHeader(&out, "Date", date.Format(time.RFC1123Z))
	if messageID != "" {
		writeHeader(&out, "Message-ID", messageID)
	}
	writeHeader(&out, "MIME-Version", "1.0")
	writeHeader(&out, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary()))
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// NewMessageID returns a globally unique Message-ID scoped to the sender's domain.
func NewMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// writeHeader writes one header field, folding it at whitespace so no line
// runs past foldWidth unless a single word is longer.
func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteByte(':')
	lineLen := len(key) + 1
	wordsOnLine := 0
	for _, word := range strings.Split(headerSanitizer.Replace(value), " ") {
		if word == "" {
			continue
		}
		if wordsOnLine > 0 && lineLen+1+len(word) > foldWidth {
			buf.WriteString("\r\n")
			lineLen, wordsOnLine = 0, 0
		}
		buf.WriteByte(' ')
		buf.WriteString(word)
		lineLen += 1 + len(word)
		wordsOnLine++
	}
	buf.WriteString("\r\n")
}

// encodeSubject applies RFC 2047 Q encoding and splits any remaining word too
// long to fold into a run of encoded-words, which decoders rejoin without spaces.
func encodeSubject(subject string) string {
	words := strings.Split(mime.QEncoding.Encode("utf-8", headerSanitizer.Replace(subject)), " ")
	for i, word := range words {
		if len(word) > foldWidth-1 {
			words[i] = qEncodeWords(word)
		}
	}
	return strings.Join(words, " ")
}

// qEncodeWords encodes printable ASCII s as space-separated encoded-words.
func qEncodeWords(s string) string {
	var (
		out     strings.Builder
		payload strings.Builder
	)
	flush := func() {
		if payload.Len() == 0 {
			return
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString("=?utf-8?q?")
		out.WriteString(payload.String())
		out.WriteString("?=")
		payload.Reset()
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		token := string(c)
		if !isQSafe(c) {
			token = fmt.Sprintf("=%02X", c)
		}
		if payload.Len()+len(token) > maxWordPayload {
			flush()
		}
		payload.WriteString(token)
	}
	flush()
	return out.String()
}

func isQSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!*+-/", c) >= 0
}

func writePart(mw *multipart.Writer, contentType, content string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}
