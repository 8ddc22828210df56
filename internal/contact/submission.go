package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// local@domain.tld where no part contains "@" or whitespace (including the
	// Unicode spaces browsers treat as whitespace).
	emailPattern = regexp.MustCompile(`^` + addrPart + `@` + addrPart + `\.` + addrPart + `$`)
	errNotScalar = errors.New("contact: form value must be a string, number or boolean")
)

const addrPart = `[^\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}@]+`

// Submission is one contact form post.
type Submission struct {
	Name     FormText `json:"name"`
	Email    FormText `json:"email"`
	Message  FormText `json:"message"`
	Honeypot FormText `json:"honeypot"`
}

// Trapped reports whether the hidden honeypot field was filled in.
func (s Submission) Trapped() bool {
	return s.Honeypot != ""
}

// Validate checks required fields and returns the trimmed visitor address.
func (s Submission) Validate() (string, error) {
	if s.Name == "" || s.Email == "" || s.Message == "" {
		return "", ErrMissingFields
	}
	email := strings.TrimSpace(string(s.Email))
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// FormText is a form value that tolerates scalar JSON types. Strings are kept
// verbatim, numbers keep their literal text, true becomes "true", and false,
// null or a numeric zero read as empty.
type FormText string

// UnmarshalJSON implements json.Unmarshaler.
func (t *FormText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = FormText(s)
	case data[0] == '{' || data[0] == '[':
		return errNotScalar
	default:
		if f, err := strconv.ParseFloat(string(data), 64); err == nil && f == 0 {
			*t = ""
			return nil
		}
		*t = FormText(data)
	}
	return nil
}
