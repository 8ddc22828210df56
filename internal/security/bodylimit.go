package security

import (
	"bytes"
	"io"
	"net/http"

	"github.com/saige-footwear/contact-relay/internal/common"
)

const msgPayloadTooLarge = "Payload too large"

// BodyLimit caps the size of a submission body.
type BodyLimit struct {
	Max int64
}

// Middleware rejects bodies over Max with 413 and a JSON error. Accepted bodies
// are buffered so the handler reads them from memory.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, msgPayloadTooLarge)
			return
		}

		buf, err := io.ReadAll(io.LimitReader(r.Body, b.Max+1))
		_ = r.Body.Close()
		if err != nil {
			// Unreadable bodies decode as empty submissions downstream.
			buf = nil
		}
		if int64(len(buf)) > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, msgPayloadTooLarge)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}
