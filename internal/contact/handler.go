package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/saige-footwear/contact-relay/internal/common"
	"github.com/saige-footwear/contact-relay/internal/obs"
)

// Client-facing messages.
const (
	msgMethodNotAllowed = "Method not allowed"
	msgMissingFields    = "Missing fields"
	msgInvalidEmail     = "Invalid email"
	msgSendFailed       = "Email send failed"
)

// Submitter processes one decoded submission.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (Outcome, error)
}

// Handler exposes the relay over HTTP.
type Handler struct {
	Svc    Submitter
	Logger zerolog.Logger
}

// ServeHTTP accepts POST submissions and answers CORS preflights.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		h.writeError(w, h.Logger, ErrMethodNotAllowed)
		return
	}

	log := h.Logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Err(fmt.Errorf("%v", rec)).Msg("send-email panic")
			obs.ObserveSubmission("internal_error")
			common.JSONError(w, http.StatusInternalServerError, msgSendFailed)
		}
	}()

	sub := decodeSubmission(r)
	outcome, err := h.Svc.Submit(r.Context(), sub)
	if err != nil {
		h.writeError(w, log, err)
		return
	}
	obs.ObserveSubmission(outcome.String())
	common.JSONOK(w)
}

func (h *Handler) writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var deliveryErr *DeliveryError
	switch {
	case errors.Is(err, ErrMethodNotAllowed):
		w.Header().Set("Allow", http.MethodPost)
		obs.ObserveSubmission("method_not_allowed")
		common.JSONError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	case errors.Is(err, ErrMissingFields):
		obs.ObserveSubmission(MissingFields.String())
		common.JSONError(w, http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, ErrInvalidEmail):
		obs.ObserveSubmission(InvalidEmail.String())
		common.JSONError(w, http.StatusBadRequest, msgInvalidEmail)
	case errors.As(err, &deliveryErr):
		log.Error().Err(deliveryErr.Err).Msg("send-email error")
		obs.ObserveSubmission("delivery_failed")
		common.JSONError(w, http.StatusInternalServerError, msgSendFailed)
	default:
		log.Error().Err(err).Msg("send-email error")
		obs.ObserveSubmission("internal_error")
		common.JSONError(w, http.StatusInternalServerError, msgSendFailed)
	}
}

// decodeSubmission reads the JSON body. An absent or malformed body yields an
// empty submission, which validation then rejects.
func decodeSubmission(r *http.Request) Submission {
	var sub Submission
	if r.Body == nil {
		return sub
	}
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		return Submission{}
	}
	return sub
}
