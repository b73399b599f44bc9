package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrDisputeNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCommunityNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorizedActor),
		errors.Is(err, domain.ErrSolverNotAuthorized),
		errors.Is(err, domain.ErrUserBanned):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrDisputeAlreadyOpen),
		errors.Is(err, domain.ErrDisputeAlreadySolved),
		errors.Is(err, domain.ErrConcurrentModification),
		errors.Is(err, domain.ErrCooperativeCancelPending),
		errors.Is(err, domain.ErrInvoiceNotHeld),
		errors.Is(err, domain.ErrDuplicateHash):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidCommunity),
		errors.Is(err, domain.ErrInvalidInvoice),
		errors.Is(err, domain.ErrCurrencyNotAllowed),
		errors.Is(err, domain.ErrInvalidRuling):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPaymentNetworkUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, response.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
