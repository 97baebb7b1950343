package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(r.Context()).Error(r.Context(), "failed to encode response", "error", err, "status", status)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, dto.ErrorResponse{Success: false, Code: code, Message: message})
}

// HandleError maps service errors onto HTTP statuses. Internal details are
// logged, never sent to the caller.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	log := logging.FromContext(ctx)

	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		log.Warn(ctx, "request body too large", "limit", tooLarge.Limit)
		writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large",
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))

	case errors.Is(err, common.ErrValidation):
		log.Warn(ctx, "validation failed", "error", err)
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())

	case errors.Is(err, common.ErrAlreadyExists):
		log.Warn(ctx, "resource already exists", "error", err)
		writeError(w, r, http.StatusBadRequest, "already_exists", "user already exists")

	case errors.Is(err, common.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, "token_expired", "token expired")

	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid credentials")

	case errors.Is(err, common.ErrorNotFound):
		log.Warn(ctx, "resource not found", "error", err)
		writeError(w, r, http.StatusNotFound, "not_found", "not found")

	default:
		log.Error(ctx, "unexpected error", "error", err, "type", fmt.Sprintf("%T", err))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}

// maxBodyBytes caps a request body; a full GET /expenses page pushed back
// fits well below it.
var maxBodyBytes int64 = 4 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return tooLarge
		}
		return fmt.Errorf("%w: malformed body: %v", common.ErrValidation, err)
	}
	return nil
}
