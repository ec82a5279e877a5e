// Package httpapi exposes the vault over HTTP: file lifecycle, range-served
// previews and downloads, albums, the recycle bin, and user profiles.
// Handlers translate the services' sentinel errors into coarse HTTP statuses
// and never relay internal failure detail to clients.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mediavault/mediavault/internal/common"
)

// Response is the uniform JSON envelope for every API reply.
type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errorMessages string
	for _, err := range errs {
		errorMessages += err.Field() + ": " + err.Tag() + "; "
	}

	return Response{
		Status: StatusError,
		Error:  errorMessages,
	}
}

func RequestOK(message string, data any) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// pathUUID reads a uuid path segment, rejecting malformed ids before they
// reach the stores, where they would fail the uuid columns' type checks.
func pathUUID(r *http.Request, name string) (string, error) {
	id := r.PathValue(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: malformed %s", common.ErrValidation, name)
	}
	return id, nil
}

// WriteError maps a service error onto the envelope. Validation, ownership,
// and conflict failures surface their message; everything else collapses to
// a generic server error so backend and cryptographic detail never leaks.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		_ = WriteJSON(w, http.StatusBadRequest, GeneralError(err))
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrUnauthorized):
		_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
	case errors.Is(err, common.ErrNotFound):
		_ = WriteJSON(w, http.StatusNotFound, GeneralError(errors.New("not found")))
	case errors.Is(err, common.ErrConflict):
		_ = WriteJSON(w, http.StatusConflict, GeneralError(err))
	default:
		_ = WriteJSON(w, http.StatusInternalServerError, GeneralError(errors.New("internal error")))
	}
}
