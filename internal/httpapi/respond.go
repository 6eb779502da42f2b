package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatehouse-io/gatehouse/pkg/auth"
	"github.com/gatehouse-io/gatehouse/pkg/profile"
	"github.com/gatehouse-io/gatehouse/pkg/session"
	"github.com/gatehouse-io/gatehouse/pkg/storage"
	"github.com/gatehouse-io/gatehouse/pkg/validator"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondMappedError translates domain errors into HTTP responses without
// leaking internals: unknown errors become an opaque 500.
func respondMappedError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, ve := range verrs {
			if _, dup := fields[ve.Field]; !dup {
				fields[ve.Field] = ve.Message
			}
		}
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		respondError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenExpired):
		respondError(w, http.StatusBadRequest, "invalid or expired token")
	case errors.Is(err, auth.ErrFactorNotFound):
		respondError(w, http.StatusNotFound, "factor not found")
	case errors.Is(err, auth.ErrFactorNotVerified), errors.Is(err, auth.ErrInvalidCode):
		respondError(w, http.StatusBadRequest, "invalid verification code")
	case errors.Is(err, storage.ErrFileTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "file exceeds the 2 MiB limit")
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmptyFile):
		respondError(w, http.StatusBadRequest, "unsupported or empty image")
	case errors.Is(err, profile.ErrProfileNotFound):
		respondError(w, http.StatusNotFound, "profile not found")
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired):
		respondError(w, http.StatusUnauthorized, "authentication required")
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
