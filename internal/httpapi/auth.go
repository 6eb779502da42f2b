package httpapi

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/mailer"
	"github.com/gatehouse-io/gatehouse/pkg/session"
)

func passwordResetEmail(baseURL, to, token string) (mailer.SendParams, error) {
	return mailer.PasswordResetEmail(to, baseURL+"?token="+url.QueryEscape(token))
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
}

func (d Deps) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := d.Password.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	if _, err := d.Sessions.Authenticate(r.Context(), w, r, user.ID); err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}

func (d Deps) signin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := d.Password.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	if _, err := d.Sessions.Authenticate(r.Context(), w, r, user.ID); err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}

func (d Deps) signout(w http.ResponseWriter, r *http.Request) {
	if err := d.Sessions.Destroy(r.Context(), w, r); err != nil {
		respondMappedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (d Deps) sessionInfo(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok || !s.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		UserID:    *s.UserID,
		ExpiresAt: s.ExpiresAt,
	})
}

type passwordResetRequestBody struct {
	Email string `json:"email"`
}

// passwordResetRequest always answers 202: whether the address exists is
// never revealed to the caller.
func (d Deps) passwordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequestBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	reset, err := d.Password.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		d.Logger.InfoContext(r.Context(), "password reset for unknown address",
			slog.String("email", req.Email),
		)
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	email, err := passwordResetEmail(d.ResetBaseURL, reset.Email, reset.Token)
	if err == nil {
		err = d.Mailer.SendEmail(r.Context(), email)
	}
	if err != nil {
		d.Logger.ErrorContext(r.Context(), "failed to send reset email",
			slog.String("email", reset.Email),
			slog.Any("error", err),
		)
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type passwordResetConfirmBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (d Deps) passwordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := d.Password.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName})
}

type mfaEnrollBody struct {
	FriendlyName string `json:"friendly_name"`
}

type mfaEnrollResponse struct {
	FactorID uuid.UUID `json:"factor_id"`
	Secret   string    `json:"secret"`
	URI      string    `json:"uri"`
	QRCode   []byte    `json:"qr_code"` // base64 PNG via JSON encoding
}

func (d Deps) mfaEnroll(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	var req mfaEnrollBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := d.Password.User(r.Context(), userID)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	enrollment, err := d.MFA.Enroll(r.Context(), userID, user.Email, req.FriendlyName)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, mfaEnrollResponse{
		FactorID: enrollment.Factor.ID,
		Secret:   enrollment.Factor.Secret,
		URI:      enrollment.URI,
		QRCode:   enrollment.QRCode,
	})
}

type mfaVerifyBody struct {
	Code string `json:"code"`
}

func (d Deps) mfaVerify(w http.ResponseWriter, r *http.Request) {
	factorID, err := uuid.Parse(chi.URLParam(r, "factorID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid factor id")
		return
	}

	var req mfaVerifyBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := d.MFA.Verify(r.Context(), factorID, req.Code); err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type mfaFactorResponse struct {
	ID           uuid.UUID `json:"id"`
	FriendlyName string    `json:"friendly_name,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

func (d Deps) mfaList(w http.ResponseWriter, r *http.Request) {
	factors, err := d.MFA.List(r.Context(), currentUserID(r))
	if err != nil {
		respondMappedError(w, err)
		return
	}

	out := make([]mfaFactorResponse, 0, len(factors))
	for _, f := range factors {
		out = append(out, mfaFactorResponse{
			ID:           f.ID,
			FriendlyName: f.FriendlyName,
			Verified:     f.Verified,
			CreatedAt:    f.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, out)
}

func (d Deps) mfaUnenroll(w http.ResponseWriter, r *http.Request) {
	factorID, err := uuid.Parse(chi.URLParam(r, "factorID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid factor id")
		return
	}

	if err := d.MFA.Unenroll(r.Context(), currentUserID(r), factorID); err != nil {
		respondMappedError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// currentUserID reads the authenticated user from the request context.
// Routes calling it sit behind RequireAuth, so the session is present.
func currentUserID(r *http.Request) uuid.UUID {
	s, _ := session.FromContext(r.Context())
	return *s.UserID
}
