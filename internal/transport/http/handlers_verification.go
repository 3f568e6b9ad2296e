package http

import "net/http"

type verifyRequest struct {
	Token string `json:"token"`
}

type resendRequest struct {
	Email string `json:"email"`
}

// verifyEmail redeems a verification token. The token may also arrive as a
// query parameter so emailed links can post through a thin frontend.
func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var in verifyRequest
	// The body is optional when the token rides in the query string.
	_ = decode(r, &in)
	if in.Token == "" {
		in.Token = r.URL.Query().Get("token")
	}

	rec, err := h.verification.Redeem(r.Context(), in.Token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Email verified successfully", map[string]any{
		"id":                  rec.ID,
		"email":               rec.Email,
		"verified":            rec.EmailVerified,
		"verification_status": rec.Status,
	})
}

// resendVerification always answers success-shaped so the endpoint cannot be
// used to probe which emails are registered.
func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var in resendRequest
	if err := decode(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.verification.Resend(r.Context(), in.Email); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK,
		"If the email address is registered and unverified, a new verification email has been sent.", nil)
}
