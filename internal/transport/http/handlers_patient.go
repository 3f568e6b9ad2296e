package http

import (
	"net/http"

	"healthfirst/internal/domain"
	"healthfirst/internal/registration"
)

func (h *Handler) registerPatient(w http.ResponseWriter, r *http.Request) {
	var in registration.PatientInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	in.ClientIP = clientIP(r)
	in.UserAgent = r.UserAgent()

	result, err := h.registration.RegisterPatient(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated,
		"Registration successful. Please check your email to verify your account.", result)
}

func (h *Handler) loginPatient(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.KindPatient)
}
