package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"healthfirst/internal/domain"
	"healthfirst/internal/registration"
	pkgerrors "healthfirst/pkg/errors"
)

func (h *Handler) registerProvider(w http.ResponseWriter, r *http.Request) {
	var in registration.ProviderInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	in.ClientIP = clientIP(r)
	in.UserAgent = r.UserAgent()

	result, err := h.registration.RegisterProvider(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated,
		"Registration successful. Please check your email to verify your account.", result)
}

func (h *Handler) loginProvider(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.KindProvider)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, kind domain.Kind) {
	var in loginRequest
	if err := decode(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.registration.Login(r.Context(), kind, in.Email, in.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful", result)
}

func (h *Handler) getProvider(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, pkgerrors.New(pkgerrors.CodeInvalidInput, "Invalid record id"))
		return
	}
	rec, err := h.registration.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rec.Kind != domain.KindProvider {
		writeError(w, h.logger, pkgerrors.New(pkgerrors.CodeNotFound, "Record not found"))
		return
	}
	writeSuccess(w, http.StatusOK, "ok", rec)
}

func (h *Handler) listSpecializations(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, "ok", domain.Specializations())
}
