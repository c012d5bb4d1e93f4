package main

import (
	"net/http"
	"strings"

	"github.com/Simplici0/costcalc/internal/profile"
)

type loginViewData struct {
	baseViewData
	Email string
}

type profileViewData struct {
	baseViewData
	Form profile.Profile
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if isAuthenticated(r, s.auth) {
		http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, "login.html", loginViewData{baseViewData: s.baseView(r)})
}

func (s *server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	valid, err := s.auth.validateCredentials(r.Context(), email, password)
	if err != nil {
		s.log.Error().Err(err).Msg("validate credentials")
		http.Error(w, "authentication error", http.StatusInternalServerError)
		return
	}
	if !valid {
		s.log.Warn().Str("email", email).Msg("login rejected")
		view := loginViewData{baseViewData: s.baseView(r), Email: email}
		view.ErrorMessage = "Invalid email or password."
		s.renderTemplateStatus(w, http.StatusUnauthorized, "login.html", view)
		return
	}

	s.auth.setSessionCookie(w, email)
	http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *server) handleAdminProfileForm(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetOrDefault(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("load clinic profile")
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	view := profileViewData{baseViewData: s.baseView(r), Form: p}
	if r.URL.Query().Get("saved") == "1" {
		view.SuccessMessage = "Profile saved."
	}
	s.renderTemplate(w, "admin_profile.html", view)
}

func (s *server) handleAdminProfileSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := profile.Profile{
		PractitionerName: r.FormValue("practitioner_name"),
		QRFilename:       r.FormValue("qr_filename"),
	}
	if err := form.Validate(); err != nil {
		view := profileViewData{baseViewData: s.baseView(r), Form: form}
		view.ErrorMessage = err.Error()
		s.renderTemplateStatus(w, http.StatusBadRequest, "admin_profile.html", view)
		return
	}

	if err := s.profiles.Update(r.Context(), form); err != nil {
		s.log.Error().Err(err).Msg("update clinic profile")
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}
	s.log.Info().Str("practitioner", form.PractitionerName).Msg("clinic profile updated")

	http.Redirect(w, r, "/admin/profile?saved=1", http.StatusSeeOther)
}
