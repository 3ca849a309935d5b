package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"rentcar-intake/internal/intake"
	"rentcar-intake/internal/models"
)

// signatures arrive inline as data URLs
const maxSubmissionBytes = 10 << 20

func Submit(p *intake.Pipeline, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
		var c models.Client
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Requête invalide: " + err.Error()})
			return
		}
		id, err := p.Submit(r.Context(), &c)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		msg := "Formulaire soumis avec succès"
		if c.IsEnglish() {
			msg = "Form submitted successfully"
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": msg, "id": id})
	}
}

func GenerateClientID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"clientId": intake.NewID(time.Now())})
	}
}

func ResendEmail(p *intake.Pipeline, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := p.Resend(r.Context(), id); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusAccepted, map[string]string{"message": "Envoi de l'email programmé", "id": id})
	}
}

func DownloadPDF(p *intake.Pipeline, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, _, err := p.Document(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
		http.ServeFile(w, r, path)
	}
}

// ClientEvents returns the delivery history of one record, oldest first.
func ClientEvents(p *intake.Pipeline, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		evs, err := p.Events(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, evs)
	}
}
