package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"rentcar-intake/internal/apperr"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// respondError maps the intake error kinds to a status and a {"error": ...} body.
func respondError(w http.ResponseWriter, lg *zap.SugaredLogger, err error) {
	var (
		ve *apperr.ValidationError
		pe *apperr.PersistenceError
		re *apperr.RenderError
	)
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Message(), "fields": ve.Fields})
	case errors.Is(err, apperr.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Client non trouvé"})
	case errors.As(err, &pe):
		lg.Errorw("request failed", "op", pe.Op, "error", err)
		msg := "Erreur lors de la récupération des clients"
		if pe.Write() {
			msg = "Erreur lors de l'enregistrement des données"
		}
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
	case errors.As(err, &re):
		lg.Errorw("request failed", "client_id", re.ClientID, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Erreur lors de la génération du PDF"})
	default:
		lg.Errorw("request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Erreur lors du traitement de la requête"})
	}
}
