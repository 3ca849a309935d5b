package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"rentcar-intake/internal/apperr"
)

func TestRespondErrorStatusAndMessage(t *testing.T) {
	boom := errors.New("disk I/O error")
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", &apperr.ValidationError{Fields: map[string]string{"main_driver_name": "required"}, Lang: "en"}, http.StatusBadRequest, "Missing or invalid required fields"},
		{"not found", fmt.Errorf("get: %w", apperr.ErrNotFound), http.StatusNotFound, "Client non trouvé"},
		{"insert", &apperr.PersistenceError{Op: "insert", Err: boom}, http.StatusInternalServerError, "Erreur lors de l'enregistrement des données"},
		{"reconcile", &apperr.PersistenceError{Op: "reconcile", Err: boom}, http.StatusInternalServerError, "Erreur lors de l'enregistrement des données"},
		{"list", &apperr.PersistenceError{Op: "list", Err: boom}, http.StatusInternalServerError, "Erreur lors de la récupération des clients"},
		{"load extensions", &apperr.PersistenceError{Op: "load extensions", Err: boom}, http.StatusInternalServerError, "Erreur lors de la récupération des clients"},
		{"render", &apperr.RenderError{ClientID: "x", Err: boom}, http.StatusInternalServerError, "Erreur lors de la génération du PDF"},
		{"other", boom, http.StatusInternalServerError, "Erreur lors du traitement de la requête"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, zap.NewNop().Sugar(), tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}
