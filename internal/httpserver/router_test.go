package httpserver

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentcar-intake/internal/config"
	"rentcar-intake/internal/document"
	"rentcar-intake/internal/intake"
	"rentcar-intake/internal/models"
	"rentcar-intake/internal/notify"
	"rentcar-intake/internal/store"
)

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) EnqueueDelivery(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

type testServer struct {
	h     http.Handler
	db    *store.DB
	queue *recordingQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	lg := zap.NewNop().Sugar()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := store.Open(config.DatabaseConfig{Driver: "sqlite", SQLitePath: dsn}, lg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	q := &recordingQueue{}
	p := intake.New(intake.Deps{
		Clients:    db.Clients,
		Reconciler: db.Reconciler,
		Renderer:   document.New(t.TempDir(), lg),
		Notifier:   notify.New(nil, "office@example.pf", lg),
		Dispatcher: q,
		Events:     db.Events,
	}, lg)
	return &testServer{h: NewRouter(p, db, nil, lg), db: db, queue: q}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitFetchExportScenario(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/submit",
		`{"main_driver_name":"Tane","main_driver_firstname":"Hiro","language":"fr","accept_data_processing":true,"main_driver_city":"Uturoa, Raiatea","remarks":"vol \"TN\" 12"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Formulaire soumis avec succès", out.Message)
	require.NotEmpty(t, out.ID)
	assert.Equal(t, []string{out.ID}, s.queue.ids)

	rec = s.do(t, http.MethodGet, "/api/clients/"+out.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Tane", got["main_driver_name"])
	assert.Equal(t, "Hiro", got["main_driver_firstname"])
	assert.Equal(t, `vol "TN" 12`, got["remarks"])
	assert.Equal(t, true, got["accept_data_processing"])

	rec = s.do(t, http.MethodGet, "/api/export/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "clients_")
	rows, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1], "Tane")
	assert.Contains(t, rows[1], "Hiro")
	assert.Contains(t, rows[1], "Uturoa, Raiatea")
	assert.Contains(t, rows[1], `vol "TN" 12`)
}

func TestKeywordFieldDoesNotBreakReads(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/submit", `{"main_driver_name":"Tane","main_driver_firstname":"Hiro","group":"x","order":"2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	rec = s.do(t, http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var all []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "x", all[0]["group"])

	rec = s.do(t, http.MethodGet, "/api/clients/"+out["id"], "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/export/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "group")
}

func TestSubmitMissingNames(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/submit-form", `{"main_driver_name":"Tane","language":"en"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing or invalid required fields")
	assert.Contains(t, rec.Body.String(), "main_driver_firstname")

	rec = s.do(t, http.MethodGet, "/api/clients", "")
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSubmitMalformedBody(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/submit", `{"main_driver_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListClientsNewestFirst(t *testing.T) {
	s := newTestServer(t)
	var ids []string
	for _, name := range []string{"A", "B"} {
		rec := s.do(t, http.MethodPost, "/api/submit", fmt.Sprintf(`{"main_driver_name":%q,"main_driver_firstname":"x"}`, name))
		require.Equal(t, http.StatusOK, rec.Code)
		var out map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		ids = append(ids, out["id"])
	}
	rec := s.do(t, http.MethodGet, "/api/clients", "")
	var all []models.Client
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, ids[1], all[0].ID)
}

func TestUnknownClient(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/clients/nope"},
		{http.MethodGet, "/api/clients/nope/events"},
		{http.MethodGet, "/api/download-pdf/nope"},
		{http.MethodPost, "/api/resend-email/nope"},
	} {
		rec := s.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
	}
}

func TestDownloadResendAndEvents(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/submit", `{"main_driver_name":"Tane","main_driver_firstname":"Hiro","signature_data":"data:image/png;base64,broken"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	id := out["id"]

	rec = s.do(t, http.MethodGet, "/api/download-pdf/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id+"_Tane_Hiro.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(t, http.MethodPost, "/api/resend-email/"+id, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{id, id}, s.queue.ids)

	rec = s.do(t, http.MethodGet, "/api/clients/"+id+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var evs []models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evs))
	var actions []string
	for _, e := range evs {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		models.ActionPersisted, models.ActionEnqueued, models.ActionRendered,
		models.ActionResendRequested, models.ActionEnqueued,
	}, actions)
}

func TestGenerateClientIDAndHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/generate-client-id", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out["clientId"], "_")

	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.NoError(t, s.db.Close())
	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
