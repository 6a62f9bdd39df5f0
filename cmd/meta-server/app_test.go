package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preparedApp(t *testing.T) *App {
	t.Helper()

	app := NewApp()
	require.NoError(t, app.Prep())

	return app
}

func postExtract(t *testing.T, app *App, body string) (*httptest.ResponseRecorder, ExtractResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(body))
	rec := httptest.NewRecorder()

	app.handleExtract(rec, req)

	resp := ExtractResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return rec, resp
}

func TestHandleExtract(t *testing.T) {
	save := filepath.Join(t.TempDir(), "save.txt")
	require.NoError(t, os.WriteFile(save, []byte("origin_shattered_ring\nalloys = 50\nenergy = 50"), 0o644))

	app := preparedApp(t)

	reqBody, err := json.Marshal(ExtractRequest{SavePath: save})
	require.NoError(t, err)

	rec, _ := postExtract(t, app, string(reqBody))
	require.Equal(t, http.StatusOK, rec.Code)

	// decode the raw payload; Signals flattens its flags on marshal
	payload := struct {
		Signals map[string]interface{} `json:"signals"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.Equal(t, true, payload.Signals["shattered_ring_origin"])
	assert.Equal(t, 0.5, payload.Signals["alloy_density"])
	assert.Equal(t, 50.0, payload.Signals["our_total_economy"])
}

func TestHandleExtract_MissingSavePath(t *testing.T) {
	app := preparedApp(t)

	rec, resp := postExtract(t, app, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must specify save_path", resp.Error)
}

func TestHandleExtract_BadBody(t *testing.T) {
	app := preparedApp(t)

	rec, resp := postExtract(t, app, "not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleExtract_MissingSave(t *testing.T) {
	app := preparedApp(t)

	body, err := json.Marshal(ExtractRequest{SavePath: filepath.Join(t.TempDir(), "missing.sav")})
	require.NoError(t, err)

	rec, resp := postExtract(t, app, string(body))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleExtract_MethodNotAllowed(t *testing.T) {
	app := preparedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/extract", nil)
	rec := httptest.NewRecorder()

	app.handleExtract(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealthz(t *testing.T) {
	app := preparedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	app.handleHealthz(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}
