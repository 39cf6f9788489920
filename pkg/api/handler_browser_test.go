package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarsy/pkg/engine"
)

func TestCreateGetDeleteBrowser(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/browser/create", `{"image":"custom/browser:latest"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var rc engine.BrowserRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rc))
	assert.Equal(t, "custom/browser:latest", rc.Image)
	assert.Equal(t, engine.BrowserReady, rc.Status)
	assert.Equal(t, engine.BrowserPortDevTools, rc.CDPPort)

	rec = doJSON(t, s, http.MethodGet, "/browser/"+rc.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/browser/"+rc.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/browser/"+rc.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBrowserLeavesImageEmptyWhenOmitted(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/browser/create", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var rc engine.BrowserRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rc))
	assert.Empty(t, rc.Image)
}

func TestDeleteUnknownBrowserReturns404(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodDelete, "/browser/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
