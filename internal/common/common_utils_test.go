package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, "", BearerToken(req))

	req.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", BearerToken(req))

	req.Header.Set("Authorization", "bearer xyz")
	assert.Equal(t, "xyz", BearerToken(req))

	req.Header.Set("Authorization", "Basic Zm9v")
	assert.Equal(t, "", BearerToken(req))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:5555"
	assert.Equal(t, "10.0.0.5", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "10.0.0.5", ClientIP(req))
}

func TestRespondEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, map[string]int{"n": 1})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	RespondError(rec, "nope", http.StatusForbidden)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "nope", body["error"])
	_, hasData := body["data"]
	assert.False(t, hasData)
}
