package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke_SendsCredentialsAndDecodesData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/get-flight", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultClientInfo, r.Header.Get("x-client-info"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "f1", body["id"])

		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"f1","route":"A-B"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "anon", WithAccessToken("tok"))

	var out struct {
		ID    string `json:"id"`
		Route string `json:"route"`
	}
	require.NoError(t, c.Invoke(context.Background(), "get-flight", map[string]string{"id": "f1"}, &out))
	assert.Equal(t, "A-B", out.Route)
}

func TestInvoke_RemoteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"envelope error", http.StatusBadRequest, `{"success":false,"error":"tach_end must be greater than or equal to tach_start"}`, "tach_end must be"},
		{"non-json error", http.StatusBadGateway, `<html>bad gateway</html>`, "Bad Gateway"},
		{"success false with 200", http.StatusOK, `{"success":false,"error":"nope"}`, "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(srv.URL, "anon").Invoke(context.Background(), "create-flight", nil, nil)

			var remote *RemoteError
			require.True(t, errors.As(err, &remote))
			assert.Equal(t, tt.status, remote.StatusCode)
			assert.Contains(t, remote.Message, tt.wantMsg)
		})
	}
}

func TestInvoke_UnauthorizedIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"You must be signed in to do that"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "anon").Invoke(context.Background(), "whoami", nil, nil)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestRealtimeURL(t *testing.T) {
	c := New("https://hangar.example.com/", "anon", WithAccessToken("tok"))

	u, err := c.RealtimeURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://hangar.example.com/realtime/v1/websocket?access_token=tok&apikey=anon", u)

	// Without an access token the api key is the bearer.
	u, err = New("http://localhost:8080", "svc").RealtimeURL()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/realtime/v1/websocket?access_token=svc&apikey=svc", u)
}
