package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"infinite-experiment/hangar/internal/client"
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// procedureServer answers each procedure with a canned status and body.
func procedureServer(t *testing.T, routes map[string]func(body []byte) (int, string)) *client.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/functions/v1/"):]
		fn, ok := routes[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"Unknown procedure"}`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		status, out := fn(body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(out))
	}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL, "anon", client.WithAccessToken("tok"))
}

func TestListFlights_PartialEnrichmentIsSuccess(t *testing.T) {
	c := procedureServer(t, map[string]func([]byte) (int, string){
		"get-flights": func([]byte) (int, string) {
			return http.StatusOK, `{"success":true,"data":[
				{"id":"f1","pilot_id":"p1","pilot_name":"Amelia","route":"A-B"},
				{"id":"f2","pilot_id":"p2","pilot_name":"","route":"A-B"}
			]}`
		},
	})

	res := New(c).ListFlights(context.Background(), dtos.ListFlightsRequest{})

	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "Amelia", res.Data[0].PilotName)
	assert.Equal(t, "", res.Data[1].PilotName)
	assert.NoError(t, res.Err())
}

func TestCreateFlight_ValidationErrorBecomesResult(t *testing.T) {
	c := procedureServer(t, map[string]func([]byte) (int, string){
		"create-flight": func(body []byte) (int, string) {
			var req dtos.CreateFlightRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return http.StatusBadRequest, `{"success":false,"error":"Request body is not valid JSON"}`
			}
			if req.TachEnd < req.TachStart {
				return http.StatusBadRequest, `{"success":false,"error":"tach_end must be greater than or equal to tach_start"}`
			}
			return http.StatusOK, `{"success":true,"data":{"id":"new"}}`
		},
	})
	g := New(c)

	res := g.CreateFlight(context.Background(), dtos.FlightInput{
		AircraftID: "a1", Date: time.Now(), TachStart: 10, TachEnd: 9, Route: "A-B",
	})
	assert.False(t, res.Success)
	assert.Equal(t, "tach_end must be greater than or equal to tach_start", res.Error)
	assert.Error(t, res.Err())

	res = g.CreateFlight(context.Background(), dtos.FlightInput{
		AircraftID: "a1", Date: time.Now(), TachStart: 10, TachEnd: 11, Route: "A-B",
	})
	require.True(t, res.Success)
	assert.Equal(t, "new", res.Data.ID)
}

func TestCheckAdmin(t *testing.T) {
	c := procedureServer(t, map[string]func([]byte) (int, string){
		"check-admin": func([]byte) (int, string) {
			return http.StatusOK, `{"success":true,"data":{"is_admin":true}}`
		},
	})

	res := New(c).CheckAdmin(context.Background())
	require.True(t, res.Success)
	assert.True(t, res.Data)
}

func TestTransportFailureBecomesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := New(client.New(url, "anon")).ListAircraft(context.Background())
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.Data)
}

func TestRejectedCredentialsAreFlagged(t *testing.T) {
	c := procedureServer(t, map[string]func([]byte) (int, string){
		"whoami": func([]byte) (int, string) {
			return http.StatusUnauthorized, `{"success":false,"error":"You must be signed in to do that"}`
		},
		"check-admin": func([]byte) (int, string) {
			return http.StatusUnauthorized, `{"success":false,"error":"You must be signed in to do that"}`
		},
		"get-aircraft": func([]byte) (int, string) {
			return http.StatusInternalServerError, `{"success":false,"error":"An unexpected error occurred"}`
		},
	})
	g := New(c)

	who := g.WhoAmI(context.Background())
	assert.False(t, who.Success)
	assert.True(t, who.Unauthorized)
	assert.Equal(t, "You must be signed in to do that", who.Error)

	assert.True(t, g.CheckAdmin(context.Background()).Unauthorized)
	assert.False(t, g.ListAircraft(context.Background()).Unauthorized)
}

func TestNilClient(t *testing.T) {
	var g *Gateway
	require.NotPanics(t, func() { g = New(nil) })

	res := g.WhoAmI(context.Background())
	assert.False(t, res.Success)
	assert.False(t, res.Unauthorized)
	assert.Equal(t, errNoClient, res.Error)
}

func TestUnknownProcedure(t *testing.T) {
	c := procedureServer(t, map[string]func([]byte) (int, string){})

	res := New(c).ListRouteTargets(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, "Unknown procedure", res.Error)
}

type invokerFunc func(ctx context.Context, procedure string, in, out any) error

func (f invokerFunc) Invoke(ctx context.Context, procedure string, in, out any) error {
	return f(ctx, procedure, in, out)
}

func TestPanicsStayInsideTheBoundary(t *testing.T) {
	g := NewWithInvoker(invokerFunc(func(ctx context.Context, procedure string, in, out any) error {
		panic("boom")
	}), nil)

	res := g.WhoAmI(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, "whoami failed unexpectedly", res.Error)
}

func TestContextErrorsAreReadable(t *testing.T) {
	g := NewWithInvoker(invokerFunc(func(ctx context.Context, procedure string, in, out any) error {
		return errors.Join(errors.New("post failed"), context.DeadlineExceeded)
	}), nil)

	res := g.RouteStats(context.Background(), dtos.RouteStatsRequest{})
	assert.False(t, res.Success)
	assert.Equal(t, "The request timed out", res.Error)
}

func TestRequestsCarryTypedInput(t *testing.T) {
	var seen dtos.IDRequest
	g := NewWithInvoker(invokerFunc(func(ctx context.Context, procedure string, in, out any) error {
		assert.Equal(t, "hide-pilot", procedure)
		seen = in.(dtos.IDRequest)
		return nil
	}), nil)

	res := g.HidePilot(context.Background(), "p9")
	assert.True(t, res.Success)
	assert.Equal(t, "p9", seen.ID)
}
