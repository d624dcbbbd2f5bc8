package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/middleware"
	"infinite-experiment/hangar/internal/services"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// call is one invocation of a named procedure.
type call struct {
	claims auth.UserClaims
	body   []byte
}

type procedureFunc func(ctx context.Context, c *call) (any, error)

type procedure struct {
	admin  bool
	handle procedureFunc
}

type Handlers struct {
	deps       *Dependencies
	procedures map[string]procedure
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	h := &Handlers{deps: deps}
	h.procedures = map[string]procedure{
		"whoami":      {handle: h.whoAmI},
		"check-admin": {handle: h.checkAdmin},

		"get-pilots":     {handle: h.getPilots},
		"register-pilot": {handle: h.registerPilot},
		"update-profile": {handle: h.updateProfile},
		"update-pilot":   {admin: true, handle: h.updatePilot},
		"hide-pilot":     {admin: true, handle: h.hidePilot},
		"link-pilot":     {admin: true, handle: h.linkPilot},

		"get-flights":   {handle: h.getFlights},
		"get-flight":    {handle: h.getFlight},
		"create-flight": {handle: h.createFlight},
		"update-flight": {handle: h.updateFlight},
		"delete-flight": {admin: true, handle: h.deleteFlight},

		"get-aircraft": {handle: h.getAircraft},

		"get-safety-reports":   {handle: h.getSafetyReports},
		"create-safety-report": {handle: h.createSafetyReport},
		"review-safety-report": {admin: true, handle: h.reviewSafetyReport},

		"get-route-targets":   {handle: h.getRouteTargets},
		"upsert-route-target": {admin: true, handle: h.upsertRouteTarget},
		"get-route-stats":     {handle: h.getRouteStats},
	}
	return h
}

// Procedures lists the registered procedure names.
func (h *Handlers) Procedures() []string {
	names := make([]string, 0, len(h.procedures))
	for name := range h.procedures {
		names = append(names, name)
	}
	return names
}

// InvokeProcedure handles POST /functions/v1/{procedure}. Admin procedures run
// behind RequireAdmin.
func (h *Handlers) InvokeProcedure() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "procedure")
		proc, ok := h.procedures[name]
		if !ok {
			common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeUnknownProc)+": "+name, http.StatusNotFound)
			return
		}

		var handler http.Handler = h.serve(name, proc.handle)
		if proc.admin {
			handler = middleware.RequireAdmin(h.deps.Services.Admin)(handler)
		}
		handler.ServeHTTP(w, r)
	}
}

func (h *Handlers) serve(name string, fn procedureFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeUnauthenticated), http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeInvalidBody), http.StatusBadRequest)
			return
		}

		data, err := fn(r.Context(), &call{claims: claims, body: body})
		if err != nil {
			respondServiceError(w, name, err)
			return
		}
		common.RespondSuccess(w, data)
	}
}

// bind decodes the request body into T. An empty body is the zero value.
func bind[T any](c *call) (T, error) {
	var req T
	if len(bytes.TrimSpace(c.body)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(c.body, &req); err != nil {
		return req, &services.ServiceError{
			Code:    constants.ErrCodeInvalidBody,
			Message: constants.GetErrorMessage(constants.ErrCodeInvalidBody),
			Err:     err,
		}
	}
	return req, nil
}

func (h *Handlers) actor(ctx context.Context, c *call) (services.Actor, error) {
	return h.deps.Services.Pilots.ResolveActor(ctx, c.claims)
}
