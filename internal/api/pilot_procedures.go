package api

import (
	"context"

	"infinite-experiment/hangar/internal/models/dtos"
)

func (h *Handlers) whoAmI(ctx context.Context, c *call) (any, error) {
	return h.deps.Services.Pilots.WhoAmI(ctx, c.claims)
}

// checkAdmin answers from the pilots table, never from token claims.
func (h *Handlers) checkAdmin(ctx context.Context, c *call) (any, error) {
	if c.claims.IsServiceRole() {
		return dtos.AdminCheck{IsAdmin: true}, nil
	}
	isAdmin, err := h.deps.Services.Admin.IsAdmin(ctx, c.claims.UserID())
	if err != nil {
		return nil, err
	}
	return dtos.AdminCheck{IsAdmin: isAdmin}, nil
}

func (h *Handlers) getPilots(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.ListPilotsRequest](c)
	if err != nil {
		return nil, err
	}
	actor, err := h.actor(ctx, c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Pilots.List(ctx, actor, req)
}

func (h *Handlers) registerPilot(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.RegisterPilotRequest](c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Pilots.Register(ctx, c.claims, req)
}

func (h *Handlers) updateProfile(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.UpdateProfileRequest](c)
	if err != nil {
		return nil, err
	}
	actor, err := h.actor(ctx, c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Pilots.UpdateProfile(ctx, actor, req)
}

func (h *Handlers) updatePilot(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.UpdatePilotRequest](c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Pilots.UpdatePilot(ctx, req)
}

func (h *Handlers) hidePilot(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.IDRequest](c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Pilots.Hide(ctx, req)
}

func (h *Handlers) linkPilot(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.LinkPilotRequest](c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Pilots.Link(ctx, req)
}
