package api

import (
	"context"

	"infinite-experiment/hangar/internal/models/dtos"
)

func (h *Handlers) getFlights(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.ListFlightsRequest](c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Flights.List(ctx, req)
}

func (h *Handlers) getFlight(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.IDRequest](c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Flights.Get(ctx, req)
}

func (h *Handlers) createFlight(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.CreateFlightRequest](c)
	if err != nil {
		return nil, err
	}
	actor, err := h.actor(ctx, c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Flights.Create(ctx, actor, req)
}

func (h *Handlers) updateFlight(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.UpdateFlightRequest](c)
	if err != nil {
		return nil, err
	}
	actor, err := h.actor(ctx, c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.Flights.Update(ctx, actor, req)
}

func (h *Handlers) deleteFlight(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.IDRequest](c)
	if err != nil {
		return nil, err
	}
	if err := h.deps.Services.Flights.Delete(ctx, req); err != nil {
		return nil, err
	}
	return map[string]string{"id": req.ID}, nil
}

func (h *Handlers) getAircraft(ctx context.Context, c *call) (any, error) {
	return h.deps.Services.Aircraft.List(ctx)
}
