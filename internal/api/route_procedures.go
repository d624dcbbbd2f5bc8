package api

import (
	"context"

	"infinite-experiment/hangar/internal/models/dtos"
)

func (h *Handlers) getRouteTargets(ctx context.Context, c *call) (any, error) {
	return h.deps.Services.RouteTargets.List(ctx)
}

func (h *Handlers) upsertRouteTarget(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.UpsertRouteTargetRequest](c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.RouteTargets.Upsert(ctx, req)
}

func (h *Handlers) getRouteStats(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.RouteStatsRequest](c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.RouteTargets.Stats(ctx, req)
}
