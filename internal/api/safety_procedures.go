package api

import (
	"context"

	"infinite-experiment/hangar/internal/models/dtos"
)

func (h *Handlers) getSafetyReports(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.ListSafetyReportsRequest](c)
	if err != nil {
		return nil, err
	}
	actor, err := h.actor(ctx, c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.SafetyReports.List(ctx, actor, req)
}

func (h *Handlers) createSafetyReport(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.CreateSafetyReportRequest](c)
	if err != nil {
		return nil, err
	}
	actor, err := h.actor(ctx, c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.SafetyReports.Create(ctx, actor, req)
}

func (h *Handlers) reviewSafetyReport(ctx context.Context, c *call) (any, error) {
	req, err := bind[dtos.ReviewSafetyReportRequest](c)
	if err != nil {
		return nil, err
	}
	actor, err := h.actor(ctx, c)
	if err != nil {
		return nil, err
	}
	return h.deps.Services.SafetyReports.Review(ctx, actor, req)
}
