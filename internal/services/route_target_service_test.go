package services

import (
	"context"
	"testing"
	"time"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/models/dtos"
	gormModels "infinite-experiment/hangar/internal/models/gorm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTargetService_Stats(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	ctx := context.Background()

	march := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	flights := []gormModels.Flight{
		{AircraftID: "ac-1", PilotID: "p-1", Date: march, Route: "KPAO-KSQL", HobbsTime: 2.0},
		{AircraftID: "ac-1", PilotID: "p-1", Date: march.AddDate(0, 0, 1), Route: "KPAO-KSQL", HobbsTime: 3.0},
		{AircraftID: "ac-2", PilotID: "p-2", Date: march, Route: "KPAO-KSQL", HobbsTime: 9.0},
		{AircraftID: "ac-1", PilotID: "p-1", Date: march.AddDate(0, 1, 0), Route: "KPAO-KSQL", HobbsTime: 9.0},
	}
	for i := range flights {
		require.NoError(t, stack.db.Create(&flights[i]).Error)
	}

	_, err := stack.targets.Upsert(ctx, dtos.UpsertRouteTargetRequest{Route: "KPAO-KSQL", TargetTime: 4.0})
	require.NoError(t, err)
	_, err = stack.targets.Upsert(ctx, dtos.UpsertRouteTargetRequest{
		Route: "KPAO-KSQL", TargetTime: 2.0, AircraftID: strPtr("ac-1"), PilotID: strPtr("p-1"),
	})
	require.NoError(t, err)

	got, err := stack.targets.Stats(ctx, dtos.RouteStatsRequest{
		AircraftID: strPtr("ac-1"), PilotID: strPtr("p-1"), Month: intPtr(3), Year: intPtr(2024),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].FlightCount)
	assert.InDelta(t, 2.5, got[0].AverageHobbs, 1e-9)
	assert.InDelta(t, 0.5, got[0].VarianceFromTarget, 1e-9)
	assert.Equal(t, "25% over", got[0].FormattedPercentFromTarget)

	_, err = stack.targets.Stats(ctx, dtos.RouteStatsRequest{Month: intPtr(3)})
	assert.Equal(t, constants.ErrCodeValidation, CodeOf(err))

	all, err := stack.targets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRouteTargetService_UpsertValidation(t *testing.T) {
	stack := newTestStack(t, nil, nil)

	_, err := stack.targets.Upsert(context.Background(), dtos.UpsertRouteTargetRequest{Route: "A-B", TargetTime: 0})
	assert.Equal(t, constants.ErrCodeValidation, CodeOf(err))

	_, err = stack.targets.Upsert(context.Background(), dtos.UpsertRouteTargetRequest{Route: "A-B", TargetTime: 1, Month: intPtr(13)})
	assert.Equal(t, constants.ErrCodeValidation, CodeOf(err))
}
