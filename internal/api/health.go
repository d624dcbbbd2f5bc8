package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"infinite-experiment/hangar/internal/models/dtos"
)

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(deps *Dependencies, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services := make(map[string]dtos.ServiceStatus)

		// Check postgres
		pgstatus := "ok"
		pgDetails := "Postgres Connected"
		if err := deps.SQL.PingContext(ctx); err != nil {
			pgstatus = "down"
			pgDetails = err.Error()
		}
		services["postgres"] = dtos.ServiceStatus{
			Status:  pgstatus,
			Details: pgDetails,
		}

		if deps.Redis != nil {
			redisStatus := dtos.ServiceStatus{Status: "ok", Details: "Redis Connected"}
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				redisStatus = dtos.ServiceStatus{Status: "down", Details: err.Error()}
			}
			services["redis"] = redisStatus
		}

		if deps.Hub != nil {
			services["realtime"] = dtos.ServiceStatus{
				Status:  "ok",
				Details: "active subscriptions: " + strconv.Itoa(deps.Hub.Count()),
			}
		}

		overallStatus := "ok"
		statusCode := http.StatusOK
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		resp := dtos.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
