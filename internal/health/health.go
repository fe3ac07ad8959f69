package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gorm.io/gorm"
)

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status string           `json:"status"`
	DB     DependencyStatus `json:"db"`
}

// DependencyStatus reports one dependency probe.
type DependencyStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
}

const degradedLatency = 250 * time.Millisecond

// Handler returns the /healthz handler probing the media store.
func Handler(db *gorm.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dbStatus := checkDB(r.Context(), db)

		status := "ok"
		code := http.StatusOK
		switch dbStatus.Status {
		case "down":
			status = "down"
			code = http.StatusServiceUnavailable
		case "degraded":
			status = "degraded"
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(HealthResponse{Status: status, DB: dbStatus})
	})
}

func checkDB(ctx context.Context, db *gorm.DB) DependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	latency := time.Since(start)

	status := "ok"
	if err != nil {
		status = "down"
	} else if latency > degradedLatency {
		status = "degraded"
	}
	return DependencyStatus{Status: status, LatencyMs: latency.Milliseconds()}
}
