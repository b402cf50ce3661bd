package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/advolink/advolink/internal/database"
)

// BrokerPinger reports broker reachability.
type BrokerPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles service health and readiness checks
type HealthHandler struct {
	db        *database.MongoDB
	broker    BrokerPinger
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.MongoDB, broker BrokerPinger, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		broker:    broker,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	MongoDB       string `json:"mongodb"`
	Broker        string `json:"broker"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Ready   bool   `json:"ready"`
	MongoDB string `json:"mongodb"`
	Broker  string `json:"broker"`
}

// Health returns the service health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	mongoStatus := "connected"
	if err := h.db.Client.Ping(r.Context(), nil); err != nil {
		mongoStatus = "disconnected"
	}

	brokerStatus := "connected"
	if err := h.broker.Ping(r.Context()); err != nil {
		brokerStatus = "disconnected"
	}

	response := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		MongoDB:       mongoStatus,
		Broker:        brokerStatus,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	writeJSON(w, http.StatusOK, response)
}

// Ready returns the service readiness status. A server that cannot reach the
// broker cannot answer its gateway-backed endpoints, so it is not ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ready := true

	mongoStatus := "connected"
	if err := h.db.Client.Ping(r.Context(), nil); err != nil {
		ready = false
		mongoStatus = "disconnected"
	}

	brokerStatus := "connected"
	if err := h.broker.Ping(r.Context()); err != nil {
		ready = false
		brokerStatus = "disconnected"
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadyResponse{
		Ready:   ready,
		MongoDB: mongoStatus,
		Broker:  brokerStatus,
	}

	writeJSON(w, statusCode, response)
}
