package v0

import (
	"net/http"

	"github.com/stacklok/syncpoint-server/internal/api/common"
	"github.com/stacklok/syncpoint-server/internal/logger"
	"github.com/stacklok/syncpoint-server/internal/versions"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status"`
	// ActiveWaits is the number of wait IDs currently awaiting a second
	// party.
	ActiveWaits int `json:"active_waits"`
}

// VersionResponse represents the version information response
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// getHealth handles GET /health
func (*Routes) getHealth(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// getReadiness handles GET /readiness
func (rr *Routes) getReadiness(w http.ResponseWriter, r *http.Request) {
	if err := rr.service.CheckReadiness(r.Context()); err != nil {
		logger.Warnf("Readiness check failed: %v", err)
		common.WriteErrorResponse(w, "Service not ready", http.StatusServiceUnavailable)
		return
	}

	common.WriteJSONResponse(w, ReadinessResponse{
		Status:      "ready",
		ActiveWaits: rr.service.ActiveWaits(),
	}, http.StatusOK)
}

// getVersion handles GET /version
func (*Routes) getVersion(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()
	common.WriteJSONResponse(w, VersionResponse{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		GoVersion: info.GoVersion,
		Platform:  info.Platform,
	}, http.StatusOK)
}
