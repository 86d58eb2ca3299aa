// Package v0 provides the REST API handlers for the syncpoint service.
package v0

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/syncpoint-server/internal/api/common"
	"github.com/stacklok/syncpoint-server/internal/logger"
	"github.com/stacklok/syncpoint-server/internal/rendezvous"
	"github.com/stacklok/syncpoint-server/internal/service"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusTimeout = "timeout"
)

// indexMessage is served at the root route.
const indexMessage = "Welcome to Sync Point API"

// WaitResponse is the body returned by the wait endpoint.
type WaitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	// TimeoutDurationSec is only present on timeout responses.
	TimeoutDurationSec int64 `json:"timeout_duration_sec,omitempty"`
}

// Routes defines the routes for the wait API with dependency injection
type Routes struct {
	service service.SyncService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.SyncService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the wait API, including the health,
// readiness and version routes.
func Router(svc service.SyncService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/", routes.index)
	r.Post("/wait-for-second-party/{id}", routes.waitForSecondParty)

	r.Get("/health", routes.getHealth)
	r.Get("/readiness", routes.getReadiness)
	r.Get("/version", routes.getVersion)

	return r
}

// index handles GET /
func (*Routes) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexMessage))
}

// waitForSecondParty handles POST /wait-for-second-party/{id}.
//
// The first caller for an id blocks until a second caller presents the same
// id or the configured timeout elapses. Exactly two parties can meet per id;
// once either outcome is reached the id is free for a fresh rendezvous.
func (rr *Routes) waitForSecondParty(w http.ResponseWriter, r *http.Request) {
	waitID := chi.URLParam(r, "id")

	outcome, err := rr.service.Wait(r.Context(), waitID)
	switch {
	case errors.Is(err, service.ErrInvalidWaitID):
		common.WriteErrorResponse(w, "Wait id is required", http.StatusBadRequest)
		return
	case errors.Is(err, rendezvous.ErrRendezvousFull):
		common.WriteErrorResponse(w, "Only 2 parties allowed at a time", http.StatusConflict)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The caller went away while waiting; there is nobody left to
		// answer.
		logger.Debugf("Wait for id %q abandoned: %v", waitID, err)
		return
	case err != nil:
		logger.Errorf("Wait for id %q failed: %v", waitID, err)
		common.WriteErrorResponse(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch outcome {
	case rendezvous.FirstPartySuccess:
		common.WriteJSONResponse(w, WaitResponse{
			Status:  StatusSuccess,
			Message: "Welcome! (first party)",
		}, http.StatusOK)
	case rendezvous.SecondPartySuccess:
		common.WriteJSONResponse(w, WaitResponse{
			Status:  StatusSuccess,
			Message: "Welcome! (second party)",
		}, http.StatusOK)
	case rendezvous.TimedOut:
		common.WriteJSONResponse(w, WaitResponse{
			Status:             StatusTimeout,
			Message:            "Request timed out",
			TimeoutDurationSec: int64(rr.service.Timeout().Seconds()),
		}, http.StatusRequestTimeout)
	default:
		logger.Errorf("Wait for id %q produced unexpected outcome %v", waitID, outcome)
		common.WriteErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
