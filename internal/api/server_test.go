package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/syncpoint-server/internal/api"
	"github.com/stacklok/syncpoint-server/internal/rendezvous"
	"github.com/stacklok/syncpoint-server/internal/service"
	"github.com/stacklok/syncpoint-server/internal/telemetry"
)

func newTestServer(t *testing.T, timeout time.Duration) *httptest.Server {
	t.Helper()

	metrics := telemetry.NewMetrics()
	svc, err := service.NewService(rendezvous.NewRegistry(), timeout,
		service.WithMetrics(metrics))
	require.NoError(t, err)

	router := api.NewServer(svc,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.Recoverer,
			metrics.Middleware,
			api.LoggingMiddleware,
		),
		api.WithMetricsHandler(metrics.Handler()),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postWait(srv *httptest.Server, id string) (int, map[string]any, error) {
	resp, err := http.Post(srv.URL+"/wait-for-second-party/"+id, "application/json", nil)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func TestTwoPartiesMeetOverHTTP(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, 10*time.Second)

	messages := make(chan string, 2)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			code, body, err := postWait(srv, "meeting-1")
			if err != nil {
				return err
			}
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "success", body["status"])
			messages <- body["message"].(string)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(messages)

	var got []string
	for msg := range messages {
		got = append(got, msg)
	}
	assert.ElementsMatch(t, []string{
		"Welcome! (first party)",
		"Welcome! (second party)",
	}, got)
}

func TestLoneParty408OverHTTP(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, time.Second)

	code, body, err := postWait(srv, "meeting-alone")
	require.NoError(t, err)

	assert.Equal(t, http.StatusRequestTimeout, code)
	assert.Equal(t, "timeout", body["status"])
	assert.Equal(t, "Request timed out", body["message"])
	assert.Equal(t, float64(1), body["timeout_duration_sec"])
}

func TestMetricsEndpointMounted(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, 10*time.Second)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "syncpoint_active_waits")
}
