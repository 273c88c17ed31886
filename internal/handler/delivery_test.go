package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"mandil-capture-api/internal/handler"
	"mandil-capture-api/internal/model"
	"mandil-capture-api/internal/repository"
	"mandil-capture-api/internal/router"
	"mandil-capture-api/internal/service"

	"github.com/stretchr/testify/require"
)

// acceptAllGateway accepts every submission and serves a fixed directory.
type acceptAllGateway struct{}

func (acceptAllGateway) FetchOperators(ctx context.Context) ([]model.Operator, error) {
	return []model.Operator{
		{ID: 1, Username: "jperez", Code: "1001", FirstName: "Juan", LastName: "Perez"},
	}, nil
}

func (acceptAllGateway) SubmitDelivery(ctx context.Context, d *model.Delivery) error {
	return nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gw := acceptAllGateway{}
	syncService := service.NewSyncService(store.Deliveries(), gw)
	operatorSync := service.NewOperatorSyncService(gw, store.Operators(), nil)
	deliveryService := service.NewDeliveryService(
		store.Deliveries(), store.Operators(), store.Preferences(),
		syncService, nil, time.Minute,
	)

	r := router.New(router.Config{
		Handler:         handler.New("test"),
		DeliveryHandler: handler.NewDeliveryHandler(deliveryService),
		SyncHandler:     handler.NewSyncHandler(syncService, operatorSync),
		OperatorHandler: handler.NewOperatorHandler(deliveryService),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestCreateDelivery(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/deliveries", map[string]interface{}{
		"registration_date": "2026-08-31",
		"shift":             "DAY",
		"operator_code":     "1001",
		"apron_clean":       false,
		"notes":             "spot on hem",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			ID   int64  `json:"id"`
			UUID string `json:"uuid"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
	require.Greater(t, out.Data.ID, int64(0))
	require.NotEmpty(t, out.Data.UUID)
}

func TestCreateDeliveryRequiresOperatorCode(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/deliveries", map[string]interface{}{
		"registration_date": "2026-08-31",
		"shift":             "DAY",
		"operator_code":     "   ",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateDeliveryFallsBackToSessionShift(t *testing.T) {
	srv := newTestServer(t)

	// No shift selected yet: reject.
	resp := postJSON(t, srv.URL+"/api/v1/deliveries", map[string]interface{}{
		"registration_date": "2026-08-31",
		"operator_code":     "1001",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Select NIGHT for the session.
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/shift",
		bytes.NewReader([]byte(`{"shift":"NIGHT"}`)))
	require.NoError(t, err)
	putResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	putResp.Body.Close()
	require.Equal(t, http.StatusOK, putResp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/deliveries", map[string]interface{}{
		"registration_date": "2026-08-31",
		"operator_code":     "1001",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The listing shows the session shift on the record.
	listResp, err := http.Get(srv.URL + "/api/v1/deliveries?date=2026-08-31")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var list struct {
		Data struct {
			Deliveries []model.Delivery   `json:"deliveries"`
			Counts     model.StatusCounts `json:"counts"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list.Data.Deliveries, 1)
	require.Equal(t, model.ShiftNight, list.Data.Deliveries[0].Shift)
}

func TestRetryDeliveryNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/sync/deliveries/999", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOperatorLookup(t *testing.T) {
	srv := newTestServer(t)

	// Pull the directory first.
	resp := postJSON(t, srv.URL+"/api/v1/sync/operators", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lookupResp, err := http.Get(srv.URL + "/api/v1/operators/1001")
	require.NoError(t, err)
	defer lookupResp.Body.Close()
	require.Equal(t, http.StatusOK, lookupResp.StatusCode)

	var out struct {
		Data model.Operator `json:"data"`
	}
	require.NoError(t, json.NewDecoder(lookupResp.Body).Decode(&out))
	require.Equal(t, "jperez", out.Data.Username)

	missing, err := http.Get(srv.URL + "/api/v1/operators/0000")
	require.NoError(t, err)
	missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestSweepEndpointReturnsStats(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/deliveries", map[string]interface{}{
		"registration_date": "2026-08-31",
		"shift":             "DAY",
		"operator_code":     "1001",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The save enqueues a background sweep, but the worker is not
	// running in this test; the manual sweep picks the record up unless
	// it was already drained.
	sweep := postJSON(t, srv.URL+"/api/v1/sync/deliveries?date=2026-08-31", nil)
	defer sweep.Body.Close()
	require.Equal(t, http.StatusOK, sweep.StatusCode)

	var out struct {
		Data model.SyncStats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(sweep.Body).Decode(&out))
	require.Equal(t, model.SyncStats{Total: 1, Sent: 1, Failed: 0}, out.Data)
}
