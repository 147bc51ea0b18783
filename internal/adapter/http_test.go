// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

const testDeviceID = "dev-1"

// newTestAdapter creates an httpServerAdapter pointed at the test server.
func newTestAdapter(t *testing.T, serverURL string) *httpServerAdapter {
	t.Helper()
	adapterCfg := config.ClientAdapter{HTTPAddress: serverURL, RequestTimeout: 2 * time.Second}
	appCfg := config.ClientApp{HashKey: "testhashkey"}

	a, err := NewHTTPServerAdapter(adapterCfg, appCfg, testDeviceID, logger.Nop())
	require.NoError(t, err)
	return a.(*httpServerAdapter)
}

// ── Constructor ─────────────────────────────────────────────────────────────

func TestNewHTTPServerAdapter_Validation(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		deviceID string
		wantErr  error
	}{
		{name: "empty address", address: "", deviceID: testDeviceID, wantErr: ErrEmptyAddress},
		{name: "blank address", address: "   ", deviceID: testDeviceID, wantErr: ErrEmptyAddress},
		{name: "empty device", address: "localhost:8080", deviceID: "", wantErr: ErrEmptyDeviceID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPServerAdapter(config.ClientAdapter{HTTPAddress: tt.address}, config.ClientApp{}, tt.deviceID, logger.Nop())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "localhost:8080", want: "http://localhost:8080"},
		{raw: "https://sync.example.com/", want: "https://sync.example.com"},
		{raw: " http://127.0.0.1:9000// ", want: "http://127.0.0.1:9000"},
		{raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ── Ping ────────────────────────────────────────────────────────────────────

func TestPing_Success(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/ping", r.URL.Path)
		assert.Equal(t, testDeviceID, r.Header.Get(utils.DeviceIDHeader))
		utils.WriteJSON(w, models.PingResponse{Status: "ok", ServerTime: now}, http.StatusOK)
	}))
	defer srv.Close()

	pong, err := newTestAdapter(t, srv.URL).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", pong.Status)
	assert.True(t, now.Equal(pong.ServerTime))
}

func TestPing_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestAdapter(t, url).Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, IsTransient(err))
}

func TestPing_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAdapter(t, srv.URL).Ping(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransport)
}

// ── RegisterDevice ──────────────────────────────────────────────────────────

func TestRegisterDevice_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/devices", r.URL.Path)

		var req models.RegisterDeviceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user-1", req.UserID)

		utils.WriteJSON(w, models.DeviceSyncState{DeviceID: req.DeviceID, UserID: req.UserID}, http.StatusCreated)
	}))
	defer srv.Close()

	state, err := newTestAdapter(t, srv.URL).RegisterDevice(context.Background(), models.RegisterDeviceRequest{
		DeviceID: testDeviceID,
		UserID:   "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, testDeviceID, state.DeviceID)
}

// ── ReportCheckpoint ────────────────────────────────────────────────────────

func TestReportCheckpoint_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/devices/dev-1/checkpoint", r.URL.Path)
		utils.WriteJSON(w, models.CheckpointResponse{Advanced: true, Checkpoint: models.Checkpoint{Version: 4}}, http.StatusOK)
	}))
	defer srv.Close()

	out, err := newTestAdapter(t, srv.URL).ReportCheckpoint(context.Background(), models.CheckpointRequest{
		DeviceID:   testDeviceID,
		Checkpoint: models.Checkpoint{Version: 4},
	})
	require.NoError(t, err)
	assert.True(t, out.Advanced)
	assert.Equal(t, int64(4), out.Checkpoint.Version)
}

// ── SubmitActions ───────────────────────────────────────────────────────────

func TestSubmitActions_SetsHash(t *testing.T) {
	items := []models.SubmitItem{{IdempotencyKey: "a1", Action: models.Action{ID: "a1", Type: models.ActionCreateProof}}}
	utils.InitHasherPool("testhashkey")
	wantHash, err := utils.HashJSON(items)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/actions/batch", r.URL.Path)

		var req models.SubmitBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, wantHash, req.Hash)
		require.Len(t, req.Items, 1)

		utils.WriteJSON(w, models.SubmitBatchResponse{Results: []models.SubmitResult{
			{ActionID: "a1", Outcome: models.OutcomeApplied},
		}}, http.StatusOK)
	}))
	defer srv.Close()

	out, err := newTestAdapter(t, srv.URL).SubmitActions(context.Background(), models.SubmitBatchRequest{
		DeviceID: testDeviceID,
		Items:    items,
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, models.OutcomeApplied, out.Results[0].Outcome)
}

func TestSubmitActions_ResultCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, models.SubmitBatchResponse{}, http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).SubmitActions(context.Background(), models.SubmitBatchRequest{
		DeviceID: testDeviceID,
		Items:    []models.SubmitItem{{IdempotencyKey: "a1"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadGateway)
}

func TestSubmitActions_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		transient bool
	}{
		{name: "bad request", status: http.StatusBadRequest, wantErr: ErrBadRequest},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, wantErr: ErrUnprocessable},
		{name: "too many requests", status: http.StatusTooManyRequests, wantErr: ErrTooManyRequests, transient: true},
		{name: "internal", status: http.StatusInternalServerError, wantErr: ErrInternalServerError, transient: true},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: ErrServiceUnavailable, transient: true},
		{name: "unmapped 5xx", status: http.StatusInsufficientStorage, wantErr: ErrInternalServerError, transient: true},
		{name: "unmapped 4xx", status: http.StatusTeapot, wantErr: ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("boom"))
			}))
			defer srv.Close()

			_, err := newTestAdapter(t, srv.URL).SubmitActions(context.Background(), models.SubmitBatchRequest{
				DeviceID: testDeviceID,
				Items:    []models.SubmitItem{{IdempotencyKey: "a1"}},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.transient, IsTransient(err))
		})
	}
}

// ── Conflicts ───────────────────────────────────────────────────────────────

func TestResolveConflict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conflicts/c-1/resolve", r.URL.Path)

		var req models.ResolveConflictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.StrategyServerWins, req.Strategy)

		utils.WriteJSON(w, models.ResolveConflictResponse{ConflictID: "c-1", Resolved: true, Strategy: req.Strategy}, http.StatusOK)
	}))
	defer srv.Close()

	out, err := newTestAdapter(t, srv.URL).ResolveConflict(context.Background(), models.ResolveConflictRequest{
		ConflictID: "c-1",
		Strategy:   models.StrategyServerWins,
	})
	require.NoError(t, err)
	assert.True(t, out.Resolved)
}

func TestResolveConflict_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).ResolveConflict(context.Background(), models.ResolveConflictRequest{ConflictID: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsTransient(err))
}

func TestListConflicts_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testDeviceID, r.URL.Query().Get("device_id"))
		assert.Equal(t, "true", r.URL.Query().Get("open"))
		utils.WriteJSON(w, []models.Conflict{{ID: "c-1"}, {ID: "c-2"}}, http.StatusOK)
	}))
	defer srv.Close()

	conflicts, err := newTestAdapter(t, srv.URL).ListConflicts(context.Background(), models.ListConflictsRequest{
		DeviceID: testDeviceID,
		OpenOnly: true,
	})
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)
}

// ── GetResource ─────────────────────────────────────────────────────────────

func TestGetResource_EscapesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/resources/profile:u-1", r.URL.Path)
		utils.WriteJSON(w, models.Resource{Key: "profile:u-1", Version: 3}, http.StatusOK)
	}))
	defer srv.Close()

	res, err := newTestAdapter(t, srv.URL).GetResource(context.Background(), "profile:u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Version)
}

// ── IsTransient ─────────────────────────────────────────────────────────────

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(ErrConflict))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(mapRequestError("op", errors.New("connection refused"))))
	assert.False(t, IsTransient(mapRequestError("op", context.Canceled)))
}
