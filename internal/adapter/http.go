package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

type httpServerAdapter struct {
	client *utils.HTTPClient

	deviceID string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of [ServerAdapter].
// It normalises and validates the base URL from adapterCfg.HTTPAddress,
// configures the underlying HTTP client with the resolved base URL and request
// timeout, and initialises the shared HMAC hasher pool used for batch
// integrity hashes.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL, or if deviceID is empty.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, deviceID string, logger *logger.Logger) (ServerAdapter, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}

	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient(adapterCfg.RequestTimeout)
	client.
		SetBaseURL(baseURL).
		SetHeader(utils.DeviceIDHeader, deviceID)

	utils.InitHasherPool(appCfg.HashKey)

	return &httpServerAdapter{client: client, deviceID: deviceID, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyAddress
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Ping implements [ServerAdapter]. GET /api/ping.
func (h *httpServerAdapter) Ping(ctx context.Context) (models.PingResponse, error) {
	var pong models.PingResponse

	resp, err := h.request(ctx).
		SetResult(&pong).
		Get("/api/ping")
	if err != nil {
		return models.PingResponse{}, mapRequestError("ping request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PingResponse{}, err
	}

	return pong, nil
}

// RegisterDevice implements [ServerAdapter]. POST /api/devices.
func (h *httpServerAdapter) RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.DeviceSyncState, error) {
	var state models.DeviceSyncState

	resp, err := h.request(ctx).
		SetBody(req).
		SetResult(&state).
		Post("/api/devices")
	if err != nil {
		return models.DeviceSyncState{}, mapRequestError("register device request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.DeviceSyncState{}, err
	}

	return state, nil
}

// ReportCheckpoint implements [ServerAdapter].
// PUT /api/devices/{id}/checkpoint.
func (h *httpServerAdapter) ReportCheckpoint(ctx context.Context, req models.CheckpointRequest) (models.CheckpointResponse, error) {
	var out models.CheckpointResponse

	resp, err := h.request(ctx).
		SetPathParam("deviceID", req.DeviceID).
		SetBody(req).
		SetResult(&out).
		Put("/api/devices/{deviceID}/checkpoint")
	if err != nil {
		return models.CheckpointResponse{}, mapRequestError("report checkpoint request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.CheckpointResponse{}, err
	}

	return out, nil
}

// SubmitActions implements [ServerAdapter]. It computes the integrity hash
// over req.Items and POSTs the batch to POST /api/actions/batch.
func (h *httpServerAdapter) SubmitActions(ctx context.Context, req models.SubmitBatchRequest) (models.SubmitBatchResponse, error) {
	hash, err := utils.HashJSON(req.Items)
	if err != nil {
		return models.SubmitBatchResponse{}, fmt.Errorf("submit actions: %w", err)
	}
	req.Hash = hash

	var out models.SubmitBatchResponse
	resp, err := h.request(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/api/actions/batch")
	if err != nil {
		return models.SubmitBatchResponse{}, mapRequestError("submit actions request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SubmitBatchResponse{}, err
	}
	if len(out.Results) != len(req.Items) {
		return models.SubmitBatchResponse{}, fmt.Errorf("%w: %d results for %d items",
			ErrBadGateway, len(out.Results), len(req.Items))
	}

	return out, nil
}

// ResolveConflict implements [ServerAdapter].
// POST /api/conflicts/{id}/resolve.
func (h *httpServerAdapter) ResolveConflict(ctx context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error) {
	var out models.ResolveConflictResponse

	resp, err := h.request(ctx).
		SetPathParam("conflictID", req.ConflictID).
		SetBody(req).
		SetResult(&out).
		Post("/api/conflicts/{conflictID}/resolve")
	if err != nil {
		return models.ResolveConflictResponse{}, mapRequestError("resolve conflict request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ResolveConflictResponse{}, err
	}

	return out, nil
}

// ListConflicts implements [ServerAdapter]. GET /api/conflicts.
func (h *httpServerAdapter) ListConflicts(ctx context.Context, req models.ListConflictsRequest) ([]models.Conflict, error) {
	var conflicts []models.Conflict

	r := h.request(ctx).
		SetQueryParam("device_id", req.DeviceID).
		SetResult(&conflicts)
	if req.OpenOnly {
		r.SetQueryParam("open", "true")
	}

	resp, err := r.Get("/api/conflicts")
	if err != nil {
		return nil, mapRequestError("list conflicts request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return conflicts, nil
}

// GetResource implements [ServerAdapter]. GET /api/resources/{key}.
func (h *httpServerAdapter) GetResource(ctx context.Context, key string) (models.Resource, error) {
	var resource models.Resource

	resp, err := h.request(ctx).
		SetPathParam("key", key).
		SetResult(&resource).
		Get("/api/resources/{key}")
	if err != nil {
		return models.Resource{}, mapRequestError("get resource request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Resource{}, err
	}

	return resource, nil
}

func (h *httpServerAdapter) Close() error {
	return nil
}

func (h *httpServerAdapter) request(ctx context.Context) *resty.Request {
	return h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
}
