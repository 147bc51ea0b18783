// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package grpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// SyncServer is the set of methods behind [ServiceDesc].
type SyncServer interface {
	Ping(ctx context.Context, in *struct{}) (*models.PingResponse, error)
	RegisterDevice(ctx context.Context, in *models.RegisterDeviceRequest) (*models.DeviceSyncState, error)
	ReportCheckpoint(ctx context.Context, in *models.CheckpointRequest) (*models.CheckpointResponse, error)
	SubmitActions(ctx context.Context, in *batchEnvelope) (*models.SubmitBatchResponse, error)
	ResolveConflict(ctx context.Context, in *models.ResolveConflictRequest) (*models.ResolveConflictResponse, error)
	ListConflicts(ctx context.Context, in *models.ListConflictsRequest) ([]models.Conflict, error)
	GetResource(ctx context.Context, in *models.GetResourceRequest) (*models.Resource, error)
}

// ServiceDesc describes offlinesync.v1.SyncService for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: utils.SyncServiceName,
	HandlerType: (*SyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(utils.MethodPing, SyncServer.Ping)},
		{MethodName: "RegisterDevice", Handler: unary(utils.MethodRegisterDevice, SyncServer.RegisterDevice)},
		{MethodName: "ReportCheckpoint", Handler: unary(utils.MethodReportCheckpoint, SyncServer.ReportCheckpoint)},
		{MethodName: "SubmitActions", Handler: unary(utils.MethodSubmitActions, SyncServer.SubmitActions)},
		{MethodName: "ResolveConflict", Handler: unary(utils.MethodResolveConflict, SyncServer.ResolveConflict)},
		{MethodName: "ListConflicts", Handler: unary(utils.MethodListConflicts, SyncServer.ListConflicts)},
		{MethodName: "GetResource", Handler: unary(utils.MethodGetResource, SyncServer.GetResource)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "offlinesync/v1/sync.proto",
}

// unary adapts a typed method to grpc.MethodDesc, running the server's
// interceptor chain the same way generated code does.
func unary[In, Out any](fullMethod string, call func(SyncServer, context.Context, *In) (Out, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(In)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SyncServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(SyncServer), ctx, req.(*In))
		})
	}
}

// Register adds the sync service to s.
func (h *Handler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *Handler) Ping(ctx context.Context, _ *struct{}) (*models.PingResponse, error) {
	return &models.PingResponse{Status: "ok", ServerTime: time.Now().UTC()}, nil
}

func (h *Handler) RegisterDevice(ctx context.Context, in *models.RegisterDeviceRequest) (*models.DeviceSyncState, error) {
	if caller, ok := utils.GetDeviceIDFromContext(ctx); ok && caller != in.DeviceID {
		return nil, toStatus(ErrForeignDevice)
	}

	state, err := h.services.DeviceRegistry.Register(ctx, *in)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*Handler.RegisterDevice").Msg("error registering device")
		return nil, toStatus(err)
	}
	return &state, nil
}

func (h *Handler) ReportCheckpoint(ctx context.Context, in *models.CheckpointRequest) (*models.CheckpointResponse, error) {
	caller, err := requireDevice(ctx)
	if err != nil {
		return nil, err
	}
	if in.DeviceID != caller {
		return nil, toStatus(ErrForeignDevice)
	}

	resp, err := h.services.DeviceRegistry.UpdateCheckpoint(ctx, *in)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*Handler.ReportCheckpoint").Msg("error updating checkpoint")
		return nil, toStatus(err)
	}
	return &resp, nil
}

// batchEnvelope keeps the items as sent, so the integrity hash is checked
// against the exact bytes the device hashed.
type batchEnvelope struct {
	DeviceID string          `json:"device_id"`
	Items    json.RawMessage `json:"items"`
	Hash     string          `json:"hash"`
}

func (h *Handler) SubmitActions(ctx context.Context, in *batchEnvelope) (*models.SubmitBatchResponse, error) {
	log := logger.FromContext(ctx)

	caller, err := requireDevice(ctx)
	if err != nil {
		return nil, err
	}
	if in.DeviceID != caller {
		return nil, toStatus(ErrForeignDevice)
	}

	hashedItems := hex.EncodeToString(utils.Hash(in.Items))
	if in.Hash == "" || !utils.EqualHash(hashedItems, in.Hash) {
		log.Error().Str("func", "*Handler.SubmitActions").
			Str("hash from request", in.Hash).
			Str("hashed items", hashedItems).
			Msg("hashes are not equal")
		return nil, toStatus(ErrIntegrityCheckFailed)
	}

	req := models.SubmitBatchRequest{DeviceID: in.DeviceID, Hash: in.Hash}
	if err = json.Unmarshal(in.Items, &req.Items); err != nil {
		return nil, toStatus(fmt.Errorf("%w: %w", service.ErrInvalidDataProvided, err))
	}

	resp, err := h.services.ActionProcessor.SubmitBatch(ctx, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.SubmitActions").Msg("error submitting batch")
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (h *Handler) ResolveConflict(ctx context.Context, in *models.ResolveConflictRequest) (*models.ResolveConflictResponse, error) {
	if _, err := requireDevice(ctx); err != nil {
		return nil, err
	}

	resp, err := h.services.ConflictResolver.Resolve(ctx, *in)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*Handler.ResolveConflict").
			Str("conflict_id", in.ConflictID).
			Msg("error resolving conflict")
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (h *Handler) ListConflicts(ctx context.Context, in *models.ListConflictsRequest) ([]models.Conflict, error) {
	caller, err := requireDevice(ctx)
	if err != nil {
		return nil, err
	}
	if in.DeviceID == "" {
		in.DeviceID = caller
	}
	if in.DeviceID != caller {
		return nil, toStatus(ErrForeignDevice)
	}

	conflicts, err := h.services.ConflictResolver.ListConflicts(ctx, *in)
	if err != nil {
		return nil, toStatus(err)
	}
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	return conflicts, nil
}

func (h *Handler) GetResource(ctx context.Context, in *models.GetResourceRequest) (*models.Resource, error) {
	if _, err := requireDevice(ctx); err != nil {
		return nil, err
	}

	resource, err := h.services.ResourceService.GetResource(ctx, in.Key)
	if err != nil {
		return nil, toStatus(err)
	}
	return &resource, nil
}

func requireDevice(ctx context.Context) (string, error) {
	deviceID, ok := utils.GetDeviceIDFromContext(ctx)
	if !ok {
		return "", toStatus(ErrMissingDeviceID)
	}
	return deviceID, nil
}
