package adapter

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// grpcServerAdapter calls the sync service with the JSON codec, so the
// messages are the same model structs the HTTP transport sends.
type grpcServerAdapter struct {
	conn *grpc.ClientConn

	deviceID string

	logger *logger.Logger
}

// NewGRPCServerAdapter dials adapterCfg.GRPCAddress lazily. The connection
// is plaintext; TLS termination is expected in front of the server.
func NewGRPCServerAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, deviceID string, logger *logger.Logger) (ServerAdapter, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}
	address := strings.TrimSpace(adapterCfg.GRPCAddress)
	if address == "" {
		return nil, fmt.Errorf("invalid adapter grpc address: %w", ErrEmptyAddress)
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(utils.JSONCodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("create grpc client: %w", err)
	}

	utils.InitHasherPool(appCfg.HashKey)

	return &grpcServerAdapter{conn: conn, deviceID: deviceID, logger: logger}, nil
}

func (g *grpcServerAdapter) Ping(ctx context.Context) (models.PingResponse, error) {
	var pong models.PingResponse
	err := g.invoke(ctx, utils.MethodPing, struct{}{}, &pong)
	return pong, mapGRPCError("ping", err)
}

func (g *grpcServerAdapter) RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.DeviceSyncState, error) {
	var state models.DeviceSyncState
	if err := g.invoke(ctx, utils.MethodRegisterDevice, req, &state); err != nil {
		return models.DeviceSyncState{}, mapGRPCError("register device", err)
	}
	return state, nil
}

func (g *grpcServerAdapter) ReportCheckpoint(ctx context.Context, req models.CheckpointRequest) (models.CheckpointResponse, error) {
	var out models.CheckpointResponse
	if err := g.invoke(ctx, utils.MethodReportCheckpoint, req, &out); err != nil {
		return models.CheckpointResponse{}, mapGRPCError("report checkpoint", err)
	}
	return out, nil
}

func (g *grpcServerAdapter) SubmitActions(ctx context.Context, req models.SubmitBatchRequest) (models.SubmitBatchResponse, error) {
	hash, err := utils.HashJSON(req.Items)
	if err != nil {
		return models.SubmitBatchResponse{}, fmt.Errorf("submit actions: %w", err)
	}
	req.Hash = hash

	var out models.SubmitBatchResponse
	if err = g.invoke(ctx, utils.MethodSubmitActions, req, &out); err != nil {
		return models.SubmitBatchResponse{}, mapGRPCError("submit actions", err)
	}
	if len(out.Results) != len(req.Items) {
		return models.SubmitBatchResponse{}, fmt.Errorf("%w: %d results for %d items",
			ErrBadGateway, len(out.Results), len(req.Items))
	}
	return out, nil
}

func (g *grpcServerAdapter) ResolveConflict(ctx context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error) {
	var out models.ResolveConflictResponse
	if err := g.invoke(ctx, utils.MethodResolveConflict, req, &out); err != nil {
		return models.ResolveConflictResponse{}, mapGRPCError("resolve conflict", err)
	}
	return out, nil
}

func (g *grpcServerAdapter) ListConflicts(ctx context.Context, req models.ListConflictsRequest) ([]models.Conflict, error) {
	var conflicts []models.Conflict
	if err := g.invoke(ctx, utils.MethodListConflicts, req, &conflicts); err != nil {
		return nil, mapGRPCError("list conflicts", err)
	}
	return conflicts, nil
}

func (g *grpcServerAdapter) GetResource(ctx context.Context, key string) (models.Resource, error) {
	var resource models.Resource
	if err := g.invoke(ctx, utils.MethodGetResource, models.GetResourceRequest{Key: key}, &resource); err != nil {
		return models.Resource{}, mapGRPCError("get resource", err)
	}
	return resource, nil
}

func (g *grpcServerAdapter) Close() error {
	return g.conn.Close()
}

func (g *grpcServerAdapter) invoke(ctx context.Context, method string, in, out any) error {
	ctx = metadata.AppendToOutgoingContext(ctx, utils.DeviceIDMetadataKey, g.deviceID)
	return g.conn.Invoke(ctx, method, in, out)
}
