package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

const traceIDMetadataKey = "x-trace-id"

// UnaryInterceptor is the gRPC counterpart of the HTTP middleware chain:
// it attaches a traced logger, identifies the device from metadata and
// writes one access log line per call.
func (h *Handler) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
	start := time.Now()
	md, _ := metadata.FromIncomingContext(ctx)

	traceID := first(md, traceIDMetadataKey)
	if traceID == "" {
		traceID = uuid.NewString()
	}

	l := h.logger.GetChildLogger()
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("trace_id", traceID)
	})

	if deviceID := first(md, utils.DeviceIDMetadataKey); deviceID != "" {
		err := h.services.DeviceRegistry.Touch(ctx, deviceID)
		switch {
		case errors.Is(err, store.ErrDeviceNotFound):
			l.Warn().Str("device_id", deviceID).Msg("call from unregistered device")
		case err != nil:
			l.Err(err).Str("device_id", deviceID).Msg("failed to touch device")
		}
		l = l.WithDevice(deviceID)
		ctx = utils.WithDeviceID(ctx, deviceID)
	}
	ctx = l.WithContext(ctx)

	resp, err := next(ctx, req)

	level := zerolog.InfoLevel
	code := status.Code(err)
	if isServerFault(code) {
		level = zerolog.ErrorLevel
	}
	l.WithLevel(level).
		Str("method", info.FullMethod).
		Str("code", code.String()).
		Dur("duration", time.Since(start)).
		Send()

	return resp, err
}

func first(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
