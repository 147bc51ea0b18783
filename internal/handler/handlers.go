// Package handler assembles the transports the sync server exposes to
// devices. Each transport is built only when its listen address is set.
package handler

import (
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/handler/grpc"
	"github.com/MKhiriev/go-offline-sync/internal/handler/http"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
	GRPC *grpc.Handler
}

func NewHandlers(services *service.Services, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	var handlers Handlers

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, logger)
	}
	if cfg.GRPCAddress != "" {
		handlers.GRPC = grpc.NewHandler(services, logger)
	}

	if handlers.HTTP == nil && handlers.GRPC == nil {
		return nil, errNoHandlersAreCreated
	}

	logger.Info().
		Str("http_address", cfg.HTTPAddress).
		Str("grpc_address", cfg.GRPCAddress).
		Msg("sync handlers created")

	return &handlers, nil
}
