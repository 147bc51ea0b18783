package grpc

import (
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

// Handler serves the sync service over gRPC.
//
// Messages are the JSON models of the REST API, carried by the JSON codec
// registered in utils, so no generated stubs are involved. The service is
// described by hand in [ServiceDesc].
type Handler struct {
	services *service.Services

	logger *logger.Logger
}

// NewHandler constructs a [Handler] over the service layer.
func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	logger.Debug().Msg("gRPC handler created")
	return &Handler{
		services: services,
		logger:   logger,
	}
}
