package utils

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// JSONCodecName is the gRPC content-subtype served by JSONCodec.
const JSONCodecName = "json"

// JSONCodec lets the gRPC transport carry the same JSON models as the
// HTTP API, so no generated protobuf types are needed.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSONCodec) Name() string { return JSONCodecName }

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

// gRPC service and full method names.
const (
	SyncServiceName = "offlinesync.v1.SyncService"

	MethodPing             = "/" + SyncServiceName + "/Ping"
	MethodRegisterDevice   = "/" + SyncServiceName + "/RegisterDevice"
	MethodReportCheckpoint = "/" + SyncServiceName + "/ReportCheckpoint"
	MethodSubmitActions    = "/" + SyncServiceName + "/SubmitActions"
	MethodResolveConflict  = "/" + SyncServiceName + "/ResolveConflict"
	MethodListConflicts    = "/" + SyncServiceName + "/ListConflicts"
	MethodGetResource      = "/" + SyncServiceName + "/GetResource"
)

// DeviceIDMetadataKey is the gRPC metadata key for the device id.
const DeviceIDMetadataKey = "x-device-id"
