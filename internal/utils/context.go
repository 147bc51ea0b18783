// Package utils provides general-purpose helpers shared by the server and
// the client: typed context keys, HMAC hashing, JSON response writing, the
// resty HTTP client, id generators and the gRPC JSON codec.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
type contextKey string

// String returns the string representation of the context key.
func (c contextKey) String() string {
	return string(c)
}

// DeviceIDCtxKey is the key under which the calling device id is stored.
//
//	ctx := context.WithValue(ctx, utils.DeviceIDCtxKey, "01J...")
var DeviceIDCtxKey = contextKey("deviceID")

// DeviceIDHeader carries the device id on HTTP requests and as gRPC
// metadata.
const DeviceIDHeader = "X-Device-ID"

// GetDeviceIDFromContext retrieves the device id from the context.
// ok is false when the value is missing, empty or of an unexpected type.
func GetDeviceIDFromContext(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDCtxKey).(string)
	return deviceID, ok && deviceID != ""
}

// WithDeviceID stores deviceID in ctx.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, DeviceIDCtxKey, deviceID)
}
