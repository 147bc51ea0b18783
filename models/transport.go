package models

import "time"

// PingResponse is returned by the ping call used for connectivity probes.
type PingResponse struct {
	Status     string    `json:"status"`
	ServerTime time.Time `json:"server_time"`
}

// CheckpointResponse reports whether the registry stored the checkpoint.
type CheckpointResponse struct {
	Advanced   bool       `json:"advanced"`
	Checkpoint Checkpoint `json:"checkpoint"`
}

// ListConflictsRequest selects conflicts of one device. OpenOnly hides
// resolved ones.
type ListConflictsRequest struct {
	DeviceID string `json:"device_id"`
	OpenOnly bool   `json:"open_only"`
}

// GetResourceRequest asks for the current state of a resource.
type GetResourceRequest struct {
	Key string `json:"key"`
}
