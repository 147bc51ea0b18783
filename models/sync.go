package models

import "time"

// NetworkEvent is published by the network monitor on every state change.
type NetworkEvent struct {
	From    NetworkStatus `json:"from"`
	To      NetworkStatus `json:"to"`
	Latency time.Duration `json:"latency"`
	At      time.Time     `json:"at"`
}

// SyncTrigger names what started a sync pass.
type SyncTrigger string

const (
	TriggerManual       SyncTrigger = "manual"
	TriggerConnectivity SyncTrigger = "connectivity"
	TriggerPeriodic     SyncTrigger = "periodic"
	TriggerResolution   SyncTrigger = "resolution"
)

// PassReport summarizes one sync pass.
type PassReport struct {
	Trigger  SyncTrigger `json:"trigger"`
	Started  time.Time   `json:"started"`
	Finished time.Time   `json:"finished"`

	Submitted  int `json:"submitted"`
	Applied    int `json:"applied"`
	Duplicates int `json:"duplicates"`
	Conflicts  int `json:"conflicts"`
	Rejected   int `json:"rejected"`
	Retried    int `json:"retried"`
	Failed     int `json:"failed"`
	Blocked    int `json:"blocked"`
	Waiting    int `json:"waiting"`

	// Coalesced is set when another pass was running; it runs again once
	// that pass finishes.
	Coalesced bool `json:"coalesced,omitempty"`
	// Suppressed is set when a connectivity pass was skipped on a
	// degraded network because too much work was pending.
	Suppressed bool `json:"suppressed,omitempty"`
	Cancelled  bool `json:"cancelled,omitempty"`

	// Checkpoint is set when the pass advanced the device checkpoint.
	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
}

// BuildProofRequest asks the device to build an offline proof. Inputs are
// hashed and dropped; they never leave the builder.
type BuildProofRequest struct {
	ProofType    string
	Inputs       map[string]any
	Validity     time.Duration
	Priority     Priority
	Dependencies []string
}
