package models

// SyncCounters is a point-in-time copy of the client sync counters.
type SyncCounters struct {
	Passes           int64 `json:"passes"`
	Suppressed       int64 `json:"suppressed"`
	Attempts         int64 `json:"attempts"`
	Applied          int64 `json:"applied"`
	Duplicates       int64 `json:"duplicates"`
	Conflicts        int64 `json:"conflicts"`
	Rejected         int64 `json:"rejected"`
	TransientErrors  int64 `json:"transient_errors"`
	TerminalFailures int64 `json:"terminal_failures"`
}

// ProcessorCounters is a point-in-time copy of the server counters.
type ProcessorCounters struct {
	Submitted  int64 `json:"submitted"`
	Applied    int64 `json:"applied"`
	Duplicates int64 `json:"duplicates"`
	Conflicts  int64 `json:"conflicts"`
	Rejected   int64 `json:"rejected"`
	Errors     int64 `json:"errors"`
	Resolved   int64 `json:"resolved"`
}
