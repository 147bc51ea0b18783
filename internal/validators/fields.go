package validators

// Field selectors accepted by Validate. With no selector every check runs.
const (
	FieldEnvelope = "envelope"
	FieldPayload  = "payload"
)
