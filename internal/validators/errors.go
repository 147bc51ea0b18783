package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyActionID          = errors.New("action id is required")
	ErrInvalidActionType      = errors.New("invalid action type")
	ErrEmptyDeviceID          = errors.New("device id is required")
	ErrEmptyOwnerID           = errors.New("owner id is required")
	ErrEmptyUserID            = errors.New("user id is required")
	ErrIdempotencyKeyMismatch = errors.New("idempotency key must equal the action id")
	ErrSelfDependency         = errors.New("action cannot depend on itself")
	ErrDuplicateDependency    = errors.New("duplicate dependency")
	ErrMissingPayload         = errors.New("payload is required")
	ErrPayloadTypeMismatch    = errors.New("payload does not match action type")
	ErrInvalidPayload         = errors.New("payload does not match schema")
	ErrEmptyFields            = errors.New("at least one field must be provided for update")
	ErrInvalidExpiry          = errors.New("proof must expire after it was created")
	ErrEmptyConflictID        = errors.New("conflict id is required")
	ErrInvalidStrategy        = errors.New("invalid resolution strategy")
	ErrEmptyPublicKey         = errors.New("device public key is required")
	ErrEmptyBatch             = errors.New("batch must contain at least one item")
	ErrBatchTooLarge          = errors.New("batch has too many items")
)
