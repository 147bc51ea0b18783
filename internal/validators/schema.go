package validators

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:embed schema.cue
var payloadSchemaSource []byte

var schemaDefinitions = map[models.ActionType]string{
	models.ActionCreateProof:        "#CreateProof",
	models.ActionUpdateProfile:      "#UpdateProfile",
	models.ActionSubmitVerification: "#SubmitVerification",
	models.ActionUploadDocument:     "#UploadDocument",
}

// payloadSchema validates payload JSON against the embedded CUE schema.
// A cue.Context is not safe for concurrent use, hence the mutex.
type payloadSchema struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

func newPayloadSchema() (*payloadSchema, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(payloadSchemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}
	return &payloadSchema{ctx: ctx, schema: schema}, nil
}

func (s *payloadSchema) validate(t models.ActionType, payload models.Payload) error {
	def, ok := schemaDefinitions[t]
	if !ok {
		return ErrInvalidActionType
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.ctx.CompileBytes(data, cue.Filename("payload.json"))
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	unified := s.schema.LookupPath(cue.ParsePath(def)).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}
