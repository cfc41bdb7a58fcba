package hierarchy

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

// validateAgainstSchema checks translation content against the version's
// stored JSON schema. A schema blob that fails to load or compile counts as
// an internal error, not a validation failure of the caller's content.
func validateAgainstSchema(ctx context.Context, schemaBlobID string, content []byte) apperrors.Error {
	schema, err := objectstore.Default().Get(ctx, schemaBlobID)
	if err != nil {
		log.Ctx(ctx).Error().Str("blob_id", schemaBlobID).Msg("failed to load schema blob")
		return ErrHierarchy.Msg("unable to load version schema")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("version-schema.json", bytes.NewReader(schema)); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to parse version schema")
		return ErrHierarchy.Msg("unable to parse version schema")
	}
	compiled, err2 := compiler.Compile("version-schema.json")
	if err2 != nil {
		log.Ctx(ctx).Error().Err(err2).Msg("failed to compile version schema")
		return ErrHierarchy.Msg("unable to compile version schema")
	}
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return ErrValidation.Msg("translation file is not valid JSON")
	}
	if err := compiled.Validate(doc); err != nil {
		return ErrValidation.MsgErr("translation file does not match the version schema", err)
	}
	return nil
}
