// Package tools defines the retrieval tools the model may invoke during a
// query — content search and course outline lookup — together with the
// registry that exposes their invocation schemas, dispatches named calls,
// and aggregates source citations across tools.
package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Tool is a named unit of capability with a machine-readable invocation
// schema. Execute receives the model-supplied arguments as raw JSON and
// returns human-readable text for the model; an error from Execute is a
// fault to be contained by the orchestrator, never by the registry.
type Tool interface {
	Name() string
	Description() string
	InputSchema() any
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// SourceTracker marks a Tool that produces source citations. Whether a
// tool tracks sources is part of its type, not discovered by probing.
type SourceTracker interface {
	// LastSources returns the citations accumulated by the most recent
	// Execute call that produced results.
	LastSources() []Source

	// ResetSources clears the accumulated citations.
	ResetSources()
}

// Source is one provenance citation: a display label plus an optional
// link to the cited lesson.
type Source struct {
	Text string `json:"display_text"`
	URL  string `json:"url,omitempty"`
}

// GenerateSchema reflects a JSON schema from an argument struct, honoring
// `jsonschema:"required,description=..."` tags. The schema is
// self-contained (no $refs) so it can go straight into a model API call.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	return reflector.Reflect(&v)
}
