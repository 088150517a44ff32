package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
)

// Registry holds the tools available to the model. Tools are keyed by
// name (a duplicate registration overwrites, keeping the original
// position) and every listing — definitions, source aggregation — runs in
// registration order.
//
// A Registry and its tools live for the process lifetime but carry
// query-scoped citation state; callers sharing one registry across
// queries must serialize them (the assistant holds a lock for the full
// query).
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds a registry with the given tools pre-registered.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register stores a tool under its name. The last registration for a
// name wins.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		slog.Warn("overwriting registered tool", "tool", name)
	} else {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Definitions returns one Anthropic tool definition per registered tool,
// in registration order, ready for a Messages API call.
func (r *Registry) Definitions() []anthropic.ToolUnionUnionParam {
	defs := make([]anthropic.ToolUnionUnionParam, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, anthropic.ToolParam{
			Name:        anthropic.F(t.Name()),
			Description: anthropic.F(t.Description()),
			InputSchema: anthropic.F(t.InputSchema()),
		})
	}
	return defs
}

// Execute dispatches a named invocation. An unknown name is not a fault:
// the "not found" text goes back to the model as an ordinary tool result
// so it can recover. Errors raised inside a tool propagate untouched —
// containment is the orchestrator's job, the registry only dispatches.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name), nil
	}
	return t.Execute(ctx, args)
}

// Sources concatenates the accumulated citations of every
// source-tracking tool, in registration order.
func (r *Registry) Sources() []Source {
	var out []Source
	for _, name := range r.order {
		if tracker, ok := r.tools[name].(SourceTracker); ok {
			out = append(out, tracker.LastSources()...)
		}
	}
	return out
}

// ResetSources clears the citations on every source-tracking tool. Call
// it exactly once per completed query, after Sources has been read.
func (r *Registry) ResetSources() {
	for _, name := range r.order {
		if tracker, ok := r.tools[name].(SourceTracker); ok {
			tracker.ResetSources()
		}
	}
}
