// Package engine implements the three pipelines the dispatch surface
// orchestrates: serialization, deserialization and validation. The
// engine holds no durable state of its own; schemas are re-resolved per
// call so configuration edits take effect on the next request.
package engine

import (
	"errors"
	"fmt"

	"github.com/artpar/prism/core/handler"
	"github.com/artpar/prism/ports"
	"github.com/rs/zerolog"
)

// ErrDepthExceeded is returned when nested-schema recursion passes the
// configured maximum. A cyclic schema graph surfaces as this error
// instead of a stack overflow.
var ErrDepthExceeded = errors.New("nested schema recursion too deep")

// Method selects the record-resolution semantics of a deserialization.
type Method string

const (
	// MethodCreate always instantiates a new record.
	MethodCreate Method = "create"

	// MethodGet looks up an existing record and fails when absent.
	MethodGet Method = "get"

	// MethodGetOrCreate looks up, instantiating a new record when absent.
	MethodGetOrCreate Method = "get_or_create"

	// MethodGetAndUpdateOrCreate looks up or instantiates, then applies
	// the field transforms regardless of which branch was taken.
	MethodGetAndUpdateOrCreate Method = "get_and_update_or_create"
)

// DefaultMaxDepth bounds nested-schema recursion when no limit is
// configured.
const DefaultMaxDepth = 10

// Engine runs the pipelines against one entity store and one schema
// store. Safe for concurrent use.
type Engine struct {
	store    ports.EntityStore
	schemas  ports.SchemaStore
	dispatch *handler.Dispatcher
	maxDepth int
	logger   zerolog.Logger
}

// New wires an engine and registers it as the dispatcher's recursion
// target.
func New(store ports.EntityStore, schemas ports.SchemaStore, dispatch *handler.Dispatcher, maxDepth int, logger zerolog.Logger) *Engine {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	e := &Engine{
		store:    store,
		schemas:  schemas,
		dispatch: dispatch,
		maxDepth: maxDepth,
		logger:   logger,
	}
	dispatch.SetPipelines(e)
	return e
}

// guardDepth rejects recursion past the configured maximum.
func (e *Engine) guardDepth(hc handler.Context) error {
	if hc.Depth > e.maxDepth {
		return fmt.Errorf("%w: depth %d exceeds limit %d", ErrDepthExceeded, hc.Depth, e.maxDepth)
	}
	return nil
}

// NormalizeDocument accepts the two submission shapes clients send — a
// flat attribute map, or a label-list of {name, value} entries — and
// returns the flat form. Label-list entries with duplicate names keep
// the last value.
func NormalizeDocument(doc any) (map[string]any, error) {
	switch v := doc.(type) {
	case map[string]any:
		return v, nil
	case []any:
		out := make(map[string]any, len(v))
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("label-list entry is not an object: %v", item)
			}
			name, ok := entry["name"].(string)
			if !ok || name == "" {
				return nil, fmt.Errorf("label-list entry has no name: %v", item)
			}
			out[name] = entry["value"]
		}
		return out, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("unsupported document shape %T", doc)
	}
}
