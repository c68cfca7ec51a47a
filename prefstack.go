// Package prefstack compiles layered preference sets into a canonical
// user.js file.
//
// A build parses each preference layer, merges the layers in priority order
// with last-write-wins semantics, validates the layers against each other
// and an optional schema, and emits one deterministic statement per
// effective key:
//
//	res, err := prefstack.Compile(ctx, prefstack.CompileOptions{
//	    Layers: []layer.Spec{
//	        {Name: "base", Source: fs.New("base.js"), Parser: userjs.NewParser(), Priority: prefstack.PriorityBase},
//	        {Name: "profile", Source: fs.New("work.yaml"), Parser: yaml.NewParser(), Priority: prefstack.PriorityProfile},
//	    },
//	    Order: prefstack.OrderFirstSeen,
//	})
//
// Key features:
//   - Provenance for every effective value (layer and position)
//   - Duplicate, type conflict, unknown, deprecated and dead override checks
//   - Byte-identical output for the same inputs
//   - Layers from user.js, YAML, TOML and JSONC, on disk or in S3/SSM
package prefstack

import (
	"github.com/yacchi/prefstack/layer"
)

// Priority constants for common preference layers.
// Higher values take precedence during merging.
const (
	// PriorityDefaults is the lowest priority, used for shipped defaults.
	PriorityDefaults layer.Priority = 0

	// PriorityBase is for a shared baseline such as a hardening user.js.
	PriorityBase layer.Priority = 10

	// PriorityProfile is for profile or team overrides.
	PriorityProfile layer.Priority = 20

	// PriorityEnv is for environment variables.
	PriorityEnv layer.Priority = 30

	// PriorityFlags is the highest priority, used for --set flags.
	PriorityFlags layer.Priority = 40
)
