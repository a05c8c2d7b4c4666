// Package fshcompiler compiles authoring-language rule documents describing
// healthcare interoperability artifacts into structured resource definitions
// with element-level constraint trees.
//
// The core is the element-tree constraint engine: given a base definition
// resolved through a chained Fisher, the engine applies an ordered sequence
// of declarative rules that narrow cardinality, restrict types, assign
// fixed/pattern values, flag elements, and define slices. Every rule either
// tightens the tree or fails with a typed error; the result carries both a
// fully resolved snapshot and a minimal reproducible differential.
//
// # Quick Start
//
//	import (
//	    fsh "github.com/FHIR/sushi-sub009"
//	    "github.com/FHIR/sushi-sub009/engine"
//	    "github.com/FHIR/sushi-sub009/fisher"
//	)
//
//	store := fisher.NewMemoryStore(logger)
//	// ... load base definitions into store ...
//	eng := engine.New(fisher.NewCached(store, 1000), fsh.DefaultOptions(), logger)
//
//	sd, result := eng.Compile(doc)
//	for _, issue := range result.Issues {
//	    fmt.Println(issue)
//	}
//
// # Architecture
//
//   - element: element nodes, the ordered element tree, unfolding, diffing
//   - fisher: chained name/id/URL resolution with fixed precedence
//   - rules: the tagged rule union produced by the external parser
//   - engine: the ordered rule interpreter with per-rule failure isolation
//   - loader/export: wire-model conversion at the edges
//
// The core holds no global state: every compilation gets its own tree, and
// independent artifacts may be compiled in parallel against the shared
// read-only fisher.
package fshcompiler
