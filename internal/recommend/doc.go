// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package recommend implements a hybrid product recommendation engine.
//
// # Architecture
//
// The engine combines interchangeable strategies through scene-weighted blending:
//
//   - Popularity: overall and per-category rankings
//   - Content similarity: TF-IDF vectors over catalog text
//   - Item-to-item CF: Jaccard similarity of co-purchasing users
//   - User-to-user CF: cosine similarity of weighted interaction rows
//
// Strategies live in the strategies subpackage and are registered by name in
// a Registry. The Blender looks up the weight table for the request's scene,
// invokes every weighted strategy and fuses the scores. The Engine adds
// request validation, request IDs, a response cache and metrics.
//
// # Data Access
//
// Strategies read catalog and interaction data through the FeatureProvider
// interface. Provider failures surface as ErrDataUnavailable; the engine does
// not retry. Caching and circuit breaking are provider decorators.
//
// # Determinism
//
// For fixed provider data and weights, Recommend returns identical ordered
// output. Every sort breaks score ties by item ID ascending.
//
// # Usage
//
//	registry, err := strategies.Build(cfg, provider, logger)
//	engine, err := recommend.NewEngine(cfg, registry, logger)
//
//	resp, err := engine.Recommend(ctx, "u-1001", recommend.Context{
//	    Scene:  "detail",
//	    ItemID: "sku-42",
//	    Count:  10,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Each strategy keeps its index behind
// an atomic pointer: a refresh builds a new index off to the side and swaps
// it in, so readers see either the old or the new index, never a partial one.
package recommend
