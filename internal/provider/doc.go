// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package provider holds decorators for recommend.FeatureProvider.

The server stacks them around the DuckDB provider:

	engine -> CachedProvider (Badger) -> BreakerProvider (gobreaker) -> database.DB

CachedProvider stores provider results in Badger with a per-call TTL and is
invalidated by prefix when catalog or interaction events arrive.
BreakerProvider fails fast with recommend.ErrDataUnavailable while the
database is unhealthy, so strategies keep serving their last index.
*/
package provider
