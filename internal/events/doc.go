// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package events propagates catalog and interaction changes between Shoprec
instances using Watermill.

Topics:

  - shoprec.catalog.changed: items were added, updated or removed
  - shoprec.interactions.changed: user interactions were recorded

Both carry a JSON Change payload {kind, ids, occurred_at}.

Transport:

With events enabled, messages flow over NATS (JetStream by default) through
watermill-nats. With events disabled, a process-local gochannel pub/sub is
used so that writes made through the API still invalidate this instance.
Single-node deployments can start an EmbeddedServer, an in-process NATS
server with JetStream, instead of running a broker.

Handling:

The Handler drops the affected feature cache prefixes, clears the engine
response cache and, for catalog changes, rebuilds the content and popularity
indexes. Malformed payloads are acknowledged and counted so that they are
not redelivered forever. Router wraps the Watermill router with panic
recovery and retry middleware and is run by the supervisor.
*/
package events
