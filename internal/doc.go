// Package internal documents the ByteDefence service internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP routing, handlers, middleware and problem responses
// - graphql: the BookStore and order management schemas and resolvers
// - domain: business rules for books and orders, plus shared query filters
// - storage: the in-memory and PostgreSQL repositories
// - relay, notify: the websocket notification relay and its producers
// - client: the Go client for the order management API and relay
// - auth, config, metrics, telemetry, pubsub, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
