// Package api defines the wire-format types, service facades and the HTTP
// client shared by the daemon's HTTP server and the CLI.
//
// # Key Types
//
// ShowListResponse: one page of shows with pagination totals.
//
// Job: transport representation of a queue job.
//
// DaemonStatus: daemon running state, dependency checks, handler health and
// per-queue counts.
//
// # Services
//
// ShowService and QueueService validate request input and translate store
// errors into the classified errors the server maps onto status codes.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Job payloads pass through as json.RawMessage.
package api
