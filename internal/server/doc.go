// Package server implements the HTTP API for registering and running flows
//
// This package provides REST endpoints for flows, runs, sessions, request
// schemas and health checks, plus a WebSocket endpoint that streams run
// events
package server
