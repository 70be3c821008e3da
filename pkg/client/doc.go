// Package client provides a Go client for the flowrun HTTP API
//
// The client covers flow registration, simplified and advanced runs,
// session history and request schemas. A fluent Run builder assembles
// simplified run requests
package client
