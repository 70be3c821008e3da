// Package api defines the data types shared by the flow-run service and its
// clients
//
// This package contains the inbound request shapes (InputValueRequest,
// SimplifiedAPIRequest, RunFlowRequest) together with their validation
// rules, the flow graph model those requests target, and the HTTP response
// messages
package api
