// Package flowrun is the root of the flow-run service. It carries the build
// identity reported by the logger and the health endpoint
package flowrun

const Name = "flowrun"

// Version is overridden at link time
var Version = "dev"
