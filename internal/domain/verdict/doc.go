// Package verdict defines the per-frame output of the monitor and the Sink
// interface implemented by everything that consumes it (logs, gRPC
// subscribers, notifications, the display window).
package verdict
