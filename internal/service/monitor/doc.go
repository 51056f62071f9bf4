// Package monitor runs the intrusion detection frame loop.
//
// A Pipeline evaluates each frame's detections against every configured zone
// and feeds the result into that zone's alarm controller. Run wires the
// pipeline to a frame source, a detector and the verdict sinks: logs, the gRPC
// verdict service, Telegram notifications and the display window.
package monitor
