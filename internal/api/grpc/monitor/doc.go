// Package monitor implements the gRPC transport for intrusion verdicts.
//
// The service is registered by hand with protobuf well-known types, so no
// generated code is needed: GetAlarmState returns the latest verdict and
// WatchVerdicts streams one google.protobuf.Struct per processed frame.
// A Hub receives verdicts from the frame loop and fans them out to streams.
package monitor
