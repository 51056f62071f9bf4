// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with console or JSON encoding,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level and format parsing utilities,
//   - convenience functions (Infof, WarnKV, ErrorKV, etc.).
//
// The frame loop, sinks and CLIs accept a context and extract the logger from
// it, so session and zone fields follow every message.
package logger
