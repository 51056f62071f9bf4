// Package watcher follows a running monitor over gRPC and logs alarm transitions.
package watcher
