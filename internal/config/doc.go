// Package config defines settings used by the binaries and provides helpers
// to load, validate and save them in YAML format.
//
// Secrets such as the Telegram token may come from the environment or a .env
// file instead of the YAML file.
package config
