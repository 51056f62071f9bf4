// Package zones implements the zone-editor commands: add, list, remove and check.
//
// Edits are written atomically to the zones file. A running intrusion-monitor
// keeps the zones it loaded at startup, so the editor warns when one is found.
package zones
