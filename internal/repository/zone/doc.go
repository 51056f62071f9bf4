// Package zone implements persistence for restricted zones.
//
// The FileRepository stores zones as a JSON array on disk, replaces the file
// atomically on save and treats a missing or blank file as "no zones".
package zone
