// Package zone contains the restricted area model and its geometry.
//
// A Zone is an immutable named polygon in frame-pixel coordinates. Contains
// performs the point-in-polygon test used by the intrusion classifier; points
// on the boundary count as inside.
package zone
