// Package detection holds the per-frame detection model and the track classifier
// that partitions detections into intruders and non-intruders for a zone.
package detection
