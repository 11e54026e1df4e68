// Package planner turns probed streams into a per-file decision: transcode
// to HEVC, or skip because the primary video stream is already HEVC.
package planner
