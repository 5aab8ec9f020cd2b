package types

import "time"

// Frame is a single thermal frame as delivered by the camera.
// Data holds Width*Height GRAY8 intensity samples. A frame is immutable
// once delivered; the pipeline owns it only for one render cycle.
type Frame struct {
	// Seq is the monotonic sequence number
	Seq uint64
	// Timestamp is when the frame was captured/decoded
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Data contains the raw intensity plane (GRAY8, one byte per pixel)
	Data []byte
	// TraceID is a unique identifier for tracing a frame across the pipeline
	TraceID string
}

// ThermalSample is one reading from the host temperature sensor.
// Samples are compared against the shutdown threshold and not retained.
type ThermalSample struct {
	Celsius   float64
	SampledAt time.Time
}

// StreamStats contains stream statistics
type StreamStats struct {
	FrameCount  uint64
	FPSTarget   int
	FPSReal     float64
	Resolution  string
	Restarts    uint32
	BytesRead   uint64
	IsConnected bool
	Errors      uint64
}
