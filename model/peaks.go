package model

// PeaksData is a fixed-resolution max-amplitude envelope of one audio
// resource. Immutable once computed; cached by (URL, PointCount).
type PeaksData struct {
	Peaks    []float64 `json:"peaks"`    // normalized to [0,1]
	Duration float64   `json:"duration"` // seconds
}

// PeaksKey is the composite cache key for an envelope.
type PeaksKey struct {
	URL        string
	PointCount int
}
