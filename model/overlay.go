package model

// MediaStatus is the processing state of a shot's downstream video artifact.
type MediaStatus string

const (
	MediaNone       MediaStatus = "none"
	MediaProcessing MediaStatus = "processing"
	MediaCompleted  MediaStatus = "completed"
	MediaFailed     MediaStatus = "failed"
)

// ShotMedia is the latest known downstream media state for one shot. This is
// a side table refreshed by polling, not part of the timeline's own
// persisted state.
type ShotMedia struct {
	ShotID       string      `json:"shotId"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	VideoURL     string      `json:"videoUrl,omitempty"`
	Status       MediaStatus `json:"status"`
}

// MediaOverlay maps shot id to its latest media state.
type MediaOverlay map[string]ShotMedia

// Locked reports whether any shot has a finished downstream video. Once true,
// duration edits would silently desynchronize video and audio, so the
// workbench freezes them.
func (o MediaOverlay) Locked() bool {
	for _, m := range o {
		if m.Status == MediaCompleted && m.VideoURL != "" {
			return true
		}
	}
	return false
}

// AnyProcessing reports whether any shot is still mid-processing; the overlay
// poller keeps running only while this holds.
func (o MediaOverlay) AnyProcessing() bool {
	for _, m := range o {
		if m.Status == MediaProcessing {
			return true
		}
	}
	return false
}
