package model

import "time"

// AudioTimeline is the root aggregate for one project's audio cut. Timecodes
// and TotalDuration are derived from shot durations and rebuilt by the
// constraint engine after every mutation; they are never set independently.
type AudioTimeline struct {
	ID                int64     `json:"id"`
	ProjectID         string    `json:"projectId"`
	Segments          []Segment `json:"segments"`
	TotalDuration     float64   `json:"totalDuration"`
	MasterAudioURL    string    `json:"masterAudioUrl,omitempty"`
	MasterMixAudioURL string    `json:"masterMixAudioUrl,omitempty"`
	Confirmed         bool      `json:"confirmed"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Segment is a named, ordered grouping of shots. Purely organizational; it
// carries no timing of its own.
type Segment struct {
	SegmentID string `json:"segmentId"`
	Name      string `json:"name"`
	Shots     []Shot `json:"shots"`
}

// Shot is the atomic editable unit. Duration is the only independently
// editable timing field; TimecodeStart/TimecodeEnd are derived.
type Shot struct {
	ShotID        string  `json:"shotId"`
	Name          string  `json:"name"`
	Duration      float64 `json:"duration"` // seconds
	TimecodeStart float64 `json:"timecodeStart"`
	TimecodeEnd   float64 `json:"timecodeEnd"`

	// Voice tracks. Durations are measured from the rendered audio asset,
	// not from the shot's visual duration. VoiceAudioURL is a shared
	// fallback used when a category-specific track is absent.
	NarrationAudioURL   string `json:"narrationAudioUrl,omitempty"`
	NarrationDurationMs int64  `json:"narrationDurationMs,omitempty"`
	DialogueAudioURL    string `json:"dialogueAudioUrl,omitempty"`
	DialogueDurationMs  int64  `json:"dialogueDurationMs,omitempty"`
	VoiceAudioURL       string `json:"voiceAudioUrl,omitempty"`
	VoiceDurationMs     int64  `json:"voiceDurationMs,omitempty"`

	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// VoiceCategory names one audio lane.
type VoiceCategory string

const (
	CategoryNarration VoiceCategory = "narration"
	CategoryDialogue  VoiceCategory = "dialogue"
	CategoryEffects   VoiceCategory = "effects"
)

// AudioURL returns the resolved audio URL for a category, falling back to
// the shared voice track when the category-specific one is absent.
func (s *Shot) AudioURL(cat VoiceCategory) string {
	switch cat {
	case CategoryNarration:
		if s.NarrationAudioURL != "" {
			return s.NarrationAudioURL
		}
	case CategoryDialogue:
		if s.DialogueAudioURL != "" {
			return s.DialogueAudioURL
		}
	default:
		return ""
	}
	return s.VoiceAudioURL
}

// VoiceDuration returns the duration of the category track in seconds, with
// the shared-voice fallback. Zero means no known voice track.
func (s *Shot) VoiceDuration(cat VoiceCategory) float64 {
	switch cat {
	case CategoryNarration:
		if s.NarrationDurationMs > 0 {
			return float64(s.NarrationDurationMs) / 1000.0
		}
	case CategoryDialogue:
		if s.DialogueDurationMs > 0 {
			return float64(s.DialogueDurationMs) / 1000.0
		}
	default:
		return 0
	}
	if s.VoiceDurationMs > 0 {
		return float64(s.VoiceDurationMs) / 1000.0
	}
	return 0
}

// LongestVoiceSeconds returns the longest known voice track length across
// all categories. The constraint engine uses this as the duration floor.
func (s *Shot) LongestVoiceSeconds() float64 {
	longest := float64(0)
	for _, ms := range []int64{s.NarrationDurationMs, s.DialogueDurationMs, s.VoiceDurationMs} {
		if sec := float64(ms) / 1000.0; sec > longest {
			longest = sec
		}
	}
	return longest
}

// Walk visits every shot in playback order.
func (t *AudioTimeline) Walk(fn func(seg *Segment, shot *Shot)) {
	for si := range t.Segments {
		seg := &t.Segments[si]
		for hi := range seg.Shots {
			fn(seg, &seg.Shots[hi])
		}
	}
}

// FindShot returns the shot with the given id, or nil.
func (t *AudioTimeline) FindShot(shotID string) *Shot {
	var found *Shot
	t.Walk(func(_ *Segment, shot *Shot) {
		if shot.ShotID == shotID {
			found = shot
		}
	})
	return found
}

// ShotCount returns the number of shots across all segments.
func (t *AudioTimeline) ShotCount() int {
	n := 0
	t.Walk(func(_ *Segment, _ *Shot) { n++ })
	return n
}
