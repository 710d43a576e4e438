package view

import (
	"math"

	"CutRoom/model"
)

// Scale is the single shared pixels-per-second zoom for every lane. Lanes
// never store their own positions; everything derives from the rebuilt
// timecodes and this scale.
type Scale struct {
	PixelsPerSecond float64
	Min             float64
	Max             float64
}

// NewScale clamps pps into [min, max].
func NewScale(pps, min, max float64) Scale {
	s := Scale{Min: min, Max: max}
	s.PixelsPerSecond = s.clamp(pps)
	return s
}

func (s Scale) clamp(pps float64) float64 {
	if pps < s.Min {
		return s.Min
	}
	if pps > s.Max {
		return s.Max
	}
	return pps
}

// Zoom returns a copy with pps multiplied by factor, clamped to the bounds.
func (s Scale) Zoom(factor float64) Scale {
	s.PixelsPerSecond = s.clamp(s.PixelsPerSecond * factor)
	return s
}

// X converts a time offset to a pixel offset.
func (s Scale) X(seconds float64) float64 {
	return seconds * s.PixelsPerSecond
}

// TimeAt converts a click position plus scroll offset back to seconds.
func (s Scale) TimeAt(clickX, scrollOffset float64) float64 {
	if s.PixelsPerSecond <= 0 {
		return 0
	}
	t := (clickX + scrollOffset) / s.PixelsPerSecond
	if t < 0 {
		return 0
	}
	return t
}

// Tick is one ruler mark.
type Tick struct {
	X     float64 `json:"x"`
	Label string  `json:"label,omitempty"`
	Major bool    `json:"major"`
}

// RulerTicks lays out one tick per whole second, with a labeled major tick
// every five seconds.
func RulerTicks(totalDuration float64, s Scale) []Tick {
	n := int(math.Ceil(totalDuration))
	ticks := make([]Tick, 0, n+1)
	for sec := 0; sec <= n; sec++ {
		tick := Tick{X: s.X(float64(sec))}
		if sec%5 == 0 {
			tick.Major = true
			tick.Label = formatSeconds(sec)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

func formatSeconds(sec int) string {
	m := sec / 60
	s := sec % 60
	return pad2(m) + ":" + pad2(s)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

// ShotBox is the lane geometry for one shot block.
type ShotBox struct {
	ShotID    string  `json:"shotId"`
	SegmentID string  `json:"segmentId"`
	Name      string  `json:"name"`
	Left      float64 `json:"left"`
	Width     float64 `json:"width"`
	Thumbnail string  `json:"thumbnail,omitempty"`
}

// ShotBoxes computes the shot-lane geometry: left from the derived start
// timecode, width from the duration, floored at minWidth so a very short
// shot stays clickable.
func ShotBoxes(t *model.AudioTimeline, s Scale, minWidth float64) []ShotBox {
	boxes := make([]ShotBox, 0, t.ShotCount())
	t.Walk(func(seg *model.Segment, shot *model.Shot) {
		w := s.X(shot.Duration)
		if w < minWidth {
			w = minWidth
		}
		boxes = append(boxes, ShotBox{
			ShotID:    shot.ShotID,
			SegmentID: seg.SegmentID,
			Name:      shot.Name,
			Left:      s.X(shot.TimecodeStart),
			Width:     w,
			Thumbnail: shot.ThumbnailURL,
		})
	})
	return boxes
}

// ClipBox is the geometry for one audio clip in a category lane.
type ClipBox struct {
	ShotID   string  `json:"shotId"`
	URL      string  `json:"url"`
	Left     float64 `json:"left"`
	Width    float64 `json:"width"`
	Duration float64 `json:"duration"` // seconds represented by the box
}

// AudioClipBoxes computes one category lane. Only shots with a resolved URL
// for the category appear; the box is sized to min(shot duration, voice
// duration) so a clip never visually overruns its shot boundary even when
// the rendered asset is longer.
func AudioClipBoxes(t *model.AudioTimeline, cat model.VoiceCategory, s Scale, minWidth float64) []ClipBox {
	var boxes []ClipBox
	t.Walk(func(_ *model.Segment, shot *model.Shot) {
		url := shot.AudioURL(cat)
		if url == "" {
			return
		}
		span := shot.Duration
		if voice := shot.VoiceDuration(cat); voice > 0 && voice < span {
			span = voice
		}
		w := s.X(span)
		if w < minWidth {
			w = minWidth
		}
		boxes = append(boxes, ClipBox{
			ShotID:   shot.ShotID,
			URL:      url,
			Left:     s.X(shot.TimecodeStart),
			Width:    w,
			Duration: span,
		})
	})
	return boxes
}

// PlayheadX positions the shared playhead marker from the transport position.
func PlayheadX(position float64, s Scale) float64 {
	if position < 0 {
		position = 0
	}
	return s.X(position)
}

// ShotAt returns the shot whose span contains the given time, or nil.
func ShotAt(t *model.AudioTimeline, seconds float64) *model.Shot {
	var found *model.Shot
	t.Walk(func(_ *model.Segment, shot *model.Shot) {
		if found == nil && seconds >= shot.TimecodeStart && seconds < shot.TimecodeEnd {
			found = shot
		}
	})
	return found
}
