package view

import (
	"testing"

	tl "CutRoom/core/timeline"
	"CutRoom/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTimeline() *model.AudioTimeline {
	t := &model.AudioTimeline{Segments: []model.Segment{{
		SegmentID: "seg-1",
		Shots: []model.Shot{
			{ShotID: "a", Name: "wide", Duration: 2.0, NarrationAudioURL: "/static/a.mp3", NarrationDurationMs: 1500},
			{ShotID: "b", Name: "close", Duration: 3.5, VoiceAudioURL: "/static/b.mp3", VoiceDurationMs: 5000},
			{ShotID: "c", Name: "insert", Duration: 4.0},
		},
	}}}
	tl.RebuildTimecodes(t)
	return t
}

func TestScaleClamp(t *testing.T) {
	s := NewScale(500, 10, 200)
	assert.Equal(t, 200.0, s.PixelsPerSecond)
	s = NewScale(1, 10, 200)
	assert.Equal(t, 10.0, s.PixelsPerSecond)

	s = NewScale(50, 10, 200)
	assert.Equal(t, 100.0, s.Zoom(2).PixelsPerSecond)
	assert.Equal(t, 200.0, s.Zoom(100).PixelsPerSecond)
	assert.Equal(t, 10.0, s.Zoom(0.001).PixelsPerSecond)
}

func TestTimeAt(t *testing.T) {
	s := NewScale(100, 10, 200)
	assert.InDelta(t, 3.2, s.TimeAt(120, 200), 1e-9)
	assert.Equal(t, 0.0, s.TimeAt(-50, 0), "clicks left of origin clamp to zero")
}

func TestRulerTicks(t *testing.T) {
	s := NewScale(10, 1, 200)
	ticks := RulerTicks(9.5, s)
	require.Len(t, ticks, 11) // seconds 0..10

	assert.True(t, ticks[0].Major)
	assert.Equal(t, "00:00", ticks[0].Label)
	assert.False(t, ticks[1].Major)
	assert.Empty(t, ticks[1].Label)
	assert.True(t, ticks[5].Major)
	assert.Equal(t, "00:05", ticks[5].Label)
	assert.Equal(t, 70.0, ticks[7].X)
}

func TestRulerLabelsPastAMinute(t *testing.T) {
	s := NewScale(1, 1, 200)
	ticks := RulerTicks(65, s)
	assert.Equal(t, "01:05", ticks[65].Label)
}

func TestShotBoxes(t *testing.T) {
	timeline := buildTimeline()
	s := NewScale(100, 10, 200)

	boxes := ShotBoxes(timeline, s, 4)
	require.Len(t, boxes, 3)
	assert.Equal(t, 0.0, boxes[0].Left)
	assert.Equal(t, 200.0, boxes[0].Width)
	assert.Equal(t, 200.0, boxes[1].Left)
	assert.Equal(t, 350.0, boxes[1].Width)
	assert.Equal(t, 550.0, boxes[2].Left)
	assert.Equal(t, "seg-1", boxes[2].SegmentID)
}

func TestShotBoxesMinimumWidth(t *testing.T) {
	timeline := buildTimeline()
	s := NewScale(10, 10, 200) // shot a: 2.0s * 10 = 20px, fine; force tiny scale via minWidth
	boxes := ShotBoxes(timeline, s, 30)
	assert.Equal(t, 30.0, boxes[0].Width, "width floors at the minimum visible width")
}

func TestAudioClipBoxes(t *testing.T) {
	timeline := buildTimeline()
	s := NewScale(100, 10, 200)

	narration := AudioClipBoxes(timeline, model.CategoryNarration, s, 4)
	require.Len(t, narration, 2) // shot c has no audio at all

	// Shot a: voice 1.5s < duration 2.0s, clip shrinks to the voice span.
	assert.Equal(t, "a", narration[0].ShotID)
	assert.InDelta(t, 150.0, narration[0].Width, 1e-9)

	// Shot b falls back to the shared voice track; voice 5.0s > duration
	// 3.5s, so the clip is capped at the shot boundary.
	assert.Equal(t, "b", narration[1].ShotID)
	assert.Equal(t, "/static/b.mp3", narration[1].URL)
	assert.InDelta(t, 350.0, narration[1].Width, 1e-9)

	// Shot a has no dialogue track and no shared fallback, so only shot b
	// (via the shared voice track) lands in the dialogue lane.
	dialogue := AudioClipBoxes(timeline, model.CategoryDialogue, s, 4)
	require.Len(t, dialogue, 1)
	assert.Equal(t, "b", dialogue[0].ShotID)
}

func TestPlayheadAndShotAt(t *testing.T) {
	timeline := buildTimeline()
	s := NewScale(50, 10, 200)

	assert.Equal(t, 110.0, PlayheadX(2.2, s))
	assert.Equal(t, 0.0, PlayheadX(-1, s))

	shot := ShotAt(timeline, 2.2)
	require.NotNil(t, shot)
	assert.Equal(t, "b", shot.ShotID)
	assert.Nil(t, ShotAt(timeline, 99))
}
