package view

import (
	"testing"

	"CutRoom/core/timeline"
	"CutRoom/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragResize(t *testing.T) {
	shot := &model.Shot{ShotID: "a", Duration: 4.0}
	drag := NewDrag(timeline.DefaultRules, NewScale(100, 10, 200))

	assert.False(t, drag.Active())
	require.True(t, drag.Begin(shot, 400))
	assert.True(t, drag.Active())
	assert.Equal(t, "a", drag.ShotID())

	// 120px right at 100 pps = +1.2s, snapped up to the grid.
	bounded, ok := drag.Move(shot, 520)
	require.True(t, ok)
	assert.InDelta(t, 5.5, bounded, 1e-9)

	// Dragging far left clamps at the 2s floor.
	bounded, ok = drag.Move(shot, 0)
	require.True(t, ok)
	assert.InDelta(t, 2.0, bounded, 1e-9)

	final, ok := drag.End(shot, 450)
	require.True(t, ok)
	assert.InDelta(t, 4.5, final, 1e-9)
	assert.False(t, drag.Active())
}

func TestDragHonorsVoiceFloor(t *testing.T) {
	shot := &model.Shot{ShotID: "a", Duration: 6.0, VoiceDurationMs: 4200}
	drag := NewDrag(timeline.DefaultRules, NewScale(100, 10, 200))

	require.True(t, drag.Begin(shot, 600))
	bounded, ok := drag.Move(shot, 100) // request 1.0s
	require.True(t, ok)
	assert.InDelta(t, 4.5, bounded, 1e-9, "cannot drag below the voice track")
}

func TestDragGuards(t *testing.T) {
	shotA := &model.Shot{ShotID: "a", Duration: 3.0}
	shotB := &model.Shot{ShotID: "b", Duration: 3.0}
	drag := NewDrag(timeline.DefaultRules, NewScale(100, 10, 200))

	// Move without Begin produces nothing.
	_, ok := drag.Move(shotA, 50)
	assert.False(t, ok)

	require.True(t, drag.Begin(shotA, 0))
	assert.False(t, drag.Begin(shotB, 0), "one drag at a time")

	// Moves against a different shot are ignored.
	_, ok = drag.Move(shotB, 50)
	assert.False(t, ok)

	drag.Cancel()
	assert.False(t, drag.Active())
	assert.Empty(t, drag.ShotID())
}
