package view

import (
	"CutRoom/core/timeline"
	"CutRoom/model"
)

// DragPhase is the resize interaction's state.
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragActive
)

// Drag is the explicit state machine for trailing-edge shot resizing:
// Idle -> Dragging(shotID, startX, startDuration) -> Idle. Pointer deltas
// convert to duration deltas through the shared scale, and every move runs
// the constraint function so the caller gets live, already-bounded feedback.
type Drag struct {
	phase         DragPhase
	shotID        string
	startX        float64
	startDuration float64
	rules         timeline.Rules
	scale         Scale
}

// NewDrag creates an idle drag machine over the given rules and scale.
func NewDrag(rules timeline.Rules, scale Scale) *Drag {
	return &Drag{rules: rules, scale: scale}
}

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool { return d.phase == DragActive }

// ShotID returns the shot being resized, or "" when idle.
func (d *Drag) ShotID() string {
	if d.phase != DragActive {
		return ""
	}
	return d.shotID
}

// Begin starts a drag on a shot's trailing edge. Returns false if a drag is
// already active.
func (d *Drag) Begin(shot *model.Shot, pointerX float64) bool {
	if d.phase != DragIdle {
		return false
	}
	d.phase = DragActive
	d.shotID = shot.ShotID
	d.startX = pointerX
	d.startDuration = shot.Duration
	return true
}

// Move converts the pointer delta to a requested duration and bounds it.
// The shot is needed again here because the constraint floor depends on its
// voice tracks. Returns the bounded duration and whether it applies.
func (d *Drag) Move(shot *model.Shot, pointerX float64) (float64, bool) {
	if d.phase != DragActive || shot.ShotID != d.shotID {
		return 0, false
	}
	if d.scale.PixelsPerSecond <= 0 {
		return d.startDuration, true
	}
	requested := d.startDuration + (pointerX-d.startX)/d.scale.PixelsPerSecond
	return d.rules.EnforceShotConstraint(shot, requested), true
}

// End finalizes the drag and returns the machine to idle. The returned
// duration is the same bounded value a final Move would produce.
func (d *Drag) End(shot *model.Shot, pointerX float64) (float64, bool) {
	bounded, ok := d.Move(shot, pointerX)
	d.Cancel()
	return bounded, ok
}

// Cancel abandons the drag without producing a value.
func (d *Drag) Cancel() {
	d.phase = DragIdle
	d.shotID = ""
	d.startX = 0
	d.startDuration = 0
}
