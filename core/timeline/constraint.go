package timeline

import (
	"fmt"
	"math"

	"CutRoom/model"
)

// voiceTolerance absorbs float noise when comparing a shot duration against
// a voice-track length measured in milliseconds.
const voiceTolerance = 0.001

// Rules holds the timing constants the constraint engine applies. All
// functions on Rules are pure and never fail for valid-shaped input:
// out-of-range numbers are clamped, not rejected.
type Rules struct {
	MinShotSeconds  float64 // hard floor for any shot duration
	GridStepSeconds float64 // durations snap up to multiples of this
	AlignPadSeconds float64 // breathing room added by AlignToVoice
}

// DefaultRules mirrors the production defaults: 2 second floor, half-second
// grid, 0.4 second align pad.
var DefaultRules = Rules{
	MinShotSeconds:  2.0,
	GridStepSeconds: 0.5,
	AlignPadSeconds: 0.4,
}

// snapUp rounds x up to the nearest grid boundary. Exact multiples stay put;
// the epsilon keeps float noise from bumping them a full step.
func (r Rules) snapUp(x float64) float64 {
	step := r.GridStepSeconds
	if step <= 0 {
		return x
	}
	return math.Ceil(x/step-1e-9) * step
}

// EnforceShotConstraint clamps a requested duration to the shot's minimum
// (the 2 second floor or the longest voice track, whichever is larger) and
// snaps the result up to the grid. It never adjusts downward: a drag shorter
// than the voice track silently raises the duration instead of rejecting the
// edit.
func (r Rules) EnforceShotConstraint(shot *model.Shot, requested float64) float64 {
	minRequired := r.MinShotSeconds
	if voice := shot.LongestVoiceSeconds(); voice > minRequired {
		minRequired = voice
	}
	if requested < minRequired {
		requested = minRequired
	}
	return r.snapUp(requested)
}

// RebuildTimecodes walks segments and shots in order, accumulating a running
// offset into each shot's start/end and the root's total duration. Must run
// after every duration mutation; it is idempotent.
func RebuildTimecodes(t *model.AudioTimeline) {
	offset := float64(0)
	t.Walk(func(_ *model.Segment, shot *model.Shot) {
		shot.TimecodeStart = offset
		shot.TimecodeEnd = offset + shot.Duration
		offset = shot.TimecodeEnd
	})
	t.TotalDuration = offset
}

// AlignToVoice raises every voiced shot to its voice length plus the pad,
// snapped to the grid, keeping the current duration when it is already
// longer. Shots without a voice track are untouched. Timecodes are rebuilt
// before returning.
func (r Rules) AlignToVoice(t *model.AudioTimeline) {
	t.Walk(func(_ *model.Segment, shot *model.Shot) {
		voice := shot.LongestVoiceSeconds()
		if voice <= 0 {
			return
		}
		target := r.snapUp(voice + r.AlignPadSeconds)
		if target < shot.Duration {
			target = shot.Duration
		}
		shot.Duration = r.EnforceShotConstraint(shot, target)
	})
	RebuildTimecodes(t)
}

// Violation reports one shot whose stored duration fails the model.
type Violation struct {
	ShotID string `json:"shotId"`
	Reason string `json:"reason"`
}

// Violations scans the timeline for shots whose stored duration breaks the
// minimum-duration-vs-voice-length constraint. Read-only: nothing is fixed
// here. Saving while the list is non-empty must be refused.
func (r Rules) Violations(t *model.AudioTimeline) []Violation {
	var out []Violation
	t.Walk(func(_ *model.Segment, shot *model.Shot) {
		if voice := shot.LongestVoiceSeconds(); voice > 0 && shot.Duration < voice-voiceTolerance {
			out = append(out, Violation{
				ShotID: shot.ShotID,
				Reason: fmt.Sprintf("duration %.3fs shorter than voice track %.3fs", shot.Duration, voice),
			})
			return
		}
		if shot.Duration < r.MinShotSeconds-voiceTolerance {
			out = append(out, Violation{
				ShotID: shot.ShotID,
				Reason: fmt.Sprintf("duration %.3fs below the %.1fs minimum", shot.Duration, r.MinShotSeconds),
			})
		}
	})
	return out
}
