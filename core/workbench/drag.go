package workbench

import (
	"errors"
	"fmt"

	tl "CutRoom/core/timeline"
	"CutRoom/core/view"
)

// ErrNoDrag means a move/end arrived without a drag in progress.
var ErrNoDrag = errors.New("no drag in progress")

// BeginDrag starts a trailing-edge resize for shotID at pointerX under the
// given scale. Refused while locked: a resize that cannot be applied must
// not start giving live feedback either.
func (s *Session) BeginDrag(shotID string, pointerX float64, scale view.Scale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overlay.Locked() {
		return ErrLocked
	}
	if s.drag != nil && s.drag.Active() {
		return fmt.Errorf("drag already active for shot %s", s.drag.ShotID())
	}
	shot := s.timeline.FindShot(shotID)
	if shot == nil {
		return fmt.Errorf("unknown shot %s", shotID)
	}

	d := view.NewDrag(s.rules, scale)
	d.Begin(shot, pointerX)
	s.drag = d
	return nil
}

// MoveDrag returns the live bounded duration for the pointer position. The
// timeline is not mutated; only EndDrag applies the resize.
func (s *Session) MoveDrag(pointerX float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag == nil || !s.drag.Active() {
		return 0, ErrNoDrag
	}
	shot := s.timeline.FindShot(s.drag.ShotID())
	if shot == nil {
		s.drag.Cancel()
		return 0, ErrNoDrag
	}
	bounded, ok := s.drag.Move(shot, pointerX)
	if !ok {
		return 0, ErrNoDrag
	}
	return bounded, nil
}

// EndDrag finalizes the resize at pointerX, applying the bounded duration
// and rebuilding timecodes. A lock that appeared mid-drag (the overlay poll
// runs concurrently) cancels the drag instead of applying it.
func (s *Session) EndDrag(pointerX float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag == nil || !s.drag.Active() {
		return 0, ErrNoDrag
	}
	if s.overlay.Locked() {
		s.drag.Cancel()
		return 0, ErrLocked
	}
	shot := s.timeline.FindShot(s.drag.ShotID())
	if shot == nil {
		s.drag.Cancel()
		return 0, ErrNoDrag
	}
	bounded, ok := s.drag.End(shot, pointerX)
	if !ok {
		return 0, ErrNoDrag
	}
	shot.Duration = bounded
	tl.RebuildTimecodes(s.timeline)
	return bounded, nil
}

// CancelDrag abandons any drag in progress.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag != nil {
		s.drag.Cancel()
	}
}
