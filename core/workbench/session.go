package workbench

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"CutRoom/core/renderapi"
	tl "CutRoom/core/timeline"
	"CutRoom/core/transport"
	"CutRoom/core/view"
	"CutRoom/logger"
	"CutRoom/model"
	"CutRoom/repository"
)

var (
	// ErrLocked means downstream video exists for some shot: duration edits
	// would silently desynchronize video and audio, so they are refused.
	ErrLocked = errors.New("timeline locked: downstream video exists")

	// ErrViolations means the timeline holds shots that break the duration
	// constraint; saving is refused until they are fixed.
	ErrViolations = errors.New("timeline has constraint violations")
)

// Session owns one project's timeline for the duration of a workbench visit.
// The timeline is mutated purely locally until an explicit save; every
// mutation funnels through the constraint engine and ends with a timecode
// rebuild under the session mutex, so the rendering layer never observes
// stale timecodes.
type Session struct {
	mu sync.Mutex

	ProjectID string

	timeline *model.AudioTimeline
	overlay  model.MediaOverlay

	rules    tl.Rules
	repo     repository.TimelineRepository
	backend  *renderapi.Client
	resolver URLResolver
	engine   *transport.Engine

	poller *overlayPoller
	drag   *view.Drag
}

// NewSession wires a session from its collaborators. The timeline's
// timecodes are rebuilt immediately: imported data may carry stale ones.
func NewSession(
	projectID string,
	timeline *model.AudioTimeline,
	overlay model.MediaOverlay,
	rules tl.Rules,
	repo repository.TimelineRepository,
	backend *renderapi.Client,
	resolver URLResolver,
	engine *transport.Engine,
) *Session {
	tl.RebuildTimecodes(timeline)
	if overlay == nil {
		overlay = model.MediaOverlay{}
	}
	return &Session{
		ProjectID: projectID,
		timeline:  timeline,
		overlay:   overlay,
		rules:     rules,
		repo:      repo,
		backend:   backend,
		resolver:  resolver,
		engine:    engine,
	}
}

// Engine returns the session's playback transport.
func (s *Session) Engine() *transport.Engine { return s.engine }

// Rules returns the session's constraint rules.
func (s *Session) Rules() tl.Rules { return s.rules }

// Snapshot returns a deep copy of the timeline with asset URLs resolved,
// safe for the rendering layer to walk without holding the session lock.
func (s *Session) Snapshot() *model.AudioTimeline {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *s.timeline
	copied.Segments = make([]model.Segment, len(s.timeline.Segments))
	for i, seg := range s.timeline.Segments {
		copied.Segments[i] = seg
		copied.Segments[i].Shots = append([]model.Shot(nil), seg.Shots...)
	}
	copied.MasterAudioURL = s.resolver.Resolve(copied.MasterAudioURL)
	copied.MasterMixAudioURL = s.resolver.Resolve(copied.MasterMixAudioURL)
	for i := range copied.Segments {
		for j := range copied.Segments[i].Shots {
			shot := &copied.Segments[i].Shots[j]
			shot.NarrationAudioURL = s.resolver.Resolve(shot.NarrationAudioURL)
			shot.DialogueAudioURL = s.resolver.Resolve(shot.DialogueAudioURL)
			shot.VoiceAudioURL = s.resolver.Resolve(shot.VoiceAudioURL)
			shot.ThumbnailURL = s.resolver.Resolve(shot.ThumbnailURL)
		}
	}
	return &copied
}

// Overlay returns a copy of the media overlay map.
func (s *Session) Overlay() model.MediaOverlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.MediaOverlay, len(s.overlay))
	for k, v := range s.overlay {
		out[k] = v
	}
	return out
}

// Locked reports the editing-disabled condition.
func (s *Session) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay.Locked()
}

// setOverlay replaces the overlay map (poller callback).
func (s *Session) setOverlay(overlay model.MediaOverlay) {
	s.mu.Lock()
	s.overlay = overlay
	s.mu.Unlock()
}

// ResizeShot applies a requested duration to one shot through the constraint
// function and rebuilds timecodes. Returns the bounded duration actually
// applied. Refused entirely while locked.
func (s *Session) ResizeShot(shotID string, requested float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overlay.Locked() {
		return 0, ErrLocked
	}
	shot := s.timeline.FindShot(shotID)
	if shot == nil {
		return 0, fmt.Errorf("unknown shot %s", shotID)
	}
	bounded := s.rules.EnforceShotConstraint(shot, requested)
	shot.Duration = bounded
	tl.RebuildTimecodes(s.timeline)
	return bounded, nil
}

// AlignToVoice raises every voiced shot to at least its voice length plus
// the configured pad. Refused while locked, like any duration mutation.
func (s *Session) AlignToVoice() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overlay.Locked() {
		return ErrLocked
	}
	s.rules.AlignToVoice(s.timeline)
	return nil
}

// Violations reports shots whose stored duration breaks the model.
func (s *Session) Violations() []tl.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.Violations(s.timeline)
}

// Save transmits the timeline in full. Refused while violations exist.
// While locked, saving still succeeds but resetVideos is forced false so
// already-generated video artifacts survive regardless of caller intent.
func (s *Session) Save(applyToProject, resetVideos bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if violations := s.rules.Violations(s.timeline); len(violations) > 0 {
		return fmt.Errorf("%w: %d shot(s)", ErrViolations, len(violations))
	}

	if s.overlay.Locked() && resetVideos {
		logger.Warn("resetVideos forced false: timeline is locked",
			logger.String("projectId", s.ProjectID))
		resetVideos = false
	}

	tl.RebuildTimecodes(s.timeline)
	if applyToProject {
		s.timeline.Confirmed = true
	}
	if err := s.repo.SaveTimeline(s.timeline, resetVideos); err != nil {
		return fmt.Errorf("save timeline: %w", err)
	}
	if resetVideos {
		// The store just dropped the downstream media rows; the local
		// overlay must not keep reporting videos that no longer exist.
		s.overlay = model.MediaOverlay{}
	}
	return nil
}

// GenerateVoice proxies voice synthesis to the render backend, then reloads
// the timeline so fresh voice URLs and durations land locally. Local
// durations are kept; a voice that came back longer than its shot surfaces
// as a violation rather than being silently fixed.
func (s *Session) GenerateVoice(ctx context.Context, req renderapi.GenerateVoiceRequest) (*renderapi.GenerateVoiceResult, error) {
	req.ProjectID = s.ProjectID
	result, err := s.backend.GenerateVoice(ctx, req)
	if err != nil {
		return nil, err
	}

	fresh, err := s.repo.FetchTimeline(s.ProjectID)
	if err != nil {
		return result, fmt.Errorf("voice generated but reload failed: %w", err)
	}

	s.mu.Lock()
	// Keep local durations over the reloaded ones: edits not yet saved
	// must survive a generate round-trip.
	fresh.Walk(func(_ *model.Segment, shot *model.Shot) {
		if local := s.timeline.FindShot(shot.ShotID); local != nil {
			shot.Duration = local.Duration
		}
	})
	tl.RebuildTimecodes(fresh)
	s.timeline = fresh
	s.mu.Unlock()

	return result, nil
}

// RenderMaster asks the backend for preview track(s) against the current
// durations and stores the returned URLs on the timeline.
func (s *Session) RenderMaster(ctx context.Context, variants []renderapi.MasterVariant) (*renderapi.RenderMasterResult, error) {
	s.mu.Lock()
	durations := make(map[string]float64, s.timeline.ShotCount())
	s.timeline.Walk(func(_ *model.Segment, shot *model.Shot) {
		durations[shot.ShotID] = shot.Duration
	})
	s.mu.Unlock()

	result, err := s.backend.RenderMaster(ctx, renderapi.RenderMasterRequest{
		ProjectID: s.ProjectID,
		Durations: durations,
		Variants:  variants,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if result.MasterAudioURL != "" {
		s.timeline.MasterAudioURL = result.MasterAudioURL
	}
	if result.MasterMixAudioURL != "" {
		s.timeline.MasterMixAudioURL = result.MasterMixAudioURL
	}
	s.mu.Unlock()

	return result, nil
}

// ExtractVideoAudio pulls audio from finished video shots and applies the
// per-shot outcomes to the local timeline.
func (s *Session) ExtractVideoAudio(ctx context.Context, shotIDs []string) ([]renderapi.ExtractOutcome, error) {
	outcomes, err := s.backend.ExtractAudio(ctx, s.ProjectID, shotIDs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, outcome := range outcomes {
		if !outcome.Updated || outcome.AudioURL == "" {
			continue
		}
		if shot := s.timeline.FindShot(outcome.ShotID); shot != nil {
			shot.VoiceAudioURL = outcome.AudioURL
		}
	}
	s.mu.Unlock()

	return outcomes, nil
}

// SetMasterURLs patches master URLs discovered out of band (render drop).
func (s *Session) SetMasterURLs(masterURL, mixURL string) {
	s.mu.Lock()
	if masterURL != "" {
		s.timeline.MasterAudioURL = masterURL
	}
	if mixURL != "" {
		s.timeline.MasterMixAudioURL = mixURL
	}
	s.mu.Unlock()
}

// Close stops the poller and releases the transport resource.
func (s *Session) Close() {
	if s.poller != nil {
		s.poller.Stop()
	}
	if s.engine != nil {
		s.engine.Unload()
	}
}
