package workbench

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"CutRoom/core/renderapi"
	tl "CutRoom/core/timeline"
	"CutRoom/core/view"
	"CutRoom/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory TimelineRepository for session tests.
type memoryRepo struct {
	mu        sync.Mutex
	timeline  *model.AudioTimeline
	overlay   model.MediaOverlay
	saveCount int
	pollCount int
	lastReset bool
}

func (m *memoryRepo) FetchTimeline(projectID string) (*model.AudioTimeline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *m.timeline
	copied.Segments = make([]model.Segment, len(m.timeline.Segments))
	for i, seg := range m.timeline.Segments {
		copied.Segments[i] = seg
		copied.Segments[i].Shots = append([]model.Shot(nil), seg.Shots...)
	}
	return &copied, nil
}

func (m *memoryRepo) SaveTimeline(t *model.AudioTimeline, resetVideos bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeline = t
	m.saveCount++
	m.lastReset = resetVideos
	if resetVideos {
		m.overlay = model.MediaOverlay{}
	}
	return nil
}

func (m *memoryRepo) FetchOverlay(projectID string) (model.MediaOverlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollCount++
	out := make(model.MediaOverlay, len(m.overlay))
	for k, v := range m.overlay {
		out[k] = v
	}
	return out, nil
}

func testTimeline() *model.AudioTimeline {
	return &model.AudioTimeline{ProjectID: "p1", Segments: []model.Segment{{
		SegmentID: "seg-1",
		Shots: []model.Shot{
			{ShotID: "a", Duration: 2.0, VoiceAudioURL: "/static/a.mp3", VoiceDurationMs: 1500},
			{ShotID: "b", Duration: 3.5},
			{ShotID: "c", Duration: 4.0},
		},
	}}}
}

func newTestSession(repo *memoryRepo, overlay model.MediaOverlay) *Session {
	return NewSession("p1", repo.timeline, overlay, tl.DefaultRules, repo,
		renderapi.NewClient("http://127.0.0.1:1", time.Second),
		URLResolver{AssetHost: "http://127.0.0.1:8080", Safety: 30 * time.Second}, nil)
}

func TestResizeShotBoundsAndRebuilds(t *testing.T) {
	repo := &memoryRepo{timeline: testTimeline()}
	s := newTestSession(repo, nil)

	bounded, err := s.ResizeShot("b", 5.2)
	require.NoError(t, err)
	assert.InDelta(t, 5.5, bounded, 1e-9)

	snap := s.Snapshot()
	assert.InDelta(t, 11.5, snap.TotalDuration, 1e-9)
	assert.InDelta(t, 7.5, snap.Segments[0].Shots[2].TimecodeStart, 1e-9)
}

func TestResizeUnknownShot(t *testing.T) {
	repo := &memoryRepo{timeline: testTimeline()}
	s := newTestSession(repo, nil)
	_, err := s.ResizeShot("nope", 3)
	assert.Error(t, err)
}

func TestLockRefusesDurationMutations(t *testing.T) {
	locked := model.MediaOverlay{"a": {ShotID: "a", VideoURL: "/static/a.mp4", Status: model.MediaCompleted}}
	repo := &memoryRepo{timeline: testTimeline()}
	s := newTestSession(repo, locked)

	require.True(t, s.Locked())

	before := s.Snapshot()
	_, err := s.ResizeShot("b", 9)
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, s.AlignToVoice(), ErrLocked)

	after := s.Snapshot()
	assert.Equal(t, before.TotalDuration, after.TotalDuration, "locked edits leave the timeline unchanged")
	assert.Equal(t, before.Segments[0].Shots[1].Duration, after.Segments[0].Shots[1].Duration)
}

func TestSaveRefusedOnViolations(t *testing.T) {
	timeline := testTimeline()
	timeline.Segments[0].Shots[1].Duration = 1.0 // below the floor
	repo := &memoryRepo{timeline: timeline}
	s := newTestSession(repo, nil)

	err := s.Save(false, false)
	assert.ErrorIs(t, err, ErrViolations)
	assert.Zero(t, repo.saveCount)

	_, err = s.ResizeShot("b", 1.0) // constraint raises it to 2.0
	require.NoError(t, err)
	require.NoError(t, s.Save(false, false))
	assert.Equal(t, 1, repo.saveCount)
}

func TestSaveWhileLockedStillSucceeds(t *testing.T) {
	locked := model.MediaOverlay{"c": {ShotID: "c", VideoURL: "/static/c.mp4", Status: model.MediaCompleted}}
	repo := &memoryRepo{timeline: testTimeline()}
	s := newTestSession(repo, locked)

	// resetVideos=true must be forced false rather than refusing the save.
	require.NoError(t, s.Save(true, true))
	assert.Equal(t, 1, repo.saveCount)
	assert.True(t, repo.timeline.Confirmed)
	assert.False(t, repo.lastReset, "locked save must not reach the store with resetVideos")
	assert.True(t, s.Locked(), "forced-false save leaves the lock in place")
}

func TestSaveResetVideosClearsDownstreamMedia(t *testing.T) {
	// A failed render leaves a video URL behind without locking the
	// timeline, so an unlocked resetVideos save is possible.
	overlay := model.MediaOverlay{"b": {ShotID: "b", VideoURL: "/static/b.mp4", Status: model.MediaFailed}}
	repo := &memoryRepo{timeline: testTimeline(), overlay: overlay}
	s := newTestSession(repo, overlay)

	require.False(t, s.Locked())
	require.NoError(t, s.Save(false, true))

	assert.True(t, repo.lastReset, "unlocked resetVideos must reach the store")
	assert.Empty(t, repo.overlay, "downstream media rows are dropped")
	assert.Empty(t, s.Overlay(), "local overlay no longer reports the dropped videos")

	// Without the flag, the store keeps whatever media it has.
	require.NoError(t, s.Save(false, false))
	assert.False(t, repo.lastReset)
}

func TestSnapshotResolvesURLs(t *testing.T) {
	timeline := testTimeline()
	timeline.Segments[0].Shots[1].NarrationAudioURL = "/api/assets/b.mp3"
	repo := &memoryRepo{timeline: timeline}
	s := newTestSession(repo, nil)

	snap := s.Snapshot()
	assert.Equal(t, "http://127.0.0.1:8080/api/assets/b.mp3", snap.Segments[0].Shots[1].NarrationAudioURL)

	// Snapshot is a copy: mutating it never touches the session's model.
	snap.Segments[0].Shots[0].Duration = 99
	assert.InDelta(t, 2.0, s.Snapshot().Segments[0].Shots[0].Duration, 1e-9)
}

func TestOverlayPollerStopsWhenNothingProcessing(t *testing.T) {
	repo := &memoryRepo{
		timeline: testTimeline(),
		overlay:  model.MediaOverlay{"a": {ShotID: "a", Status: model.MediaProcessing}},
	}
	s := newTestSession(repo, repo.overlay)

	s.StartPolling(10 * time.Millisecond)

	// Let it poll a few times, then finish the processing shot.
	time.Sleep(35 * time.Millisecond)
	repo.mu.Lock()
	repo.overlay = model.MediaOverlay{"a": {ShotID: "a", Status: model.MediaCompleted, VideoURL: "/static/a.mp4"}}
	repo.mu.Unlock()

	// The poller should pick up the new overlay and retire itself.
	require.Eventually(t, func() bool {
		return s.Locked() && !s.poller.running()
	}, time.Second, 10*time.Millisecond)

	repo.mu.Lock()
	settled := repo.pollCount
	repo.mu.Unlock()
	time.Sleep(40 * time.Millisecond)
	repo.mu.Lock()
	assert.Equal(t, settled, repo.pollCount, "no polls after retirement")
	repo.mu.Unlock()
}

func TestGenerateVoiceKeepsLocalDurations(t *testing.T) {
	repo := &memoryRepo{timeline: testTimeline()}

	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The backend writes fresh voice tracks into the store.
		repo.mu.Lock()
		repo.timeline.Segments[0].Shots[1].NarrationAudioURL = "/static/b-voice.mp3"
		repo.timeline.Segments[0].Shots[1].NarrationDurationMs = 6200
		repo.mu.Unlock()
		json.NewEncoder(w).Encode(renderapi.GenerateVoiceResult{Generated: 1})
	}))
	defer backendSrv.Close()

	s := NewSession("p1", repo.timeline, nil, tl.DefaultRules, repo,
		renderapi.NewClient(backendSrv.URL, 5*time.Second),
		URLResolver{}, nil)

	// Unsaved local edit that must survive the round trip.
	_, err := s.ResizeShot("c", 8.0)
	require.NoError(t, err)

	result, err := s.GenerateVoice(context.Background(), renderapi.GenerateVoiceRequest{IncludeNarration: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)

	snap := s.Snapshot()
	assert.Equal(t, "/static/b-voice.mp3", snap.Segments[0].Shots[1].NarrationAudioURL)
	assert.InDelta(t, 8.0, snap.Segments[0].Shots[2].Duration, 1e-9, "local edit survived")

	// Voice came back longer than the shot: surfaced as a violation, not
	// silently auto-fixed.
	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "b", violations[0].ShotID)
}

func TestRenderMasterAppliesURLs(t *testing.T) {
	repo := &memoryRepo{timeline: testTimeline()}
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req renderapi.RenderMasterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Durations, 3)
		json.NewEncoder(w).Encode(renderapi.RenderMasterResult{
			MasterAudioURL: "/static/masters/p1.master.mp3",
		})
	}))
	defer backendSrv.Close()

	s := NewSession("p1", repo.timeline, nil, tl.DefaultRules, repo,
		renderapi.NewClient(backendSrv.URL, 5*time.Second), URLResolver{}, nil)

	_, err := s.RenderMaster(context.Background(), []renderapi.MasterVariant{renderapi.VariantNarrationOnly})
	require.NoError(t, err)
	assert.Equal(t, "/static/masters/p1.master.mp3", s.Snapshot().MasterAudioURL)
}

func TestDragResizeLifecycle(t *testing.T) {
	repo := &memoryRepo{timeline: testTimeline()}
	s := newTestSession(repo, nil)
	scale := view.NewScale(100, 10, 200)

	require.NoError(t, s.BeginDrag("b", 350, scale))

	// +100px at 100pps asks for 4.5; already on the grid.
	bounded, err := s.MoveDrag(450)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, bounded, 1e-9)

	// Moves give feedback only; the timeline is untouched until the end.
	assert.InDelta(t, 3.5, s.Snapshot().Segments[0].Shots[1].Duration, 1e-9)

	applied, err := s.EndDrag(450)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, applied, 1e-9)

	snap := s.Snapshot()
	assert.InDelta(t, 4.5, snap.Segments[0].Shots[1].Duration, 1e-9)
	assert.InDelta(t, 10.5, snap.TotalDuration, 1e-9, "timecodes rebuilt on end")
	assert.InDelta(t, 6.5, snap.Segments[0].Shots[2].TimecodeStart, 1e-9)

	_, err = s.MoveDrag(500)
	assert.ErrorIs(t, err, ErrNoDrag, "ended drag is idle again")
}

func TestDragRefusedWhenLocked(t *testing.T) {
	locked := model.MediaOverlay{"c": {ShotID: "c", VideoURL: "/static/c.mp4", Status: model.MediaCompleted}}
	repo := &memoryRepo{timeline: testTimeline()}
	s := newTestSession(repo, locked)

	err := s.BeginDrag("b", 350, view.NewScale(100, 10, 200))
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.MoveDrag(400)
	assert.ErrorIs(t, err, ErrNoDrag, "refused drag never became active")
}

func TestDragLockAppearingMidDragCancels(t *testing.T) {
	repo := &memoryRepo{timeline: testTimeline()}
	s := newTestSession(repo, nil)

	require.NoError(t, s.BeginDrag("b", 350, view.NewScale(100, 10, 200)))

	// The overlay poll lands a finished video while the drag is live.
	s.setOverlay(model.MediaOverlay{"c": {ShotID: "c", VideoURL: "/static/c.mp4", Status: model.MediaCompleted}})

	_, err := s.EndDrag(450)
	assert.ErrorIs(t, err, ErrLocked)
	assert.InDelta(t, 3.5, s.Snapshot().Segments[0].Shots[1].Duration, 1e-9, "nothing applied")
	_, err = s.MoveDrag(450)
	assert.ErrorIs(t, err, ErrNoDrag, "drag was cancelled, not left dangling")
}
