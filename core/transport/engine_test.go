package transport

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"CutRoom/core/peaks"
	"CutRoom/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor returns a fixed envelope, optionally stalling per file so
// tests can race two loads against each other.
type stubExtractor struct {
	mu       sync.Mutex
	duration float64
	stalls   map[string]time.Duration
}

func (s *stubExtractor) Available() bool { return true }

func (s *stubExtractor) Extract(ctx context.Context, inputFile string, pointCount int) (model.PeaksData, error) {
	s.mu.Lock()
	stall := s.stalls[filepath.Base(inputFile)]
	s.mu.Unlock()
	if stall > 0 {
		time.Sleep(stall)
	}
	peaks := make([]float64, pointCount)
	for i := range peaks {
		peaks[i] = 0.5
	}
	return model.PeaksData{Peaks: peaks, Duration: s.duration}, nil
}

func newTestEngine(t *testing.T, duration float64) (*Engine, string) {
	t.Helper()
	ext := &stubExtractor{duration: duration}
	cache := peaks.NewCache(peaks.NewResolver(nil), ext)
	engine := NewEngine(cache, 64, 5*time.Millisecond)

	url := filepath.Join(t.TempDir(), "mix.wav")
	require.NoError(t, os.WriteFile(url, []byte("stub"), 0644))
	return engine, url
}

func waitForEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "event channel closed while waiting for %s", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func TestLoadEmitsReady(t *testing.T) {
	engine, url := newTestEngine(t, 12.5)
	id, events := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(id)

	assert.Equal(t, StateUnloaded, engine.CurrentState())
	engine.Load(context.Background(), url)

	ev := waitForEvent(t, events, EventReady)
	assert.Equal(t, 12.5, ev.Duration)
	assert.Equal(t, StateReady, engine.CurrentState())
	assert.Equal(t, 12.5, engine.Duration())
	assert.False(t, engine.IsPlaying())
}

func TestLoadFailureEmitsError(t *testing.T) {
	engine, _ := newTestEngine(t, 1)
	id, events := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(id)

	engine.Load(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	ev := waitForEvent(t, events, EventError)
	assert.NotEmpty(t, ev.Err)
	assert.Equal(t, StateError, engine.CurrentState())
}

func TestStaleLoadDiscarded(t *testing.T) {
	ext := &stubExtractor{duration: 30, stalls: map[string]time.Duration{"slow.wav": 80 * time.Millisecond}}
	cache := peaks.NewCache(peaks.NewResolver(nil), ext)
	engine := NewEngine(cache, 64, 5*time.Millisecond)

	dir := t.TempDir()
	slow := filepath.Join(dir, "slow.wav")
	fast := filepath.Join(dir, "fast.wav")
	require.NoError(t, os.WriteFile(slow, []byte("s"), 0644))
	require.NoError(t, os.WriteFile(fast, []byte("f"), 0644))

	id, events := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(id)

	engine.Load(context.Background(), slow)
	engine.Load(context.Background(), fast)

	ev := waitForEvent(t, events, EventReady)
	assert.Equal(t, fast, ev.URL)
	assert.Equal(t, fast, engine.URL())

	// Give the stale decode time to complete; it must not flip state or url.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, fast, engine.URL())
	assert.Equal(t, StateReady, engine.CurrentState())
}

func TestPlayPauseSeek(t *testing.T) {
	engine, url := newTestEngine(t, 60)
	id, events := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(id)

	// Transport calls before load are refused or ignored.
	assert.ErrorIs(t, engine.Play(nil, nil), ErrNotLoaded)
	engine.SeekTo(10)
	assert.Equal(t, 0.0, engine.CurrentTime())

	engine.Load(context.Background(), url)
	waitForEvent(t, events, EventReady)

	start := 5.0
	require.NoError(t, engine.Play(&start, nil))
	waitForEvent(t, events, EventPlay)
	assert.True(t, engine.IsPlaying())

	waitForEvent(t, events, EventPosition)
	assert.GreaterOrEqual(t, engine.CurrentTime(), 5.0)

	engine.Pause()
	waitForEvent(t, events, EventPause)
	assert.False(t, engine.IsPlaying())
	frozen := engine.CurrentTime()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, engine.CurrentTime(), "position frozen while paused")

	// Pause is idempotent.
	engine.Pause()

	engine.SeekTo(70)
	ev := waitForEvent(t, events, EventSeek)
	assert.Equal(t, 60.0, ev.Position, "seek clamps to duration")
	engine.SeekTo(-3)
	ev = waitForEvent(t, events, EventSeek)
	assert.Equal(t, 0.0, ev.Position)
}

func TestRangeLimitedPlayback(t *testing.T) {
	engine, url := newTestEngine(t, 60)
	id, events := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(id)

	engine.Load(context.Background(), url)
	waitForEvent(t, events, EventReady)

	start, end := 0.0, 0.03
	require.NoError(t, engine.Play(&start, &end))

	ev := waitForEvent(t, events, EventFinish)
	assert.InDelta(t, end, ev.Position, 0.001)
	assert.False(t, engine.IsPlaying())
	assert.Equal(t, StatePaused, engine.CurrentState())
}

func TestSeekToRatio(t *testing.T) {
	engine, url := newTestEngine(t, 40)
	id, events := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(id)

	engine.Load(context.Background(), url)
	waitForEvent(t, events, EventReady)

	engine.SeekToRatio(0.25)
	assert.InDelta(t, 10.0, engine.CurrentTime(), 1e-9)
	engine.SeekToRatio(1.5)
	assert.InDelta(t, 40.0, engine.CurrentTime(), 1e-9)
}

func TestUnloadTearsDown(t *testing.T) {
	engine, url := newTestEngine(t, 20)
	id, events := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(id)

	engine.Load(context.Background(), url)
	waitForEvent(t, events, EventReady)
	require.NoError(t, engine.Play(nil, nil))
	waitForEvent(t, events, EventPlay)

	engine.Unload()
	assert.Equal(t, StateUnloaded, engine.CurrentState())
	assert.False(t, engine.IsPlaying())
	assert.Equal(t, 0.0, engine.Duration())
	assert.Nil(t, engine.WaveformFrame(100, 40))
}

func TestWaveformFrameProgress(t *testing.T) {
	engine, url := newTestEngine(t, 10)
	id, events := engine.Events().Subscribe()
	defer engine.Events().Unsubscribe(id)

	engine.Load(context.Background(), url)
	waitForEvent(t, events, EventReady)
	engine.SeekTo(5)

	img := engine.WaveformFrame(100, 40)
	require.NotNil(t, img)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	// Cursor column sits at the halfway point.
	assert.Equal(t, cursorColor, img.RGBAAt(50, 0))
	// Bars left of the cursor carry the progress tone at the midline.
	assert.Equal(t, progressColor, img.RGBAAt(10, 20))
	assert.Equal(t, waveColor, img.RGBAAt(90, 20))
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus()
	id, ch := bus.Subscribe()
	defer bus.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		// Publish far beyond the buffer without anyone draining.
		for i := 0; i < 500; i++ {
			bus.Publish(Event{Kind: EventPosition, Position: float64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.NotEmpty(t, ch)
}
