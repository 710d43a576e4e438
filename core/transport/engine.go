package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"CutRoom/core/peaks"
	"CutRoom/logger"
	"CutRoom/model"
)

// State is the engine's lifecycle state.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateError    State = "error"
)

// ErrNotLoaded is returned by transport calls that need a loaded resource.
var ErrNotLoaded = errors.New("transport: no resource loaded")

// Engine owns exactly one audio resource at a time and exposes transport
// controls over it. The playback clock is a monotonic anchor plus elapsed
// time: an editing-time approximation, not a device-synced transport.
//
// Loading a new URL fully tears down the previous resource first; a decode
// still in flight for an older load is identified by generation and its
// completion is discarded.
type Engine struct {
	mu sync.Mutex

	cache      *peaks.Cache
	pointCount int
	tickEvery  time.Duration

	state      State
	url        string
	generation uint64
	duration   float64
	envelope   model.PeaksData

	basePos  float64   // position when the clock was last anchored
	anchor   time.Time // wall anchor, valid while playing
	rangeEnd float64   // advisory stop point; <0 means none

	stopTick chan struct{}
	tickWG   sync.WaitGroup

	bus *Bus
}

// NewEngine creates an unloaded engine over the given peak cache.
func NewEngine(cache *peaks.Cache, pointCount int, tickEvery time.Duration) *Engine {
	if tickEvery <= 0 {
		tickEvery = 100 * time.Millisecond
	}
	return &Engine{
		cache:      cache,
		pointCount: pointCount,
		tickEvery:  tickEvery,
		state:      StateUnloaded,
		rangeEnd:   -1,
		bus:        NewBus(),
	}
}

// Events returns the engine's event bus.
func (e *Engine) Events() *Bus { return e.bus }

// Load tears down the current resource and begins loading url. The decode
// runs in the background; EventReady or EventError reports the outcome.
func (e *Engine) Load(ctx context.Context, url string) {
	e.mu.Lock()
	e.stopTickerLocked()
	e.generation++
	gen := e.generation
	e.state = StateLoading
	e.url = url
	e.duration = 0
	e.basePos = 0
	e.rangeEnd = -1
	e.envelope = model.PeaksData{}
	e.mu.Unlock()

	go func() {
		data, err := e.cache.GetPeaks(ctx, url, e.pointCount)

		e.mu.Lock()
		if e.generation != gen {
			// A newer load started while this decode ran; discard.
			e.mu.Unlock()
			logger.Debug("stale transport load discarded", logger.String("url", url))
			return
		}
		if err != nil {
			e.state = StateError
			e.mu.Unlock()
			e.bus.Publish(Event{Kind: EventError, URL: url, Err: err.Error()})
			return
		}
		e.duration = data.Duration
		e.envelope = data
		e.state = StateReady
		e.mu.Unlock()

		e.bus.Publish(Event{Kind: EventReady, URL: url, Duration: data.Duration})
	}()
}

// Unload releases the current resource and returns to StateUnloaded.
func (e *Engine) Unload() {
	e.mu.Lock()
	e.stopTickerLocked()
	e.generation++
	e.state = StateUnloaded
	e.url = ""
	e.duration = 0
	e.basePos = 0
	e.rangeEnd = -1
	e.envelope = model.PeaksData{}
	e.mu.Unlock()
}

// Play begins playback. A non-nil start seeks first; a non-nil end arranges
// an automatic pause once the position reaches it (checked once per tick,
// advisory rather than sample-exact).
func (e *Engine) Play(start, end *float64) error {
	e.mu.Lock()
	if e.state != StateReady && e.state != StatePaused && e.state != StatePlaying {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if start != nil {
		e.basePos = clamp(*start, 0, e.duration)
	} else if e.state == StatePlaying {
		e.basePos = e.positionLocked()
	}
	if end != nil {
		e.rangeEnd = clamp(*end, 0, e.duration)
	} else {
		e.rangeEnd = -1
	}
	e.anchor = time.Now()
	alreadyPlaying := e.state == StatePlaying
	e.state = StatePlaying
	if !alreadyPlaying {
		e.startTickerLocked()
	}
	pos, dur := e.basePos, e.duration
	e.mu.Unlock()

	e.bus.Publish(Event{Kind: EventPlay, Position: pos, Duration: dur})
	return nil
}

// Pause stops playback. Idempotent; the position ticker is stopped
// synchronously before this returns.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.mu.Unlock()
		return
	}
	e.basePos = e.positionLocked()
	e.state = StatePaused
	e.stopTickerLocked()
	pos, dur := e.basePos, e.duration
	e.mu.Unlock()

	e.bus.Publish(Event{Kind: EventPause, Position: pos, Duration: dur})
}

// SeekTo moves the position, clamped to [0, duration]. No-op while the
// duration is unknown.
func (e *Engine) SeekTo(seconds float64) {
	e.mu.Lock()
	if e.duration <= 0 {
		e.mu.Unlock()
		return
	}
	e.basePos = clamp(seconds, 0, e.duration)
	e.anchor = time.Now()
	pos, dur := e.basePos, e.duration
	e.mu.Unlock()

	e.bus.Publish(Event{Kind: EventSeek, Position: pos, Duration: dur})
}

// SeekToRatio seeks proportionally, for click-x / width interactions.
func (e *Engine) SeekToRatio(ratio float64) {
	e.mu.Lock()
	dur := e.duration
	e.mu.Unlock()
	if dur <= 0 {
		return
	}
	e.SeekTo(clamp(ratio, 0, 1) * dur)
}

// IsPlaying reports whether playback is running.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StatePlaying
}

// CurrentTime returns the playback position in seconds.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

// Duration returns the loaded resource's duration, or 0 when unknown.
func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// CurrentState returns the lifecycle state.
func (e *Engine) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// URL returns the currently loaded resource reference.
func (e *Engine) URL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.url
}

// positionLocked derives the position from the anchored clock. Caller holds mu.
func (e *Engine) positionLocked() float64 {
	if e.state != StatePlaying {
		return e.basePos
	}
	pos := e.basePos + time.Since(e.anchor).Seconds()
	return clamp(pos, 0, e.duration)
}

// startTickerLocked launches the periodic position loop. Caller holds mu.
func (e *Engine) startTickerLocked() {
	stop := make(chan struct{})
	e.stopTick = stop
	e.tickWG.Add(1)

	go func() {
		defer e.tickWG.Done()
		ticker := time.NewTicker(e.tickEvery)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.onTick(stop)
			}
		}
	}()
}

// stopTickerLocked signals the ticker goroutine to exit. Caller holds mu.
func (e *Engine) stopTickerLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

// onTick emits a position event and enforces the advisory range end.
func (e *Engine) onTick(stop chan struct{}) {
	e.mu.Lock()
	if e.state != StatePlaying || e.stopTick != stop {
		e.mu.Unlock()
		return
	}
	pos := e.positionLocked()
	dur := e.duration

	limit := dur
	if e.rangeEnd >= 0 && e.rangeEnd < limit {
		limit = e.rangeEnd
	}
	if pos >= limit {
		e.basePos = limit
		e.state = StatePaused
		e.rangeEnd = -1
		e.stopTickerLocked()
		e.mu.Unlock()
		e.bus.Publish(Event{Kind: EventFinish, Position: limit, Duration: dur})
		return
	}
	e.mu.Unlock()

	e.bus.Publish(Event{Kind: EventPosition, Position: pos, Duration: dur})
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
