package workbench

import (
	"sync"
	"time"

	"CutRoom/logger"
)

// overlayPoller refreshes a session's media overlay while any shot is
// mid-processing. It re-arms only while that predicate holds and stops
// deterministically on Stop; nothing keeps ticking across session teardown.
// Poll failures are logged and swallowed: background refresh must never
// interrupt editing.
type overlayPoller struct {
	session  *Session
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// StartPolling begins overlay polling for the session. Idempotent per
// session: a second call replaces a stopped poller but not a live one.
func (s *Session) StartPolling(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poller != nil && s.poller.running() {
		return
	}
	p := &overlayPoller{
		session:  s,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.poller = p
	go p.run()
}

func (p *overlayPoller) running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Stop halts the poller and waits for its loop to exit.
func (p *overlayPoller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *overlayPoller) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if !p.pollOnce() {
				return
			}
		}
	}
}

// pollOnce refreshes the overlay; returns false once no shot is processing,
// which lets the loop retire itself.
func (p *overlayPoller) pollOnce() bool {
	overlay, err := p.session.repo.FetchOverlay(p.session.ProjectID)
	if err != nil {
		logger.Warn("overlay poll failed",
			logger.String("projectId", p.session.ProjectID),
			logger.ErrorField(err))
		return true // transient; keep polling
	}

	p.session.setOverlay(overlay)
	if !overlay.AnyProcessing() {
		logger.Debug("overlay poller retiring: nothing processing",
			logger.String("projectId", p.session.ProjectID))
		return false
	}
	return true
}
