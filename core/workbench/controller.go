package workbench

import (
	"fmt"
	"sync"

	"CutRoom/config"
	"CutRoom/core/peaks"
	"CutRoom/core/renderapi"
	tl "CutRoom/core/timeline"
	"CutRoom/core/transport"
	"CutRoom/logger"
	"CutRoom/repository"
)

// Controller orchestrates workbench sessions against the timeline store and
// the render backend. It is the only component touching both the playback
// engine and the constraint engine.
type Controller struct {
	cfg       *config.Config
	repo      repository.TimelineRepository
	backend   *renderapi.Client
	peakCache *peaks.Cache
	resolver  URLResolver

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewController wires the controller.
func NewController(cfg *config.Config, repo repository.TimelineRepository, backend *renderapi.Client, peakCache *peaks.Cache) *Controller {
	return &Controller{
		cfg:       cfg,
		repo:      repo,
		backend:   backend,
		peakCache: peakCache,
		resolver: URLResolver{
			AssetHost: cfg.AssetHost,
			Safety:    cfg.SignedURLSafety,
		},
		sessions: make(map[string]*Session),
	}
}

// Rules returns the constraint rules built from configuration.
func (c *Controller) Rules() tl.Rules {
	return tl.Rules{
		MinShotSeconds:  c.cfg.MinShotSeconds,
		GridStepSeconds: c.cfg.GridStepSeconds,
		AlignPadSeconds: c.cfg.AlignPadSeconds,
	}
}

// OpenSession fetches the timeline fresh and opens (or returns) the
// project's session. The overlay poller starts when anything is still
// processing downstream.
func (c *Controller) OpenSession(projectID string) (*Session, error) {
	c.mu.Lock()
	if existing, ok := c.sessions[projectID]; ok {
		c.mu.Unlock()
		return existing, nil
	}
	c.mu.Unlock()

	timeline, err := c.repo.FetchTimeline(projectID)
	if err != nil {
		return nil, fmt.Errorf("open session for %s: %w", projectID, err)
	}
	overlay, err := c.repo.FetchOverlay(projectID)
	if err != nil {
		// The overlay is advisory; a failed read only means the lock state
		// is unknown until the first successful poll.
		logger.Warn("overlay fetch failed on open",
			logger.String("projectId", projectID),
			logger.ErrorField(err))
		overlay = nil
	}

	engine := transport.NewEngine(c.peakCache, c.cfg.DefaultPeakPoints, c.cfg.PositionTickEvery)
	session := NewSession(projectID, timeline, overlay, c.Rules(), c.repo, c.backend, c.resolver, engine)

	c.mu.Lock()
	if raced, ok := c.sessions[projectID]; ok {
		c.mu.Unlock()
		session.Close()
		return raced, nil
	}
	c.sessions[projectID] = session
	c.mu.Unlock()

	if overlay.AnyProcessing() {
		session.StartPolling(c.cfg.OverlayPollEvery)
	}

	logger.Info("workbench session opened",
		logger.String("projectId", projectID),
		logger.Int("shots", timeline.ShotCount()),
		logger.Bool("locked", overlay.Locked()))
	return session, nil
}

// Session returns an open session or nil.
func (c *Controller) Session(projectID string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[projectID]
}

// CloseSession tears a session down and forgets it.
func (c *Controller) CloseSession(projectID string) {
	c.mu.Lock()
	session, ok := c.sessions[projectID]
	if ok {
		delete(c.sessions, projectID)
	}
	c.mu.Unlock()
	if ok {
		session.Close()
	}
}

// PeakCache exposes the shared peak cache to the serving layer.
func (c *Controller) PeakCache() *peaks.Cache { return c.peakCache }

// Resolver exposes the asset URL resolver.
func (c *Controller) Resolver() URLResolver { return c.resolver }
