package workbench

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"CutRoom/logger"
	"CutRoom/storage"

	"github.com/fsnotify/fsnotify"
)

// RenderDropWatcher watches a local directory where the render host drops
// finished master-mix files, uploads them to object storage and patches the
// owning session's master URLs. File names follow
// <projectId>.master.<ext> / <projectId>.mix.<ext>.
type RenderDropWatcher struct {
	dir     string
	store   *storage.Store
	lookup  func(projectID string) *Session
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// NewRenderDropWatcher creates a watcher over dir. lookup maps a project id
// to its open session, returning nil when none is open.
func NewRenderDropWatcher(dir string, store *storage.Store, lookup func(projectID string) *Session) (*RenderDropWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return &RenderDropWatcher{
		dir:     dir,
		store:   store,
		lookup:  lookup,
		watcher: w,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Run processes filesystem events until Stop.
func (r *RenderDropWatcher) Run() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				r.handleFile(event.Name)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("render drop watcher error", logger.ErrorField(err))
		}
	}
}

// Stop closes the watcher and waits for Run to exit.
func (r *RenderDropWatcher) Stop() {
	close(r.stop)
	r.watcher.Close()
	<-r.done
}

// handleFile uploads a recognized drop and patches the session.
func (r *RenderDropWatcher) handleFile(path string) {
	base := filepath.Base(path)
	parts := strings.Split(base, ".")
	if len(parts) != 3 {
		return
	}
	projectID, kind := parts[0], parts[1]
	if kind != "master" && kind != "mix" {
		return
	}

	session := r.lookup(projectID)
	if session == nil {
		logger.Debug("render drop for project without open session",
			logger.String("file", base))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	objectPath := "masters/" + base
	servedURL, err := r.store.UploadFile(ctx, path, objectPath)
	if err != nil {
		logger.Error("render drop upload failed",
			logger.String("file", base),
			logger.ErrorField(err))
		return
	}

	if kind == "master" {
		session.SetMasterURLs(servedURL, "")
	} else {
		session.SetMasterURLs("", servedURL)
	}
	logger.Info("master track picked up from render drop",
		logger.String("projectId", projectID),
		logger.String("kind", kind),
		logger.String("url", servedURL))
}
