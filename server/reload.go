package server

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/yini-lang/yini-homepage/logger"
	"github.com/yini-lang/yini-homepage/site"
)

// reloadDelay batches the burst of events an editor save produces.
const reloadDelay = 200 * time.Millisecond

// LoadFunc builds a fresh site from the content directory.
type LoadFunc func() (*site.Site, error)

// WatchContent reloads the site whenever a file under dir changes, until
// ctx is cancelled.  A failed reload keeps the current site.  Watcher
// failures are retried with exponential backoff.
func (s *Server) WatchContent(ctx context.Context, dir string, load LoadFunc) error {
	ctx = logger.NewContext(ctx, logger.L(ctx).With(zap.String("content", dir)))
	log := logger.L(ctx)

	b := backoff{min: 100 * time.Millisecond, max: 5 * time.Second}
	for {
		started := time.Now()
		err := s.watchOnce(ctx, dir, load)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) > b.max {
			b.reset()
		}
		delay := b.next()
		log.Warn("content watcher failed, retrying", zap.Error(err), zap.Duration("in", delay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// watchOnce runs one watcher until it fails or ctx is cancelled.
func (s *Server) watchOnce(ctx context.Context, dir string, load LoadFunc) error {
	log := logger.L(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := addTree(w, dir); err != nil {
		return err
	}

	timer := time.NewTimer(s.reload)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if ev.Op&fsnotify.Create != 0 {
				// New directories need watching too; files are ignored by Add.
				if err := addTree(w, ev.Name); err != nil {
					log.Debug("watch new path", zap.Error(err))
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 && !pending {
				timer.Reset(s.reload)
				pending = true
			}

		case err, ok := <-w.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			return err

		case <-timer.C:
			pending = false
			st, err := load()
			if err != nil {
				s.metrics.Reloads.WithLabelValues("error").Inc()
				log.Warn("content reload failed; keeping previous site", zap.Error(err))
				continue
			}
			s.SetSite(st)
			s.metrics.Reloads.WithLabelValues("ok").Inc()
			log.Info("content reloaded", zap.Int("pages", len(st.Pages)))
		}
	}
}

// addTree watches root and every directory below it.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
