package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"callwatch/internal/logging"
)

// FSNotify is a Backend built on inotify-style kernel notifications.
type FSNotify struct {
	opts   Options
	logger *slog.Logger
}

// NewFSNotify returns a backend using opts for write-finish detection.
func NewFSNotify(opts Options, logger *slog.Logger) *FSNotify {
	return &FSNotify{
		opts:   opts.withDefaults(),
		logger: logging.NewComponentLogger(logger, "watch"),
	}
}

// Subscribe watches dir and every directory below it, including ones created
// later. Events stop when ctx is cancelled or the subscription is closed.
func (b *FSNotify) Subscribe(ctx context.Context, dir string, fn Handler) (Subscription, error) {
	if fn == nil {
		return nil, errors.New("watch: nil handler")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir %s: not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	sub := &fsSubscription{
		dir:     dir,
		opts:    b.opts,
		logger:  b.logger.With(logging.String(logging.FieldWatchDir, dir)),
		watcher: watcher,
		handler: fn,
		pending: make(map[string]*pendingFile),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if err := sub.addTree(dir, false); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go sub.loop(ctx)
	return sub, nil
}

type pendingFile struct {
	size        int64
	modTime     time.Time
	stableSince time.Time
}

type fsSubscription struct {
	dir     string
	opts    Options
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	handler Handler

	pending map[string]*pendingFile

	closeOnce sync.Once
	quit      chan struct{}
	done      chan struct{}
}

func (s *fsSubscription) Dir() string { return s.dir }

// Close stops the subscription and waits for its goroutine to exit.
func (s *fsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.done
		err = s.watcher.Close()
	})
	return err
}

func (s *fsSubscription) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case evt, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(evt)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(s.logger, "watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_watches if the tree is large"),
				logging.String(logging.FieldImpact, "some new recordings may be missed"),
			)
		case now := <-ticker.C:
			s.poll(now)
		}
	}
}

func (s *fsSubscription) handleEvent(evt fsnotify.Event) {
	switch {
	case evt.Has(fsnotify.Create):
		info, err := os.Stat(evt.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := s.addTree(evt.Name, true); err != nil {
				s.logger.Warn("failed to watch new directory",
					logging.String(logging.FieldPath, evt.Name),
					logging.Error(err),
					logging.String(logging.FieldEventType, "watch_add_failed"),
				)
			}
			return
		}
		s.track(evt.Name, info)
	case evt.Has(fsnotify.Remove), evt.Has(fsnotify.Rename):
		delete(s.pending, evt.Name)
	}
}

// addTree watches root and its subdirectories. When track is set, files
// already inside root are new to the subscription and become pending.
func (s *fsSubscription) addTree(root string, track bool) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if entry.IsDir() {
			if err := s.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if track && entry.Type().IsRegular() {
			if info, err := entry.Info(); err == nil {
				s.track(path, info)
			}
		}
		return nil
	})
}

func (s *fsSubscription) track(path string, info fs.FileInfo) {
	if !info.Mode().IsRegular() {
		return
	}
	if _, ok := s.pending[path]; ok {
		return
	}
	s.pending[path] = &pendingFile{
		size:        info.Size(),
		modTime:     info.ModTime(),
		stableSince: time.Now(),
	}
}

func (s *fsSubscription) poll(now time.Time) {
	for path, file := range s.pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(s.pending, path)
			continue
		}
		if info.Size() != file.size || !info.ModTime().Equal(file.modTime) {
			file.size = info.Size()
			file.modTime = info.ModTime()
			file.stableSince = now
			continue
		}
		if now.Sub(file.stableSince) < s.opts.StabilityThreshold {
			continue
		}
		delete(s.pending, path)
		s.handler(Event{Path: path, Size: file.size, ModTime: file.modTime})
	}
}
