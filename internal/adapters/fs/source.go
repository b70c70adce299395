// Package fs provides the directory-backed unit source: acquisition files
// appearing in a single directory the echosounder writes into.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/seaward-labs/echoline/internal/ports"
)

// DefaultPollInterval is how often the source re-lists the directory when no
// filesystem event arrives first.
const DefaultPollInterval = 10 * time.Second

// rawExt is the acquisition file extension the source selects on.
const rawExt = ".raw"

// DirSource implements ports.UnitSource over one directory. Listings are
// sorted case-insensitively by file name, which for instrument-named files
// (D20260823-T101530.raw) is chronological order. A filesystem watcher wakes
// Wait early on file creation; when the watcher cannot be set up the source
// degrades to plain interval polling.
type DirSource struct {
	dir     string
	poll    time.Duration
	watcher *fsnotify.Watcher
	logger  ports.Logger
}

// NewDirSource opens a source over dir. Fails when dir does not exist, since
// the loop could never make progress.
func NewDirSource(dir string, poll time.Duration, logger ports.Logger) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory: %s is not a directory", dir)
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	s := &DirSource{dir: dir, poll: poll, logger: logger}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("directory watcher unavailable, relying on polling", ports.Err(err))
		return s, nil
	}
	if err := w.Add(dir); err != nil {
		logger.Warn("cannot watch directory, relying on polling",
			ports.String("dir", dir), ports.Err(err))
		w.Close()
		return s, nil
	}
	s.watcher = w
	return s, nil
}

// List returns the sorted names of the acquisition files currently present.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), rawExt) {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Slice(ids, func(i, j int) bool {
		return strings.ToLower(ids[i]) < strings.ToLower(ids[j])
	})
	return ids, nil
}

// Resolve maps a listed name to its full path.
func (s *DirSource) Resolve(id string) string {
	return filepath.Join(s.dir, id)
}

// Wait blocks until the polling interval elapses or the watcher reports a
// new acquisition file, whichever comes first.
func (s *DirSource) Wait(ctx context.Context) error {
	timer := time.NewTimer(s.poll)
	defer timer.Stop()

	var events chan fsnotify.Event
	var errs chan error
	if s.watcher != nil {
		events = s.watcher.Events
		errs = s.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), rawExt) {
				continue
			}
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("directory watcher error", ports.Err(err))
		}
	}
}

// Close releases the watcher.
func (s *DirSource) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
