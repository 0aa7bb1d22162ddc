package codexconfig

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is used when fsnotify is unavailable.
const DefaultPollInterval = 500 * time.Millisecond

// Watch reports changes to the file at path. The channel receives the path
// after each create, write, rename or remove, and is closed when ctx is
// cancelled. Notifications are coalesced: a slow consumer sees one pending
// event, not a backlog.
func Watch(ctx context.Context, path string) <-chan string {
	ch := make(chan string, 1)

	go func() {
		defer close(ch)

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			slog.Warn("config watcher unavailable, polling",
				slog.String("path", path), slog.Any("error", err))
			pollFile(ctx, path, ch, DefaultPollInterval)
			return
		}
		defer watcher.Close()

		// Watch the directory; editors and atomic writes replace the file.
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, configDirPerm); err == nil {
			err = watcher.Add(dir)
		}
		if err != nil {
			slog.Warn("config watcher cannot watch directory, polling",
				slog.String("dir", dir), slog.Any("error", err))
			pollFile(ctx, path, ch, DefaultPollInterval)
			return
		}

		watchEvents(ctx, path, ch, watcher)
	}()

	return ch
}

// WatchAndInvalidate keeps the store's cache coherent with external edits to
// its current config file until ctx is cancelled. onChange, when non-nil, is
// called after each invalidation.
func (s *Store) WatchAndInvalidate(ctx context.Context, onChange func(path string)) error {
	path, err := s.resolve()
	if err != nil {
		return err
	}
	events := Watch(ctx, path)
	go func() {
		for changed := range events {
			s.Invalidate()
			if onChange != nil {
				onChange(changed)
			}
		}
	}()
	return nil
}

func watchEvents(ctx context.Context, path string, ch chan<- string, watcher *fsnotify.Watcher) {
	baseName := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != baseName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			notify(ch, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("config watcher error", slog.Any("error", err))
		}
	}
}

// pollFile compares size and modification time on every tick.
func pollFile(ctx context.Context, path string, ch chan<- string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := fileStamp(path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := fileStamp(path)
			if current != last {
				last = current
				notify(ch, path)
			}
		}
	}
}

type stamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

func fileStamp(path string) stamp {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stamp{exists: true, size: info.Size(), modTime: info.ModTime()}
}

func notify(ch chan<- string, path string) {
	select {
	case ch <- path:
	default:
	}
}
