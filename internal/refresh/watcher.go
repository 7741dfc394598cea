package refresh

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// Reloader is the cache hook both triggers call.
type Reloader interface {
	Reload(ctx context.Context) error
}

// DefaultDebounce coalesces the burst of events an editor or copy produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the dataset when its local source file changes. The parent
// directory is watched so atomic replace-by-rename is seen too.
type Watcher struct {
	path     string
	reloader Reloader
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

func NewWatcher(path string, r Reloader, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	return &Watcher{
		path:     abs,
		reloader: r,
		watcher:  w,
		debounce: DefaultDebounce,
		logger:   logger.With(slog.String("component", "source_watcher")),
	}, nil
}

// Run blocks until ctx is done or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("source changed", slog.String("op", event.Op.String()))
				pending = time.After(w.debounce)
			}
		case <-pending:
			pending = nil
			if err := w.reloader.Reload(ctx); err != nil {
				w.logger.Error("reload after change failed", slog.Any("error", err))
				continue
			}
			w.logger.Info("dataset reloaded after source change", slog.String("path", w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "watch source")
		}
	}
}
