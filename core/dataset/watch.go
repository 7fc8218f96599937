package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultDebounce is used when Watch is given a non-positive interval.
const DefaultDebounce = 250 * time.Millisecond

// Editor scratch files that land next to the datasets.
var ignorePatterns = []string{"*.swp", "*.tmp", "*~", ".#*"}

// reloadTrigger coalesces bursts of file events into one reload.
type reloadTrigger struct {
	watched  []glob.Glob
	ignored  []glob.Glob
	debounce time.Duration
	fire     func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newReloadTrigger(paths []string, debounce time.Duration, fire func()) (*reloadTrigger, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	t := &reloadTrigger{debounce: debounce, fire: fire}
	for _, p := range paths {
		g, err := glob.Compile(glob.QuoteMeta(filepath.Base(p)))
		if err != nil {
			return nil, err
		}
		t.watched = append(t.watched, g)
	}
	for _, p := range ignorePatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		t.ignored = append(t.ignored, g)
	}
	return t, nil
}

func (t *reloadTrigger) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	for _, g := range t.ignored {
		if g.Match(base) {
			return false
		}
	}
	for _, g := range t.watched {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (t *reloadTrigger) handle(event fsnotify.Event) bool {
	if !t.relevant(event) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.debounce, t.fire)
	return true
}

func (t *reloadTrigger) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Watch reloads the datasets whenever either file changes, until ctx is
// cancelled. The parent directories are watched so that editors replacing
// the file by rename are noticed. Failed reloads are logged and the
// previous snapshot stays current.
func (p *Provider) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := map[string]struct{}{
		filepath.Dir(p.treePath):    {},
		filepath.Dir(p.weightsPath): {},
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	trigger, err := newReloadTrigger([]string{p.treePath, p.weightsPath}, debounce, func() {
		if _, err := p.Load(); err != nil {
			p.logger.Warn("dataset reload failed, keeping previous snapshot", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer trigger.stop()

	p.logger.Debug("watching datasets", "tree", p.treePath, "weights", p.weightsPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return errors.New("dataset watcher closed")
			}
			if trigger.handle(event) {
				p.logger.Debug("dataset change", "path", event.Name, "op", event.Op.String())
			}
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("dataset watcher closed")
			}
			p.logger.Warn("dataset watcher error", "error", err)
		}
	}
}
