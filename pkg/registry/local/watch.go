package localregistry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ignitionstack/modelreg/pkg/registry"
	"go.uber.org/zap"
)

// Watch emits the latest version id each time it changes, including changes
// made by other processes sharing the root. The channel is closed when ctx is
// done.
func (r *Registry) Watch(ctx context.Context) (<-chan string, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(r.root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", r.root, err)
	}

	current, err := r.LatestVersion(ctx)
	if err != nil && !errors.Is(err, registry.ErrEmptyRegistry) {
		_ = fsw.Close()
		return nil, err
	}

	out := make(chan string, 1)
	go r.watchLoop(ctx, fsw, current, out)
	return out, nil
}

func (r *Registry) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, current string, out chan<- string) {
	defer close(out)
	defer fsw.Close()

	timer := time.NewTimer(r.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !isIndexEvent(event) {
				continue
			}
			timer.Reset(r.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			r.logger.Warn("registry watcher error", zap.Error(err))

		case <-timer.C:
			latest, err := r.LatestVersion(ctx)
			if err != nil {
				if !errors.Is(err, registry.ErrEmptyRegistry) && ctx.Err() == nil {
					r.logger.Warn("failed to read latest version", zap.Error(err))
				}
				continue
			}
			if latest == current {
				continue
			}
			current = latest

			select {
			case out <- latest:
			case <-ctx.Done():
				return
			}
		}
	}
}

// isIndexEvent reports whether event touched the index or the latest link.
func isIndexEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == IndexFileName || name == LatestLinkName || strings.HasPrefix(name, BadgerIndexDir)
}
