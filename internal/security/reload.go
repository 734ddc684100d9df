package security

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"chatpilot/internal/audit"
)

// Reloader watches the policy file and hot-reloads it into a Gate.
type Reloader struct {
	watcher *fsnotify.Watcher
	gate    *Gate
	path    string
	log     *zap.Logger
}

// NewReloader creates a file watcher for the policy path. A missing file
// is not an error; the reloader simply never fires.
func NewReloader(gate *Gate, path string, log *zap.Logger) (*Reloader, error) {
	if log == nil {
		log = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := watcher.Add(path); err != nil {
				watcher.Close()
				return nil, fmt.Errorf("failed to watch %q: %w", path, err)
			}
		}
	}

	return &Reloader{
		watcher: watcher,
		gate:    gate,
		path:    path,
		log:     log,
	}, nil
}

// Run watches for file changes and reloads the policy. Blocks until ctx
// is cancelled. A bad policy file leaves the previous policy active.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after last write before reloading
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, r.reload)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("policy watcher error", zap.Error(err))
		}
	}
}

func (r *Reloader) reload() {
	policy, hash, err := LoadPolicyWithHash(r.path)
	if err != nil {
		r.log.Warn("policy hot-reload failed, keeping previous policy",
			zap.String("path", r.path), zap.Error(err))
		return
	}
	r.gate.UpdatePolicy(policy)
	r.gate.Audit(audit.Entry{
		Event:      audit.EventPolicyReloaded,
		PolicyHash: hash,
	})
	r.log.Info("policy reloaded",
		zap.String("path", r.path),
		zap.String("level", string(policy.Level)))
}
