package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/pos"
)

// WorkspaceWatcher polls the gateway for workspace updates and pushes them to
// the configured callback. The last completed fetch wins; a failed poll keeps
// the previously delivered workspace in effect.
type WorkspaceWatcher struct {
	Client   *Client
	OID      string
	Interval time.Duration
	OnUpdate func(pos.Workspace)
	Logger   zerolog.Logger
}

// Run polls until the context ends. The first fetch happens immediately so
// workspace flags are available before the first ticket mutation when the
// gateway is reachable.
func (w *WorkspaceWatcher) Run(ctx context.Context) {
	if w.Client == nil || w.OnUpdate == nil || w.OID == "" {
		return
	}
	interval := w.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	w.poll(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *WorkspaceWatcher) poll(ctx context.Context) {
	ws, err := w.Client.Workspace(ctx, w.OID)
	if err != nil {
		w.Logger.Warn().Err(err).Str("workspace_oid", w.OID).Msg("poll workspace")
		return
	}
	w.OnUpdate(ws)
}
