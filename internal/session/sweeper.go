package session

import (
	"context"
	"fmt"
	"time"

	"padtracker-console/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sweeper periodically drops expired sessions and their workspaces.
type Sweeper struct {
	scheduler *cron.Cron
	svc       Service
	spec      string
	logger    *zap.Logger
}

func NewSweeper(svc Service, cfg *config.Config, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		scheduler: cron.New(),
		svc:       svc,
		spec:      cfg.SweepSpec,
		logger:    logger.Named("sweeper"),
	}
}

func (w *Sweeper) Start() error {
	if _, err := w.scheduler.AddFunc(w.spec, w.run); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", w.spec, err)
	}
	w.scheduler.Start()
	return nil
}

func (w *Sweeper) Stop() {
	ctx := w.scheduler.Stop()
	<-ctx.Done()
}

func (w *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := w.svc.Sweep(ctx)
	if err != nil {
		w.logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info("expired sessions removed", zap.Int("count", n))
	}
}

// RegisterSweeper ties the sweeper to the fx lifecycle.
func RegisterSweeper(lc fx.Lifecycle, w *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return w.Start()
		},
		OnStop: func(ctx context.Context) error {
			w.Stop()
			return nil
		},
	})
}
