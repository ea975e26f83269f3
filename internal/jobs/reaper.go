package jobs

import (
	"context"
	"time"

	"guardian/internal/auth"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reaper periodically deletes tokens past expiry. The sweep is idempotent
// and stateless, so overlapping or repeated runs are harmless; it can also
// be invoked on demand through RunOnce.
type Reaper struct {
	Engine *auth.Engine
	Log    *zap.Logger

	cron *cron.Cron
}

func NewReaper(engine *auth.Engine, log *zap.Logger) *Reaper {
	return &Reaper{Engine: engine, Log: log}
}

// Start schedules an hourly sweep. Call Stop to shut the scheduler down.
func (r *Reaper) Start() {
	r.cron = cron.New()
	_, _ = r.cron.AddFunc("@hourly", func() {
		r.RunOnce(context.Background())
	})
	r.cron.Start()
}

func (r *Reaper) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reaper) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.Engine.ReapExpired(ctx); err != nil {
		r.Log.Error("token reap failed", zap.Error(err))
	}
}
