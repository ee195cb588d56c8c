package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aqualedger/aqualedger/pkg/log"
)

// Scheduler runs named jobs on cron schedules. A job never overlaps with
// itself; a run that is still going when the next one is due is skipped.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// New returns a Scheduler whose jobs receive ctx.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx: ctx,
	}
}

// Add registers fn under spec. An empty spec disables the job and returns
// false.
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context)) (bool, error) {
	if spec == "" {
		log.Ctx(s.ctx).InfoContext(s.ctx, "job disabled", slog.String("job", name))
		return false, nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx := log.WithAttrs(s.ctx, slog.String("job", name))
		start := time.Now()
		fn(ctx)
		log.Ctx(ctx).DebugContext(ctx, "job finished", slog.Duration("took", time.Since(start)))
	})
	if err != nil {
		return false, fmt.Errorf("failed to register %s job (%q): %w", name, spec, err)
	}
	log.Ctx(s.ctx).InfoContext(s.ctx, "job registered", slog.String("job", name), slog.String("spec", spec))
	return true, nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Ctx(s.ctx).InfoContext(s.ctx, "scheduler started")
}

// Stop stops scheduling and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	log.Ctx(s.ctx).InfoContext(s.ctx, "scheduler stopped")
}
