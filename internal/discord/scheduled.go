package discord

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"xerobot/internal/keepalive"
	"xerobot/pkg/jobmgr"
)

const (
	decaySweepEvery   = "@every 30m"
	presenceRotateJob = "@every 22m"
)

// startBackgroundJobs launches the periodic timers. Each runs under a
// named job so a repeated ready event (reconnects) cannot start a
// second copy. The decay sweep period must stay at or above the
// ledger's inactivity gap.
func (b *Bot) startBackgroundJobs() {
	b.startJob("background-timers", func(ctx context.Context) error {
		cr := cron.New()

		cr.AddFunc(decaySweepEvery, func() { //nolint:errcheck
			if b.ledger.DecayPass(time.Now()) {
				log.Println("[INFO] Decay sweep applied changes")
			}
		})
		cr.AddFunc(presenceRotateJob, func() { //nolint:errcheck
			b.rotatePresence()
		})

		cr.Start()
		<-ctx.Done()
		stopped := cr.Stop()
		<-stopped.Done()
		return nil
	})

	if b.cfg.KeepAlivePingURL != "" {
		b.startJob("self-ping", func(ctx context.Context) error {
			keepalive.RunPinger(ctx, b.cfg.KeepAlivePingURL)
			return nil
		})
	}
}

func (b *Bot) startJob(name string, runner func(ctx context.Context) error) {
	err := b.jobs.Start(name, runner)
	if err == nil {
		return
	}
	var already *jobmgr.ErrAlreadyRunning
	if errors.As(err, &already) {
		log.Printf("[INFO] Job %s already running, skipping start", name)
		return
	}
	log.Printf("[ERR] Failed to start job %s: %v", name, err)
}
