package worker

import (
	"context"
	"time"

	"github.com/solimsadek-max/NCP/utils"
)

type MembershipExpirer interface {
	ExpireLapsedMemberships(ctx context.Context) (int, error)
}

// ExpirySweeper clears lapsed VIP memberships on a fixed interval so users who
// never open the bot still get their expiry notice.
type ExpirySweeper struct {
	expirer  MembershipExpirer
	interval time.Duration
	logger   *utils.Logger
}

func NewExpirySweeper(expirer MembershipExpirer, interval time.Duration, logger *utils.Logger) *ExpirySweeper {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &ExpirySweeper{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Infof("Membership expiry sweeper started, interval %s", w.interval)
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Membership expiry sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	n, err := w.expirer.ExpireLapsedMemberships(ctx)
	if err != nil {
		w.logger.Errorf("Membership expiry sweep failed: %v", err)
		return
	}
	if n > 0 {
		w.logger.Infof("Expired %d VIP memberships", n)
	}
}
