package portfolio

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Refresher periodically pulls fresh market prices and re-fetches the
// portfolio so the snapshot tracks the market while the app is open.
type Refresher struct {
	portfolio *Portfolio
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRefresher builds a stopped refresher for the given facade.
func NewRefresher(p *Portfolio) *Refresher {
	return &Refresher{portfolio: p}
}

// Start launches the refresh loop. Guest portfolios have no quote
// backend, so Start is a no-op for them. Calling Start on a running
// refresher is also a no-op.
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	if r.portfolio.IsGuest() || r.done != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight tick, if any.
func (r *Refresher) Stop() {
	if r.done == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}

func (r *Refresher) tick(ctx context.Context) {
	res := r.portfolio.RefreshAllPrices(ctx)
	if !res.Success {
		return
	}
	log.Debugf("refreshed %d prices", res.UpdatedCount)
	if _, err := r.portfolio.FetchAccounts(ctx); err != nil {
		log.Errorf("post-refresh fetch failed: %v", err)
	}
}
