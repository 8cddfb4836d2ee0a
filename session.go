package homepage

import (
	"context"

	"github.com/yini-lang/yini-homepage/logger"
	"go.uber.org/zap"
)

// Run drives automatic evaluation until ctx is cancelled, and returns
// ctx.Err().  While auto-validate is on, each store change restarts the
// quiet period and the evaluation runs once the input has been still for
// the whole period.  With auto-validate on at start, Run evaluates
// immediately.  Turning auto-validate off cancels a pending evaluation;
// cancellation of ctx does too, so no evaluation fires after Run returns.
func (c *Controller) Run(ctx context.Context) error {
	log := logger.L(ctx)

	changes, unwatch := c.store.Watch()
	defer unwatch()

	done := make(chan struct{})
	defer close(done)
	deb := newDebouncer(c.clock, c.quiet, done)
	defer deb.cancel()

	if c.store.Snapshot().Options.AutoValidate {
		c.Evaluate()
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug("playground session closed", zap.Bool("pending", deb.pending))
			return ctx.Err()

		case ch := <-changes:
			if !c.store.Snapshot().Options.AutoValidate {
				if deb.pending {
					log.Debug("auto-validate off, dropping pending evaluation")
				}
				deb.cancel()
				continue
			}
			log.Debug("input changed", zap.Stringer("kind", ch.Kind), zap.Uint64("version", ch.Version))
			deb.schedule()

		case gen := <-deb.fired:
			if deb.take(gen) {
				c.Evaluate()
			}
		}
	}
}
