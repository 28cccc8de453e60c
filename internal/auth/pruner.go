package auth

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartRevocationPruner periodically drops revocation entries of tokens that
// have already expired. It returns immediately; the goroutine stops when ctx
// is cancelled.
func StartRevocationPruner(
	ctx context.Context,
	set *RevocationSet,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := set.Prune(now); removed > 0 {
					log.Info("pruned expired revocations",
						zap.Int("removed", removed),
						zap.Int("remaining", set.Len()),
					)
				}
			}
		}
	}()
}
