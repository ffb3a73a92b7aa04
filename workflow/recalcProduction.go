package workflow

import (
	"context"
	"time"

	"github.com/svfabworks/factory_backend/config"
	"github.com/svfabworks/factory_backend/models"
)

// RunProductionRecalcWorker drains deferred recompute signals when async
// recalc is enabled. Bursts of stock mutations collapse into one recompute
// per drained signal batch. The worker exits when ctx is cancelled.
func RunProductionRecalcWorker(ctx context.Context) {
	logger := config.GetLogger()
	requests := models.RecalcRequests()
	for {
		select {
		case <-ctx.Done():
			return
		case <-requests:
		}

		// Absorb signals that piled up behind the one we took.
	drain:
		for {
			select {
			case <-requests:
			default:
				break drain
			}
		}

		recalcCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		if err := models.RecalculateAllProduction(recalcCtx); err != nil {
			config.LogError(logger, "recalcProduction.go", "RunProductionRecalcWorker", "RecalculateAllProduction", nil, err)
		}
		cancel()
	}
}
