package gateway

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval is how often an active turn is re-fetched.
const DefaultPollInterval = 2 * time.Second

// PollTurn fetches the turn every interval until its status is no longer
// active or ctx is done. onUpdate, if set, sees every successful fetch. Fetch
// failures are logged and polling continues on the next tick.
//
// It returns the last turn fetched in a terminal state, or ctx.Err().
func (c *Client) PollTurn(ctx context.Context, logger *slog.Logger, interval time.Duration, turnID string, onUpdate func(*Turn)) (*Turn, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		turn, err := c.GetTurn(ctx, turnID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("poll turn failed", "turn_id", turnID, "error", err)
			continue
		}

		if onUpdate != nil {
			onUpdate(turn)
		}
		if !IsActive(turn.Status) {
			logger.Debug("turn settled", "turn_id", turnID, "status", turn.Status)
			return turn, nil
		}
	}
}
