package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bookkicker/internal/reading"
)

// RunAutoSend runs the hourly delivery sweep until the context is cancelled.
// The sweep fires at the top of every hour; a missed tick (process down) is
// simply skipped, there is no catch-up.
func (b *Bot) RunAutoSend(ctx context.Context) {
	// Align the first tick to the next full hour.
	now := time.Now()
	next := now.Truncate(time.Hour).Add(time.Hour)
	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	b.logger.Info("Auto-send sweep started", zap.Time("first_tick", next))

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Auto-send sweep stopped")
			return
		case tick := <-timer.C:
			b.SweepOnce(ctx, tick)
			now = time.Now()
			next = now.Truncate(time.Hour).Add(time.Hour)
			timer.Reset(next.Sub(now))
		}
	}
}

// SweepOnce delivers a portion to every auto-send user whose schedule includes
// the current hour in their timezone. One failing user never blocks the rest.
func (b *Bot) SweepOnce(ctx context.Context, now time.Time) {
	users, err := b.db.ListAutoSendUsers(ctx)
	if err != nil {
		b.logger.Error("Failed to list auto-send users", zap.Error(err))
		return
	}

	sent := 0
	for _, user := range users {
		if !reading.DueNow(user.Frequency, user.Timezone, now) {
			continue
		}
		if user.CurrentBook == "" {
			continue
		}
		if err := b.sendPortion(ctx, user.UserID, user.ChatID, user.Lang); err != nil {
			b.logger.Error("Auto-send delivery failed",
				zap.Error(err),
				zap.Int64("user_id", user.UserID),
				zap.String("book", user.CurrentBook),
			)
			continue
		}
		sent++
	}

	b.logger.Info("Auto-send sweep finished",
		zap.Time("tick", now),
		zap.Int("candidates", len(users)),
		zap.Int("sent", sent),
	)
}
