package telegram

import (
	"context"
	"fmt"
	"time"

	"rational-assistant/internal/analyzer"
	"rational-assistant/internal/cache"
	"rational-assistant/internal/models"
)

// coolingNoticeTTL bounds how long the "already notified" marker lives.
const coolingNoticeTTL = 30 * 24 * time.Hour

// Notifier turns purchase events into chat messages.
type Notifier struct {
	sender Sender
	cache  cache.Cache
}

// NewNotifier creates a notifier that sends through sender and remembers
// delivered cooling-off notices in c.
func NewNotifier(sender Sender, c cache.Cache) *Notifier {
	return &Notifier{sender: sender, cache: c}
}

// NotifyHighImpulse tells the user a risky purchase was added.
func (n *Notifier) NotifyHighImpulse(ctx context.Context, u *models.User, p *models.Purchase, a analyzer.Analysis) error {
	if !u.Notifiable() || !a.RiskLevel.Notifiable() {
		return nil
	}
	return n.sender.SendMessage(ctx, *u.TelegramChatID, highImpulseText(p, a), nil)
}

// NotifyCoolingEnded asks the user to decide on a purchase whose cooling
// period is over. Each purchase is announced once; the result reports
// whether a message went out.
func (n *Notifier) NotifyCoolingEnded(ctx context.Context, u *models.User, p *models.Purchase) (bool, error) {
	if !u.Notifiable() {
		return false, nil
	}

	key := fmt.Sprintf("notified:cooling:%d", p.ID)
	first, err := n.cache.SetNX(ctx, key, coolingNoticeTTL)
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}

	if err := n.sender.SendMessage(ctx, *u.TelegramChatID, coolingEndedText(p), decisionKeyboard(p.ID)); err != nil {
		// Let the next sweep try again.
		_ = n.cache.Delete(ctx, key)
		return false, err
	}
	return true, nil
}

// NotifyWeeklyStats sends the weekly summary.
func (n *Notifier) NotifyWeeklyStats(ctx context.Context, u *models.User, s *models.Statistics) error {
	if !u.Notifiable() {
		return nil
	}
	return n.sender.SendMessage(ctx, *u.TelegramChatID, weeklyStatsText(u.Nickname, s), nil)
}
