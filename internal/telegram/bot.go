package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rational-assistant/internal/auth"
	"rational-assistant/internal/models"
	"rational-assistant/internal/storage"
)

// Store is the data the bot reads and changes.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error)
	LinkTelegram(ctx context.Context, userID, chatID int64) error
	UnlinkTelegram(ctx context.Context, chatID int64) error
	SetNotifications(ctx context.Context, userID int64, enabled bool) error
	ListPendingByCoolingEnd(ctx context.Context, userID int64) ([]models.Purchase, error)
	Statistics(ctx context.Context, userID int64, since time.Time) (*models.Statistics, error)
}

// Decider records a purchase decision made from the chat.
type Decider interface {
	SetStatus(ctx context.Context, userID, purchaseID int64, status string) (*models.Purchase, error)
}

// Linker redeems the one-time codes users get in the app for linking a chat.
type Linker interface {
	Redeem(ctx context.Context, code string) (int64, error)
}

// API is the part of the Bot API the bot uses. Client implements it.
type API interface {
	Sender
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Bot answers commands and button presses.
type Bot struct {
	api         API
	store       Store
	decider     Decider
	linker      Linker
	now         func() time.Time
	pollTimeout time.Duration
	retryDelay  time.Duration
}

// NewBot creates a bot.
func NewBot(api API, store Store, decider Decider, linker Linker) *Bot {
	return &Bot{
		api:         api,
		store:       store,
		decider:     decider,
		linker:      linker,
		now:         time.Now,
		pollTimeout: 30 * time.Second,
		retryDelay:  3 * time.Second,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("telegram bot started")
	var offset int64
	for {
		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("telegram bot stopped")
				return nil
			}
			slog.Error("failed to get telegram updates", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.retryDelay):
			}
			continue
		}

		for _, u := range updates {
			offset = max(offset, u.UpdateID+1)
			b.HandleUpdate(ctx, u)
		}
	}
}

// HandleUpdate processes one update. Failures are logged, never returned,
// so a bad update cannot stall the polling loop.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	var err error
	switch {
	case u.CallbackQuery != nil:
		err = b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
		err = b.handleCommand(ctx, u.Message)
	}
	if err != nil {
		slog.Error("failed to handle telegram update", "update_id", u.UpdateID, "error", err)
	}
}

func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

func (b *Bot) handleCommand(ctx context.Context, m *Message) error {
	chatID := m.Chat.ID
	cmd, args := parseCommand(m.Text)

	switch cmd {
	case "start", "help":
		return b.api.SendMessage(ctx, chatID, startText(), nil)
	case "link":
		return b.link(ctx, chatID, args)
	case "unlink":
		err := b.store.UnlinkTelegram(ctx, chatID)
		if errors.Is(err, storage.ErrNotFound) {
			return b.api.SendMessage(ctx, chatID, "❌ Your account is not linked.", nil)
		}
		if err != nil {
			return err
		}
		return b.api.SendMessage(ctx, chatID, "✅ Account unlinked. Notifications are off.", nil)
	case "pending":
		return b.withUser(ctx, chatID, b.sendPending)
	case "stats":
		return b.withUser(ctx, chatID, b.sendStats)
	case "settings":
		return b.withUser(ctx, chatID, b.sendSettings)
	default:
		return b.api.SendMessage(ctx, chatID, "🤔 Unknown command. Try /start", nil)
	}
}

func (b *Bot) link(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 {
		return b.api.SendMessage(ctx, chatID, "❌ Send the code from the app: /link CODE", nil)
	}

	userID, err := b.linker.Redeem(ctx, args[0])
	if errors.Is(err, auth.ErrInvalidLinkCode) {
		return b.api.SendMessage(ctx, chatID, invalidLinkCodeText, nil)
	}
	if err != nil {
		return err
	}

	u, err := b.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := b.store.LinkTelegram(ctx, u.ID, chatID); err != nil {
		return err
	}
	slog.Info("telegram chat linked", "user_id", u.ID)
	return b.api.SendMessage(ctx, chatID, linkedText(u.Nickname), nil)
}

// withUser resolves the user linked to chatID or asks to link first.
func (b *Bot) withUser(ctx context.Context, chatID int64, fn func(context.Context, int64, *models.User) error) error {
	u, err := b.store.GetUserByTelegramChat(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return b.api.SendMessage(ctx, chatID, needLinkText, nil)
	}
	if err != nil {
		return err
	}
	return fn(ctx, chatID, u)
}

func (b *Bot) sendPending(ctx context.Context, chatID int64, u *models.User) error {
	purchases, err := b.store.ListPendingByCoolingEnd(ctx, u.ID)
	if err != nil {
		return err
	}
	var kb *InlineKeyboardMarkup
	if len(purchases) > 0 {
		kb = pendingKeyboard()
	}
	return b.api.SendMessage(ctx, chatID, pendingText(purchases, b.now()), kb)
}

func (b *Bot) sendStats(ctx context.Context, chatID int64, u *models.User) error {
	stats, err := b.store.Statistics(ctx, u.ID, time.Time{})
	if err != nil {
		return err
	}
	return b.api.SendMessage(ctx, chatID, statsText(u, stats), nil)
}

func (b *Bot) sendSettings(ctx context.Context, chatID int64, u *models.User) error {
	return b.api.SendMessage(ctx, chatID, settingsText(u.NotificationsEnabled), settingsKeyboard(u.NotificationsEnabled))
}

func (b *Bot) handleCallback(ctx context.Context, q *CallbackQuery) error {
	if err := b.api.AnswerCallbackQuery(ctx, q.ID, ""); err != nil {
		slog.Warn("failed to answer callback", "error", err)
	}
	if q.Message == nil {
		return nil
	}
	chatID, messageID := q.Message.Chat.ID, q.Message.MessageID

	u, err := b.store.GetUserByTelegramChat(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return b.api.EditMessageText(ctx, chatID, messageID, "❌ Account is not linked.", nil)
	}
	if err != nil {
		return err
	}

	switch data := q.Data; {
	case data == CallbackToggleNotifications:
		enabled := !u.NotificationsEnabled
		if err := b.store.SetNotifications(ctx, u.ID, enabled); err != nil {
			return err
		}
		return b.api.EditMessageText(ctx, chatID, messageID, toggledText(enabled), nil)
	case data == CallbackStats:
		return b.sendStats(ctx, chatID, u)
	case data == CallbackSettings:
		return b.sendSettings(ctx, chatID, u)
	case strings.HasPrefix(data, callbackApprovePrefix):
		return b.decide(ctx, u, chatID, messageID, strings.TrimPrefix(data, callbackApprovePrefix), models.StatusApproved)
	case strings.HasPrefix(data, callbackRejectPrefix):
		return b.decide(ctx, u, chatID, messageID, strings.TrimPrefix(data, callbackRejectPrefix), models.StatusRejected)
	default:
		slog.Warn("unknown callback data", "data", data)
		return nil
	}
}

func (b *Bot) decide(ctx context.Context, u *models.User, chatID, messageID int64, rawID, status string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return b.api.EditMessageText(ctx, chatID, messageID, "❌ Unknown purchase.", nil)
	}

	p, err := b.decider.SetStatus(ctx, u.ID, id, status)
	if errors.Is(err, storage.ErrNotFound) {
		return b.api.EditMessageText(ctx, chatID, messageID, "❌ Purchase not found.", nil)
	}
	if err != nil {
		return err
	}
	return b.api.EditMessageText(ctx, chatID, messageID, decisionText(p), nil)
}
