// Package telegram talks to the Telegram Bot API: it sends purchase
// notifications and answers bot commands.
package telegram

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"rational-assistant/internal/cache"
)

// DefaultDedupeWindow is how long an identical message to the same chat is
// suppressed.
const DefaultDedupeWindow = 30 * time.Second

// APIError is an unsuccessful Bot API response.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

// Sender delivers chat messages. Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error
}

// SentMessage is a message recorded by a client in test mode.
type SentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *InlineKeyboardMarkup
}

// Client is a minimal Bot API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	enabled     bool
	rateLimiter *RateLimiter

	dedupe       cache.Cache
	dedupeWindow time.Duration

	mu       sync.Mutex
	testMode bool
	sent     []SentMessage
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDedupe stores duplicate markers in c, for example a shared Redis
// cache, and suppresses repeats for window. A non-positive window turns
// deduplication off.
func WithDedupe(c cache.Cache, window time.Duration) ClientOption {
	return func(cl *Client) {
		cl.dedupe = c
		cl.dedupeWindow = window
	}
}

// WithTestMode makes the client record messages instead of sending them.
func WithTestMode() ClientOption {
	return func(c *Client) { c.testMode = true }
}

// NewClient creates a client for the bot behind token. A disabled client
// logs outgoing messages instead of sending them. Identical messages to the
// same chat are dropped for DefaultDedupeWindow unless WithDedupe says
// otherwise.
func NewClient(apiURL, token string, enabled bool, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		baseURL:      fmt.Sprintf("%s/bot%s/", strings.TrimRight(apiURL, "/"), token),
		enabled:      enabled,
		rateLimiter:  NewRateLimiter(50 * time.Millisecond),
		dedupe:       cache.NewMemory(),
		dedupeWindow: DefaultDedupeWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the client actually calls the API.
func (c *Client) Enabled() bool {
	return c.enabled
}

// SetTestMode switches recording of outgoing messages on or off.
func (c *Client) SetTestMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.testMode = enabled
}

// IsTestMode reports whether messages are recorded instead of sent.
func (c *Client) IsTestMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.testMode
}

// Sent returns the messages recorded in test mode.
func (c *Client) Sent() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SentMessage(nil), c.sent...)
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage sends an HTML formatted message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error {
	if !c.enabled {
		slog.Debug("telegram disabled, message dropped", "chat_id", chatID)
		return nil
	}

	key, first := c.markSent(ctx, chatID, text)
	if !first {
		slog.Debug("duplicate telegram message dropped", "chat_id", chatID)
		return nil
	}

	c.mu.Lock()
	if c.testMode {
		c.sent = append(c.sent, SentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	err := c.rateLimiter.Wait(ctx)
	if err == nil {
		err = c.call(ctx, "sendMessage", sendMessageRequest{
			ChatID:      chatID,
			Text:        text,
			ParseMode:   "HTML",
			ReplyMarkup: keyboard,
		}, nil)
	}
	if err != nil && key != "" {
		// A failed send must not block a retry.
		if derr := c.dedupe.Delete(context.WithoutCancel(ctx), key); derr != nil {
			slog.Warn("failed to clear telegram dedupe marker", "error", derr)
		}
	}
	return err
}

// markSent records chatID+text in the dedupe cache. It returns the marker
// key and whether this is the first such message in the window. Cache
// failures let the message through.
func (c *Client) markSent(ctx context.Context, chatID int64, text string) (string, bool) {
	if c.dedupe == nil || c.dedupeWindow <= 0 {
		return "", true
	}
	sum := sha256.Sum256([]byte(text))
	key := fmt.Sprintf("telegram:sent:%d:%s", chatID, hex.EncodeToString(sum[:16]))

	first, err := c.dedupe.SetNX(ctx, key, c.dedupeWindow)
	if err != nil {
		slog.Warn("telegram dedupe check failed", "error", err)
		return "", true
	}
	return key, first
}

// EditMessageText replaces the text of a message the bot sent earlier.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	if !c.enabled || c.IsTestMode() {
		return nil
	}
	payload := struct {
		ChatID      int64                 `json:"chat_id"`
		MessageID   int64                 `json:"message_id"`
		Text        string                `json:"text"`
		ParseMode   string                `json:"parse_mode"`
		ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	}{chatID, messageID, text, "HTML", keyboard}
	return c.call(ctx, "editMessageText", payload, nil)
}

// AnswerCallbackQuery acknowledges a button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	if !c.enabled || c.IsTestMode() {
		return nil
	}
	payload := struct {
		CallbackQueryID string `json:"callback_query_id"`
		Text            string `json:"text,omitempty"`
	}{callbackID, text}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := struct {
		Offset         int64    `json:"offset"`
		Timeout        int      `json:"timeout"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{offset, int(timeout.Seconds()), []string{"message", "callback_query"}}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	return c.callRetry(ctx, method, payload, result, true)
}

func (c *Client) callRetry(ctx context.Context, method string, payload, result any, retry bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", method, err)
	}

	if !apiResp.OK {
		if apiResp.ErrorCode == http.StatusTooManyRequests && retry {
			wait := time.Duration(max(apiResp.Parameters.RetryAfter, 1)) * time.Second
			slog.Warn("telegram rate limit hit", "method", method, "retry_after", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			return c.callRetry(ctx, method, payload, result, false)
		}
		return &APIError{Code: apiResp.ErrorCode, Description: apiResp.Description}
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("%s: failed to decode result: %w", method, err)
		}
	}
	return nil
}
