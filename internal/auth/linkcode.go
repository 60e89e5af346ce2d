package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"rational-assistant/internal/cache"
)

// LinkCodeTTL is how long a chat link code stays valid.
const LinkCodeTTL = 10 * time.Minute

// ErrInvalidLinkCode is returned for unknown, expired or already used codes.
var ErrInvalidLinkCode = errors.New("invalid or expired link code")

// LinkCodes issues single-use codes that bind a chat to an account. The
// code is shown to the logged-in user and typed into the chat, so knowing a
// nickname is not enough to take over someone's notifications.
type LinkCodes struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewLinkCodes stores codes in c.
func NewLinkCodes(c cache.Cache) *LinkCodes {
	return &LinkCodes{cache: c, ttl: LinkCodeTTL, now: time.Now}
}

func linkCodeKey(code string) string {
	return "linkcode:" + code
}

// Issue creates a fresh code for userID and returns it with its expiry.
func (l *LinkCodes) Issue(ctx context.Context, userID int64) (string, time.Time, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, err
	}
	code := strings.ToUpper(hex.EncodeToString(buf))
	if err := l.cache.Set(ctx, linkCodeKey(code), userID, l.ttl); err != nil {
		return "", time.Time{}, err
	}
	return code, l.now().Add(l.ttl), nil
}

// Redeem consumes code and returns the user it was issued for. A code works
// once even when two chats race for it.
func (l *LinkCodes) Redeem(ctx context.Context, code string) (int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, ErrInvalidLinkCode
	}
	key := linkCodeKey(code)

	var userID int64
	if err := l.cache.Get(ctx, key, &userID); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return 0, ErrInvalidLinkCode
		}
		return 0, err
	}

	claimed, err := l.cache.SetNX(ctx, key+":used", l.ttl)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, ErrInvalidLinkCode
	}
	if err := l.cache.Delete(ctx, key); err != nil {
		return 0, err
	}
	return userID, nil
}
