package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"rational-assistant/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkCodes_IssueAndRedeem(t *testing.T) {
	ctx := context.Background()
	codes := NewLinkCodes(cache.NewMemory())

	code, expires, err := codes.Issue(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.WithinDuration(t, time.Now().Add(LinkCodeTTL), expires, time.Second)

	userID, err := codes.Redeem(ctx, " "+strings.ToLower(code)+" ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	_, err = codes.Redeem(ctx, code)
	assert.ErrorIs(t, err, ErrInvalidLinkCode, "a code works once")
}

func TestLinkCodes_Unknown(t *testing.T) {
	codes := NewLinkCodes(cache.NewMemory())

	_, err := codes.Redeem(context.Background(), "DEADBEEF")
	assert.ErrorIs(t, err, ErrInvalidLinkCode)
	_, err = codes.Redeem(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidLinkCode)
}

func TestLinkCodes_Expire(t *testing.T) {
	ctx := context.Background()
	codes := NewLinkCodes(cache.NewMemory())
	codes.ttl = 10 * time.Millisecond

	code, _, err := codes.Issue(ctx, 7)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	_, err = codes.Redeem(ctx, code)
	assert.ErrorIs(t, err, ErrInvalidLinkCode)
}

func TestLinkCodes_DistinctCodes(t *testing.T) {
	ctx := context.Background()
	codes := NewLinkCodes(cache.NewMemory())

	a, _, err := codes.Issue(ctx, 1)
	require.NoError(t, err)
	b, _, err := codes.Issue(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
