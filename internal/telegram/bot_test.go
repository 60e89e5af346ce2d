package telegram

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"rational-assistant/internal/auth"
	"rational-assistant/internal/cache"
	"rational-assistant/internal/models"
	"rational-assistant/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type editedMessage struct {
	ChatID, MessageID int64
	Text              string
}

// fakeAPI records outgoing calls and serves queued updates.
type fakeAPI struct {
	recordingSender
	mu       sync.Mutex
	edits    []editedMessage
	answered []string
	updates  [][]Update
	offsets  []int64
}

func (f *fakeAPI) EditMessageText(_ context.Context, chatID, messageID int64, text string, _ *InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedMessage{chatID, messageID, text})
	return nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, id)
	return nil
}

func (f *fakeAPI) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]Update, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	if len(f.updates) > 0 {
		next := f.updates[0]
		f.updates = f.updates[1:]
		f.mu.Unlock()
		return next, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeAPI) lastText() string {
	f.recordingSender.mu.Lock()
	defer f.recordingSender.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

// storeDecider applies decisions straight to storage.
type storeDecider struct{ db *storage.DB }

func (d storeDecider) SetStatus(ctx context.Context, userID, id int64, status string) (*models.Purchase, error) {
	p, err := d.db.GetPurchase(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	p.Status = status
	if err := d.db.UpdatePurchase(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type BotTestSuite struct {
	suite.Suite
	db    *storage.DB
	api   *fakeAPI
	codes *auth.LinkCodes
	bot   *Bot
	ctx   context.Context
	user  *models.User
}

const chat int64 = 9001

func (suite *BotTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err)
	suite.db = db
	suite.ctx = context.Background()

	suite.user, err = db.CreateUser(suite.ctx, storage.NewUser{Nickname: "anna", Salary: decimal.NewFromInt(100000)})
	require.NoError(suite.T(), err)

	suite.api = &fakeAPI{}
	suite.codes = auth.NewLinkCodes(cache.NewMemory())
	suite.bot = NewBot(suite.api, db, storeDecider{db}, suite.codes)
}

func (suite *BotTestSuite) TearDownTest() {
	suite.db.Close()
}

func (suite *BotTestSuite) command(text string) string {
	suite.bot.HandleUpdate(suite.ctx, Update{Message: &Message{Chat: Chat{ID: chat}, Text: text}})
	return suite.api.lastText()
}

func (suite *BotTestSuite) press(data string) {
	suite.bot.HandleUpdate(suite.ctx, Update{CallbackQuery: &CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &Message{MessageID: 77, Chat: Chat{ID: chat}},
	}})
}

func (suite *BotTestSuite) link() {
	require.NoError(suite.T(), suite.db.LinkTelegram(suite.ctx, suite.user.ID, chat))
}

func (suite *BotTestSuite) TestStart() {
	assert.Contains(suite.T(), suite.command("/start"), "/link CODE")
}

func (suite *BotTestSuite) TestLink() {
	assert.Contains(suite.T(), suite.command("/link"), "Send the code from the app")
	assert.Equal(suite.T(), invalidLinkCodeText, suite.command("/link ghost"))

	code, _, err := suite.codes.Issue(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), suite.command("/link@assistant_bot "+code), "Account 'anna' linked")

	u, err := suite.db.GetUserByTelegramChat(suite.ctx, chat)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.user.ID, u.ID)
	assert.True(suite.T(), u.NotificationsEnabled)
}

func (suite *BotTestSuite) TestLinkByNicknameIsRefused() {
	assert.Equal(suite.T(), invalidLinkCodeText, suite.command("/link anna"))

	_, err := suite.db.GetUserByTelegramChat(suite.ctx, chat)
	assert.ErrorIs(suite.T(), err, storage.ErrNotFound)
}

func (suite *BotTestSuite) TestLinkCodeIsSingleUse() {
	code, _, err := suite.codes.Issue(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), suite.command("/link "+code), "linked")

	const otherChat int64 = 9002
	suite.bot.HandleUpdate(suite.ctx, Update{Message: &Message{Chat: Chat{ID: otherChat}, Text: "/link " + code}})
	assert.Equal(suite.T(), invalidLinkCodeText, suite.api.lastText())

	_, err = suite.db.GetUserByTelegramChat(suite.ctx, otherChat)
	assert.ErrorIs(suite.T(), err, storage.ErrNotFound)
}

func (suite *BotTestSuite) TestUnlink() {
	assert.Contains(suite.T(), suite.command("/unlink"), "not linked")

	suite.link()
	assert.Contains(suite.T(), suite.command("/unlink"), "Account unlinked")
	_, err := suite.db.GetUserByTelegramChat(suite.ctx, chat)
	assert.ErrorIs(suite.T(), err, storage.ErrNotFound)
}

func (suite *BotTestSuite) TestCommandsRequireLink() {
	for _, cmd := range []string{"/pending", "/stats", "/settings"} {
		assert.Equal(suite.T(), needLinkText, suite.command(cmd), cmd)
	}
}

func (suite *BotTestSuite) TestPendingAndStats() {
	suite.link()
	assert.Contains(suite.T(), suite.command("/pending"), "no pending purchases")

	p := &models.Purchase{
		UserID: suite.user.ID, Name: "Console", Price: decimal.NewFromInt(45000), Category: "Games",
		CoolingPeriodDays: 7, CoolingEndDate: time.Now().Add(7 * 24 * time.Hour),
	}
	require.NoError(suite.T(), suite.db.CreatePurchase(suite.ctx, p))

	pending := suite.command("/pending")
	assert.Contains(suite.T(), pending, "Console")
	assert.Contains(suite.T(), pending, "45,000 ₽")

	stats := suite.command("/stats")
	assert.Contains(suite.T(), stats, "Total: 1")
	assert.Contains(suite.T(), stats, "Pending: 1")
}

func (suite *BotTestSuite) TestToggleNotifications() {
	suite.link()
	assert.Contains(suite.T(), suite.command("/settings"), "🟢 On")

	suite.press(CallbackToggleNotifications)
	require.NotEmpty(suite.T(), suite.api.edits)
	assert.Equal(suite.T(), "Notifications off ❌", suite.api.edits[0].Text)
	assert.Equal(suite.T(), []string{"cb"}, suite.api.answered)

	u, err := suite.db.GetUserByID(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), u.NotificationsEnabled)
}

func (suite *BotTestSuite) TestDecisionButtons() {
	suite.link()
	p := &models.Purchase{
		UserID: suite.user.ID, Name: "Sneakers", Price: decimal.NewFromInt(9000), Category: "Clothes",
		CoolingPeriodDays: 1, CoolingEndDate: time.Now().Add(-time.Hour),
	}
	require.NoError(suite.T(), suite.db.CreatePurchase(suite.ctx, p))

	suite.press("reject_" + strconv.FormatInt(p.ID, 10))
	require.Len(suite.T(), suite.api.edits, 1)
	assert.Contains(suite.T(), suite.api.edits[0].Text, "9,000 ₽ saved")

	got, err := suite.db.GetPurchase(suite.ctx, suite.user.ID, p.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusRejected, got.Status)

	suite.press("approve_999")
	assert.Contains(suite.T(), suite.api.edits[1].Text, "Purchase not found")
}

func (suite *BotTestSuite) TestCallbackFromUnlinkedChat() {
	suite.press(CallbackStats)
	require.Len(suite.T(), suite.api.edits, 1)
	assert.Contains(suite.T(), suite.api.edits[0].Text, "not linked")
}

func (suite *BotTestSuite) TestRunAdvancesOffset() {
	suite.api.updates = [][]Update{
		{{UpdateID: 5, Message: &Message{Chat: Chat{ID: chat}, Text: "/start"}}},
		{{UpdateID: 6, Message: &Message{Chat: Chat{ID: chat}, Text: "hello"}}},
	}

	ctx, cancel := context.WithTimeout(suite.ctx, 200*time.Millisecond)
	defer cancel()
	require.NoError(suite.T(), suite.bot.Run(ctx))

	suite.api.mu.Lock()
	defer suite.api.mu.Unlock()
	assert.Equal(suite.T(), []int64{0, 6, 7}, suite.api.offsets)
	assert.Len(suite.T(), suite.api.sent, 1, "plain text is ignored")
}

func TestBotSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}
