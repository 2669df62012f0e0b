package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/app"
	"github.com/James99309/stargirl-reader/internal/review"
	"github.com/James99309/stargirl-reader/pkg/models"
)

const ownerID = 4242

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (f *fakeSender) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	return msg
}

func newTestBot(t *testing.T) (*Bot, *app.App, *fakeSender) {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := app.New(nil, app.Options{
		Clock:    func() time.Time { return now },
		Location: time.UTC,
		Rand:     rand.New(rand.NewSource(5)),
	}, zap.NewNop())
	require.NoError(t, a.Load(context.Background()))

	b, err := New("token", ownerID, a, nil, zap.NewNop())
	require.NoError(t, err)
	out := &fakeSender{}
	b.out = out
	return b, a, out
}

func command(text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: ownerID},
		Chat:     &tgbotapi.Chat{ID: ownerID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: ownerID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: ownerID}},
		Data:    data,
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New("", ownerID, nil, nil, zap.NewNop())
	assert.Error(t, err)
	_, err = New("token", 0, nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestParseAnswerCallback(t *testing.T) {
	id, choice, err := parseAnswerCallback("ans:abc-123:2")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
	assert.Equal(t, 2, choice)

	for _, bad := range []string{"ans:abc", "ans::1", "ans:abc:x", "ans:abc:-1", "learn:abc:1"} {
		_, _, err := parseAnswerCallback(bad)
		assert.ErrorIs(t, err, errBadCallback, bad)
	}
}

func TestParseQuizScore(t *testing.T) {
	correct, total, err := parseQuizScore("3/4")
	require.NoError(t, err)
	assert.Equal(t, 3, correct)
	assert.Equal(t, 4, total)

	for _, bad := range []string{"3", "5/4", "a/4", "1/0", "-1/4"} {
		_, _, err := parseQuizScore(bad)
		assert.Error(t, err, bad)
	}
}

func TestHeartsBar(t *testing.T) {
	assert.Equal(t, "❤️❤️🤍🤍🤍", heartsBar(2, 5))
	assert.Equal(t, "🤍🤍", heartsBar(-1, 2))
	assert.Equal(t, "❤️❤️", heartsBar(7, 2))
}

func TestFormatWait(t *testing.T) {
	assert.Equal(t, "1m", formatWait(10*time.Second))
	assert.Equal(t, "30m", formatWait(30*time.Minute))
	assert.Equal(t, "1h 5m", formatWait(65*time.Minute))
}

func TestAnswerButtons(t *testing.T) {
	q := &review.Question{Options: []string{"a", "b", "c"}}
	rows := answerButtons("sid", q, 2)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Equal(t, "ans:sid:2", rows[1][0].CallbackData)
}

func TestWordButtonsRespectCallbackLimit(t *testing.T) {
	assert.Len(t, wordButtons("lucid"), 1)
	assert.Nil(t, wordButtons(strings.Repeat("x", maxCallbackData)))
}

func TestFormatWordsLimit(t *testing.T) {
	words := []models.VocabularyRecord{{Word: "a"}, {Word: "b", IsSaved: true}, {Word: "c"}}
	text := formatWords(words, 2)
	assert.Contains(t, text, "2. b (0%) 🔖")
	assert.Contains(t, text, "and 1 more")
	assert.NotContains(t, text, "3. c")
}

func TestStatsCommand(t *testing.T) {
	b, a, out := newTestBot(t)
	a.Economy.AddXP(250)

	require.NoError(t, b.HandleCommand(context.Background(), command("/stats")))
	assert.Contains(t, out.lastMessage(t).Text, "Level 3 · 250 XP")
}

func TestCompleteCommand(t *testing.T) {
	b, a, out := newTestBot(t)

	require.NoError(t, b.HandleCommand(context.Background(), command("/complete 1 3/4")))
	assert.Contains(t, out.lastMessage(t).Text, "+73 XP")
	assert.True(t, a.Economy.IsChapterCompleted(1))

	require.NoError(t, b.HandleCommand(context.Background(), command("/complete one")))
	assert.Contains(t, out.lastMessage(t).Text, "positive number")
}

func TestExchangeCommand(t *testing.T) {
	b, a, out := newTestBot(t)

	require.NoError(t, b.HandleCommand(context.Background(), command("/exchange")))
	assert.Contains(t, out.lastMessage(t).Text, "already full")

	require.True(t, a.Economy.LoseHeart())
	require.NoError(t, b.HandleCommand(context.Background(), command("/exchange")))
	assert.Contains(t, out.lastMessage(t).Text, "You need 100 XP")

	a.Economy.AddXP(100)
	require.NoError(t, b.HandleCommand(context.Background(), command("/exchange")))
	assert.Contains(t, out.lastMessage(t).Text, "Traded 100 XP")
}

func TestDeleteCommand(t *testing.T) {
	b, a, out := newTestBot(t)
	a.AddWord(models.VocabularyRecord{Word: "lucid", Definition: "clear"})

	require.NoError(t, b.HandleCommand(context.Background(), command("/delete lucid")))
	assert.Contains(t, out.lastMessage(t).Text, "Deleted")
	require.NoError(t, b.HandleCommand(context.Background(), command("/delete lucid")))
	assert.Contains(t, out.lastMessage(t).Text, "not in your words")
}

func TestDefineWithoutLookup(t *testing.T) {
	b, _, out := newTestBot(t)
	require.NoError(t, b.HandleCommand(context.Background(), command("/define lucid")))
	assert.Contains(t, out.lastMessage(t).Text, "not configured")
}

func TestLocationCommand(t *testing.T) {
	b, _, out := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, b.HandleCommand(ctx, command("/location")))
	assert.Contains(t, out.lastMessage(t).Text, "Usage")

	require.NoError(t, b.HandleCommand(ctx, command("/location Arizona")))
	assert.Contains(t, out.lastMessage(t).Text, "not configured")
}

func TestReviewThroughCallbacks(t *testing.T) {
	b, a, out := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, b.HandleCommand(ctx, command("/review")))
	assert.Contains(t, out.lastMessage(t).Text, "all caught up")

	a.AddWord(models.VocabularyRecord{Word: "lucid", Definition: "clear"})
	require.NoError(t, b.HandleCommand(ctx, command("/review")))
	question := out.lastMessage(t)
	assert.Contains(t, question.Text, "Question 1/1")
	assert.NotNil(t, question.ReplyMarkup)

	b.mu.Lock()
	sessionID := b.reviewID
	b.mu.Unlock()
	sess, err := a.ReviewSession(sessionID)
	require.NoError(t, err)
	q, err := sess.Current()
	require.NoError(t, err)

	require.NoError(t, b.HandleCallback(ctx, callback(fmt.Sprintf("ans:%s:%d", sessionID, q.CorrectIndex()))))
	texts := out.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Equal(t, "✅ Correct! +10 XP", texts[len(texts)-2])
	assert.Contains(t, texts[len(texts)-1], "1/1 correct")
	assert.Equal(t, 1, out.requests)
	assert.Equal(t, 10, a.Economy.Snapshot().TotalXP)

	require.NoError(t, b.HandleCallback(ctx, callback(fmt.Sprintf("ans:%s:0", sessionID))))
	assert.Contains(t, out.lastMessage(t).Text, "review has ended")
}

func TestNotifierWithoutConnection(t *testing.T) {
	b, err := New("token", ownerID, nil, nil, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, b.HeartsRestored(1, 5))
	assert.NoError(t, b.MembershipExpired())
	assert.NoError(t, b.WordsDue(3))
}

func TestNotifierSends(t *testing.T) {
	b, _, out := newTestBot(t)
	require.NoError(t, b.WordsDue(3))
	msg := out.lastMessage(t)
	assert.Contains(t, msg.Text, "3 word(s)")
	assert.NotNil(t, msg.ReplyMarkup)
}
