package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/app"
	"github.com/James99309/stargirl-reader/internal/economy"
	"github.com/James99309/stargirl-reader/internal/excel"
	"github.com/James99309/stargirl-reader/internal/lookup"
	"github.com/James99309/stargirl-reader/internal/review"
)

const helpText = `📚 Stargirl Reader

/start <username> - log in and sync with the leaderboard
/review - review the words that are due
/hearts - show your hearts
/exchange - trade 100 XP for a heart
/buy - buy 30 days of super membership (6499 XP)
/stats - show your progress
/words - list your words
/define <word> - look a word up
/save <word> - save a word for later
/delete <word> - remove a word
/complete <chapter> [correct/total] - finish a chapter
/leaderboard - show the rankings
/redeem <code> - redeem a reward code
/location <place> - share where you read from
/speak <text> - read text aloud

Send an .xlsx or .csv file to import words.`

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	ctx, cancel := context.WithTimeout(ctx, b.config.RequestTimeout)
	defer cancel()

	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())
	switch message.Command() {
	case "start":
		return b.handleStart(ctx, chatID, args)
	case "help", "menu":
		return b.sendMenu(chatID, helpText)
	case "review":
		return b.handleReview(chatID)
	case "hearts":
		return b.handleHearts(chatID)
	case "exchange":
		return b.handleExchange(chatID)
	case "buy":
		return b.handleBuy(chatID)
	case "stats":
		return b.handleStats(chatID)
	case "words":
		return b.sendText(chatID, formatWords(b.app.Vocabulary.All(), b.config.WordsPerPage))
	case "define":
		return b.handleDefine(ctx, chatID, args)
	case "save":
		return b.handleSave(ctx, chatID, args)
	case "delete":
		return b.handleDelete(chatID, args)
	case "complete":
		return b.handleComplete(chatID, args)
	case "leaderboard":
		return b.handleLeaderboard(ctx, chatID)
	case "redeem":
		return b.handleRedeem(ctx, chatID, args)
	case "location":
		return b.handleLocation(chatID, args)
	case "speak":
		return b.handleSpeak(ctx, chatID, args)
	case "logout":
		b.app.Logout()
		return b.sendText(chatID, "👋 Logged out. Your words are kept.")
	default:
		return b.sendMenu(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64, username string) error {
	if username == "" {
		return b.sendMenu(chatID, "Welcome! 🌟\n\n"+helpText)
	}
	p, err := b.app.Login(ctx, username)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+err.Error())
	}
	return b.sendMenu(chatID, fmt.Sprintf("Welcome, %s! ⭐ %d XP · ❤️ %d/%d", p.Username, p.TotalXP, p.Hearts, p.MaxHearts))
}

func (b *Bot) handleHearts(chatID int64) error {
	b.app.Economy.CheckAndRestoreHearts()
	p := b.app.Economy.Snapshot()
	return b.sendText(chatID, formatHearts(p, time.Now(), b.app.Economy.IsSuperMember()))
}

func (b *Bot) handleExchange(chatID int64) error {
	p := b.app.Economy.Snapshot()
	switch {
	case p.Hearts >= p.MaxHearts:
		return b.sendText(chatID, "❤️ Your hearts are already full.")
	case !b.app.Economy.ExchangeXPForHeart():
		return b.sendText(chatID, fmt.Sprintf("⚠️ You need %d XP for a heart.", economy.XPPerHeart))
	}
	p = b.app.Economy.Snapshot()
	return b.sendText(chatID, fmt.Sprintf("💱 Traded %d XP for a heart.\n%s", economy.XPPerHeart, heartsBar(p.Hearts, p.MaxHearts)))
}

func (b *Bot) handleBuy(chatID int64) error {
	if !b.app.PurchaseSuperMember() {
		return b.sendText(chatID, fmt.Sprintf("⚠️ Super membership costs %d XP.", economy.SuperMemberCost))
	}
	p := b.app.Economy.Snapshot()
	return b.sendText(chatID, fmt.Sprintf("👑 You are a super member until %s.", p.SuperMemberExpiry.Format("2006-01-02 15:04")))
}

func (b *Bot) handleStats(chatID int64) error {
	p := b.app.Economy.Snapshot()
	mastered := len(b.app.Vocabulary.MasteredWords())
	learning := len(b.app.Vocabulary.LearningWords())
	return b.sendText(chatID, formatStats(p, mastered, learning))
}

func (b *Bot) handleDefine(ctx context.Context, chatID int64, word string) error {
	if word == "" {
		return b.sendText(chatID, "Usage: /define <word>")
	}
	res, err := b.app.LookupWord(ctx, word, nil)
	if err != nil {
		return b.sendLookupError(chatID, word, err)
	}
	msg := tgbotapi.NewMessage(chatID, formatDefinition(res.Record))
	if buttons := wordButtons(res.Record.Word); buttons != nil {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	return b.send(msg)
}

func (b *Bot) sendLookupError(chatID int64, word string, err error) error {
	switch {
	case errors.Is(err, lookup.ErrStale):
		return nil
	case errors.Is(err, lookup.ErrNotFound):
		return b.sendText(chatID, fmt.Sprintf("🤷 No definition found for %q.", word))
	case errors.Is(err, app.ErrUnavailable):
		return b.sendText(chatID, "⚠️ Word lookup is not configured.")
	}
	b.logger.Warn("Lookup failed", zap.String("word", word), zap.Error(err))
	return b.sendText(chatID, "❌ Lookup failed. Please try again later.")
}

func (b *Bot) handleSave(ctx context.Context, chatID int64, word string) error {
	if word == "" {
		return b.sendText(chatID, "Usage: /save <word>")
	}
	rec, err := b.app.LearnWord(ctx, word, nil, true)
	if err != nil {
		return b.sendLookupError(chatID, word, err)
	}
	return b.sendText(chatID, fmt.Sprintf("🔖 Saved %q.", rec.Word))
}

func (b *Bot) handleDelete(chatID int64, word string) error {
	if word == "" {
		return b.sendText(chatID, "Usage: /delete <word>")
	}
	if !b.app.Vocabulary.DeleteWord(word) {
		return b.sendText(chatID, fmt.Sprintf("🤷 %q is not in your words.", word))
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Deleted %q.", word))
}

func (b *Bot) handleComplete(chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return b.sendText(chatID, "Usage: /complete <chapter> [correct/total]")
	}
	chapterID, err := strconv.Atoi(fields[0])
	if err != nil || chapterID <= 0 {
		return b.sendText(chatID, "⚠️ Chapter must be a positive number.")
	}
	var correct, total int
	if len(fields) == 2 {
		correct, total, err = parseQuizScore(fields[1])
		if err != nil {
			return b.sendText(chatID, "⚠️ Quiz score must look like 3/4.")
		}
	}

	res := b.app.CompleteChapter(chapterID, correct, total)
	text := fmt.Sprintf("🎉 Chapter %d complete!\n⭐ +%d XP", chapterID, res.XPAwarded)
	if res.QuizBonus > 0 {
		text += fmt.Sprintf(" (quiz bonus %d)", res.QuizBonus)
	}
	text += fmt.Sprintf("\n🔥 Streak: %d days\n❤️ Hearts: %d", res.Streak, res.Hearts)
	return b.sendText(chatID, text)
}

func (b *Bot) handleLeaderboard(ctx context.Context, chatID int64) error {
	entries, err := b.app.Leaderboard(ctx)
	if err != nil {
		if errors.Is(err, app.ErrUnavailable) {
			return b.sendText(chatID, "⚠️ The leaderboard is not configured.")
		}
		b.logger.Warn("Failed to fetch leaderboard", zap.Error(err))
		return b.sendText(chatID, "❌ The leaderboard is unavailable right now.")
	}
	username := b.app.Economy.Snapshot().Username
	return b.sendText(chatID, formatLeaderboard(entries, b.config.LeaderboardSize, username))
}

func (b *Bot) handleRedeem(ctx context.Context, chatID int64, code string) error {
	if code == "" {
		return b.sendText(chatID, "Usage: /redeem <code>")
	}
	xp, err := b.app.RedeemCode(ctx, code)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+err.Error())
	}
	return b.sendText(chatID, fmt.Sprintf("🎁 Code redeemed: +%d XP", xp))
}

func (b *Bot) handleLocation(chatID int64, location string) error {
	if location == "" {
		return b.sendText(chatID, "Usage: /location <place>")
	}
	switch err := b.app.UpdateLocation(location); {
	case errors.Is(err, app.ErrUnavailable):
		return b.sendText(chatID, "⚠️ Leaderboard sync is not configured.")
	case errors.Is(err, app.ErrLoginRequired):
		return b.sendText(chatID, "⚠️ Log in with /start <username> first.")
	case err != nil:
		return b.sendText(chatID, "⚠️ "+err.Error())
	}
	return b.sendText(chatID, "📍 Location updated to "+location)
}

func (b *Bot) handleSpeak(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return b.sendText(chatID, "Usage: /speak <text>")
	}
	audio, err := b.app.Speak(ctx, text)
	if err != nil {
		if errors.Is(err, app.ErrUnavailable) {
			return b.sendText(chatID, "⚠️ Speech is not configured.")
		}
		b.logger.Warn("Speech failed", zap.Error(err))
		return b.sendText(chatID, "❌ Could not read that aloud.")
	}
	name := "speech.mp3"
	if audio.ContentType == "audio/wav" {
		name = "speech.wav"
	}
	return b.send(tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{Name: name, Bytes: audio.Data}))
}

// handleReview starts a review session and asks its first question
func (b *Bot) handleReview(chatID int64) error {
	sess, err := b.app.StartReview()
	if err != nil {
		if errors.Is(err, review.ErrOutOfHearts) {
			return b.sendText(chatID, "💔 You are out of hearts. Wait for the refill or use /exchange.")
		}
		return err
	}
	if sess.State() != review.StateInProgress {
		return b.sendText(chatID, formatSummary(sess.Summary()))
	}

	b.mu.Lock()
	b.reviewID = sess.ID
	b.mu.Unlock()
	return b.askCurrent(chatID, sess)
}

func (b *Bot) askCurrent(chatID int64, sess *review.Session) error {
	q, err := sess.Current()
	if err != nil {
		return b.finishReview(chatID, sess.ID)
	}
	sum := sess.Summary()

	b.mu.Lock()
	b.awaitingTyped = q.IsTyped()
	b.mu.Unlock()

	msg := tgbotapi.NewMessage(chatID, formatQuestion(q, sum.Position+1, sum.Total))
	if !q.IsTyped() {
		msg.ReplyMarkup = createKeyboard(answerButtons(sess.ID, q, b.config.ButtonsPerRow))
	}
	if err := b.send(msg); err != nil {
		return err
	}
	if q.IsTyped() && q.AudioRef != "" {
		return b.send(tgbotapi.NewAudio(chatID, tgbotapi.FileURL(q.AudioRef)))
	}
	return nil
}

func (b *Bot) answer(chatID int64, sessionID string, a review.Answer) error {
	res, err := b.app.AnswerReview(sessionID, a)
	switch {
	case errors.Is(err, review.ErrOutOfHearts):
		b.finishReview(chatID, sessionID)
		return b.sendText(chatID, "💔 You are out of hearts. Wait for the refill or use /exchange.")
	case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, review.ErrSessionFinished):
		return b.sendText(chatID, "This review has ended. Use /review to start again.")
	case err != nil:
		return err
	}

	if err := b.sendText(chatID, formatResult(res)); err != nil {
		return err
	}
	if res.Finished {
		return b.finishReview(chatID, sessionID)
	}
	sess, err := b.app.ReviewSession(sessionID)
	if err != nil {
		return err
	}
	return b.askCurrent(chatID, sess)
}

func (b *Bot) finishReview(chatID int64, sessionID string) error {
	b.mu.Lock()
	if b.reviewID == sessionID {
		b.reviewID = ""
		b.awaitingTyped = false
	}
	b.mu.Unlock()

	sum, err := b.app.EndReview(sessionID)
	if err != nil {
		return nil
	}
	return b.sendMenu(chatID, formatSummary(sum))
}

// handleText takes typed answers for listening questions
func (b *Bot) handleText(message *tgbotapi.Message) error {
	b.mu.Lock()
	sessionID, typed := b.reviewID, b.awaitingTyped
	b.mu.Unlock()

	if sessionID == "" || !typed {
		return b.sendMenu(message.Chat.ID, "I don't understand. Use /help to see what I can do.")
	}
	return b.answer(message.Chat.ID, sessionID, review.Answer{Text: message.Text})
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always answer the callback query to remove the loading state
	if _, err := b.out.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.RequestTimeout)
	defer cancel()

	chatID := callback.Message.Chat.ID
	data := callback.Data
	switch {
	case data == callbackMenu:
		return b.sendMenu(chatID, helpText)
	case data == callbackReview:
		return b.handleReview(chatID)
	case data == callbackHearts:
		return b.handleHearts(chatID)
	case data == callbackExchange:
		return b.handleExchange(chatID)
	case data == callbackStats:
		return b.handleStats(chatID)
	case strings.HasPrefix(data, callbackAnswer+":"):
		sessionID, choice, err := parseAnswerCallback(data)
		if err != nil {
			return err
		}
		return b.answer(chatID, sessionID, review.Answer{Choice: choice})
	case strings.HasPrefix(data, callbackLearn+":"):
		word := strings.TrimPrefix(data, callbackLearn+":")
		rec, err := b.app.LearnWord(ctx, word, nil, false)
		if err != nil {
			return b.sendLookupError(chatID, word, err)
		}
		return b.sendText(chatID, fmt.Sprintf("✅ %q added to your words.", rec.Word))
	case strings.HasPrefix(data, callbackSave+":"):
		return b.handleSave(ctx, chatID, strings.TrimPrefix(data, callbackSave+":"))
	}
	return b.sendText(chatID, "⚠️ Unknown action")
}

// handleDocument imports an uploaded word list
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		return b.sendText(message.Chat.ID, "⚠️ Please send an .xlsx or .csv file.")
	}
	if b.api == nil {
		return errors.New("bot is not connected")
	}
	fileURL, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file url: %w", err)
	}

	path, err := download(ctx, fileURL, ext)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	config := excel.DefaultImportConfig()
	config.FilePath = path
	result, err := excel.ImportWords(config, b.app.Vocabulary)
	if err != nil {
		b.logger.Error("Import failed", zap.String("file", doc.FileName), zap.Error(err))
		return b.sendText(message.Chat.ID, "❌ Could not read that file.")
	}

	text := fmt.Sprintf("📥 Imported %s\nRows: %d\nNew words: %d\nContexts added: %d\nSkipped: %d",
		doc.FileName, result.TotalProcessed, result.Created, result.ContextsAdded, result.Skipped)
	if len(result.Errors) > 0 {
		text += fmt.Sprintf("\nErrors: %d (first: %s)", len(result.Errors), result.Errors[0])
	}
	return b.sendText(message.Chat.ID, text)
}

// download stores the file at url in a temporary file with the given extension
func download(ctx context.Context, url, ext string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "import-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return f.Name(), nil
}
