package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/James99309/stargirl-reader/internal/economy"
	"github.com/James99309/stargirl-reader/internal/review"
	"github.com/James99309/stargirl-reader/pkg/models"
)

// Callback data prefixes
const (
	callbackMenu     = "menu"
	callbackReview   = "review"
	callbackHearts   = "hearts"
	callbackExchange = "exchange"
	callbackStats    = "stats"
	callbackAnswer   = "ans"
	callbackLearn    = "learn"
	callbackSave     = "save"
)

// maxCallbackData is Telegram's limit on callback payloads
const maxCallbackData = 64

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🧠 Review", CallbackData: callbackReview},
			{Text: "📊 Stats", CallbackData: callbackStats},
		},
		{
			{Text: "❤️ Hearts", CallbackData: callbackHearts},
			{Text: "💱 100 XP → ❤️", CallbackData: callbackExchange},
		},
	}
}

// answerButtons lays the options of a multiple choice question out in rows
func answerButtons(sessionID string, q *review.Question, perRow int) [][]MenuButton {
	if perRow <= 0 {
		perRow = 1
	}
	var rows [][]MenuButton
	var row []MenuButton
	for i, option := range q.Options {
		row = append(row, MenuButton{
			Text:         option,
			CallbackData: fmt.Sprintf("%s:%s:%d", callbackAnswer, sessionID, i),
		})
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// wordButtons offers the "got it" and "save" actions for a looked up word
func wordButtons(word string) [][]MenuButton {
	learn := callbackLearn + ":" + word
	save := callbackSave + ":" + word
	if len(save) > maxCallbackData {
		return nil
	}
	return [][]MenuButton{{
		{Text: "✅ Got it", CallbackData: learn},
		{Text: "🔖 Save", CallbackData: save},
	}}
}

var errBadCallback = errors.New("malformed callback data")

// parseAnswerCallback splits "ans:<session>:<choice>"
func parseAnswerCallback(data string) (string, int, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackAnswer || parts[1] == "" {
		return "", 0, errBadCallback
	}
	choice, err := strconv.Atoi(parts[2])
	if err != nil || choice < 0 {
		return "", 0, errBadCallback
	}
	return parts[1], choice, nil
}

// heartsBar renders hearts as filled and empty symbols
func heartsBar(hearts, capacity int) string {
	hearts = max(0, min(capacity, hearts))
	return strings.Repeat("❤️", hearts) + strings.Repeat("🤍", capacity-hearts)
}

// formatHearts describes the hearts and when the next one arrives
func formatHearts(p models.Progress, now time.Time, superMember bool) string {
	var sb strings.Builder
	sb.WriteString(heartsBar(p.Hearts, p.MaxHearts))
	sb.WriteString(fmt.Sprintf("\n%d/%d hearts", p.Hearts, p.MaxHearts))
	switch {
	case superMember:
		sb.WriteString("\n👑 Super member: unlimited hearts")
	case p.Hearts < p.MaxHearts && p.LastHeartLoss != nil:
		wait := p.LastHeartLoss.Add(economy.HeartRegenInterval).Sub(now)
		if wait > 0 {
			sb.WriteString(fmt.Sprintf("\n⏳ Refill in %s", formatWait(wait)))
		} else {
			sb.WriteString("\n⏳ Refill due now")
		}
	}
	return sb.String()
}

// formatWait rounds a duration up to whole minutes
func formatWait(d time.Duration) string {
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// formatStats summarizes the progress state
func formatStats(p models.Progress, mastered, learning int) string {
	var sb strings.Builder
	name := p.Username
	if name == "" {
		name = "reader"
	}
	sb.WriteString(fmt.Sprintf("📊 Stats for %s\n\n", name))
	sb.WriteString(fmt.Sprintf("⭐ Level %d · %d XP\n", economy.LevelFor(p.TotalXP), p.TotalXP))
	sb.WriteString(fmt.Sprintf("🔥 Streak: %d days\n", p.Streak))
	sb.WriteString(fmt.Sprintf("❤️ Hearts: %d/%d\n", p.Hearts, p.MaxHearts))
	sb.WriteString(fmt.Sprintf("📖 Chapter %d, section %d\n", p.CurrentChapter, p.CurrentSection))
	sb.WriteString(fmt.Sprintf("✅ Chapters completed: %d\n", len(p.ChaptersCompleted)))
	sb.WriteString(fmt.Sprintf("🧠 Words: %d mastered, %d learning\n", mastered, learning))
	if len(p.Achievements) > 0 {
		sb.WriteString(fmt.Sprintf("🏆 %s\n", strings.Join(p.Achievements, ", ")))
	}
	if p.IsSuperMember && p.SuperMemberExpiry != nil {
		sb.WriteString(fmt.Sprintf("👑 Super member until %s\n", p.SuperMemberExpiry.Format("2006-01-02")))
	}
	return sb.String()
}

// formatWords lists words with their mastery, at most limit of them
func formatWords(words []models.VocabularyRecord, limit int) string {
	if len(words) == 0 {
		return "No words yet. Use /define <word> to look one up."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📚 %d words\n\n", len(words)))
	for i, w := range words {
		if i == limit {
			sb.WriteString(fmt.Sprintf("… and %d more", len(words)-limit))
			break
		}
		mark := ""
		if w.IsSaved {
			mark = " 🔖"
		}
		sb.WriteString(fmt.Sprintf("%d. %s (%d%%)%s\n", i+1, w.Word, w.MasteryLevel, mark))
	}
	return sb.String()
}

// formatDefinition renders a looked up record
func formatDefinition(rec models.VocabularyRecord) string {
	var sb strings.Builder
	sb.WriteString("📖 " + rec.Word)
	if rec.Phonetic != "" {
		sb.WriteString(" " + rec.Phonetic)
	}
	if rec.PartOfSpeech != "" {
		sb.WriteString(" · " + rec.PartOfSpeech)
	}
	sb.WriteString("\n\n" + rec.Definition)
	if rec.HasContext() {
		sb.WriteString("\n\n✏️ " + rec.Contexts[0].Sentence)
	}
	return sb.String()
}

// formatQuestion renders the prompt of a review question
func formatQuestion(q *review.Question, position, total int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧠 Question %d/%d\n\n", position, total))
	sb.WriteString(q.Prompt)
	if q.Sentence != "" {
		sb.WriteString("\n\n“" + q.Sentence + "”")
	}
	if q.IsTyped() {
		sb.WriteString("\n\n⌨️ Type the word you hear.")
	}
	return sb.String()
}

// formatResult describes the outcome of one answer
func formatResult(res *review.Result) string {
	if res.Skipped {
		return "🗑 That word was deleted, skipping it."
	}
	if res.Correct {
		return fmt.Sprintf("✅ Correct! +%d XP", res.XPAwarded)
	}
	text := fmt.Sprintf("❌ The answer was: %s", res.CorrectAnswer)
	if res.HeartLost {
		text += "\n💔 -1 heart"
	}
	return text
}

// formatSummary describes a finished review session
func formatSummary(sum review.Summary) string {
	if sum.Total == 0 {
		return "🎉 No words due. You're all caught up!"
	}
	return fmt.Sprintf("🏁 Review finished: %d/%d correct (%.0f%%)\n%s", sum.Correct, sum.Total, sum.Percent, sum.Grade)
}

// formatLeaderboard renders the top entries
func formatLeaderboard(entries []models.LeaderboardEntry, limit int, username string) string {
	if len(entries) == 0 {
		return "🏆 The leaderboard is empty."
	}
	var sb strings.Builder
	sb.WriteString("🏆 Leaderboard\n\n")
	for i, e := range entries {
		if i == limit {
			break
		}
		line := fmt.Sprintf("%d. %s · %d XP · Lv %d", e.Rank, e.Username, e.TotalXP, e.Level)
		if e.IsSuperMember {
			line += " 👑"
		}
		if strings.EqualFold(e.Username, username) {
			line = "➡️ " + line
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// parseQuizScore reads "3/4" into its parts
func parseQuizScore(s string) (int, int, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid quiz score %q", s)
	}
	correct, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quiz score %q", s)
	}
	total, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || total <= 0 || correct < 0 || correct > total {
		return 0, 0, fmt.Errorf("invalid quiz score %q", s)
	}
	return correct, total, nil
}
