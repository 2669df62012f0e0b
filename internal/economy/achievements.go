package economy

import (
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// Achievement ids
const (
	AchievementFirstChapter = "first_chapter"
	AchievementStreak7      = "streak_7"
	AchievementBookworm     = "bookworm"
	AchievementStreak30     = "streak_30"
	AchievementWordMaster10 = "word_master_10"
	AchievementWordMaster50 = "word_master_50"
	AchievementPerfectScore = "perfect_score"
)

const dateLayout = "2006-01-02"

var achievementIDs = []string{
	AchievementFirstChapter,
	AchievementStreak7,
	AchievementBookworm,
	AchievementStreak30,
	AchievementWordMaster10,
	AchievementWordMaster50,
	AchievementPerfectScore,
}

// IsAchievement reports whether id names a known achievement
func IsAchievement(id string) bool {
	return containsValue(achievementIDs, id)
}

// unlock adds an achievement id; unlocking twice is a no-op
func unlock(p *models.Progress, id string) bool {
	if containsValue(p.Achievements, id) {
		return false
	}
	p.Achievements = append(p.Achievements, id)
	return true
}

// UnlockAchievement adds id to the unlocked set
func (e *Economy) UnlockAchievement(id string) bool {
	if id == "" {
		return false
	}
	unlocked := e.update(func(p *models.Progress, _ time.Time) bool {
		return unlock(p, id)
	})
	if unlocked {
		e.logger.Info("Achievement unlocked", zap.String("achievement", id))
	}
	return unlocked
}

// HasAchievement reports whether id is unlocked
func (e *Economy) HasAchievement(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return containsValue(e.state.Achievements, id)
}

// CompleteChapter marks a chapter done and restores one heart every time.
// Returns true the first time the chapter is completed.
func (e *Economy) CompleteChapter(chapterID int) bool {
	var isNew bool
	e.update(func(p *models.Progress, _ time.Time) bool {
		isNew = !containsValue(p.ChaptersCompleted, chapterID)
		if isNew {
			p.ChaptersCompleted = append(p.ChaptersCompleted, chapterID)
		}
		restoreHearts(p, 1)
		if isNew && chapterID == FirstChapterID {
			unlock(p, AchievementFirstChapter)
		}
		return true
	})
	return isNew
}

// IsChapterCompleted reports whether the chapter was completed before
func (e *Economy) IsChapterCompleted(chapterID int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return containsValue(e.state.ChaptersCompleted, chapterID)
}

// UpdateStreak records today's reading. Calling it again the same day does nothing;
// reading the day after the last read extends the streak, otherwise it restarts at 1.
func (e *Economy) UpdateStreak() int {
	var streak int
	e.update(func(p *models.Progress, now time.Time) bool {
		local := now.In(e.loc)
		today := local.Format(dateLayout)
		if p.LastReadDate == today {
			streak = p.Streak
			return false
		}
		yesterday := local.AddDate(0, 0, -1).Format(dateLayout)
		if p.LastReadDate == yesterday {
			p.Streak++
		} else {
			p.Streak = 1
		}
		p.LastReadDate = today

		if p.Streak >= 7 {
			unlock(p, AchievementStreak7)
			unlock(p, AchievementBookworm)
		}
		if p.Streak >= 30 {
			unlock(p, AchievementStreak30)
		}
		streak = p.Streak
		return true
	})
	return streak
}

// AddLearnedWord counts a word as learned and unlocks the word milestones
func (e *Economy) AddLearnedWord(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false
	}
	return e.update(func(p *models.Progress, _ time.Time) bool {
		if containsValue(p.WordsLearned, word) {
			return false
		}
		p.WordsLearned = append(p.WordsLearned, word)
		if len(p.WordsLearned) >= 10 {
			unlock(p, AchievementWordMaster10)
		}
		if len(p.WordsLearned) >= 50 {
			unlock(p, AchievementWordMaster50)
		}
		return true
	})
}

// RecordQuizResult pays the end-of-chapter quiz bonus and returns it
func (e *Economy) RecordQuizResult(correct, total int) int {
	if total <= 0 || correct < 0 {
		return 0
	}
	correct = min(correct, total)
	bonus := int(math.Round(float64(correct) / float64(total) * QuizBonusMaxXP))
	e.update(func(p *models.Progress, _ time.Time) bool {
		if bonus > 0 {
			addXP(p, bonus)
		}
		perfect := correct == total && unlock(p, AchievementPerfectScore)
		return bonus > 0 || perfect
	})
	return bonus
}
