package models

import "time"

// ReadingSession exists only while a chapter is open
type ReadingSession struct {
	StartTime      time.Time `json:"start_time"`
	ChapterID      int       `json:"chapter_id"`
	SectionID      int       `json:"section_id"`
	XPEarned       int       `json:"xp_earned"`
	RewardsClaimed int       `json:"rewards_claimed"` // reading-time rewards already paid out
}

// Progress is the reader's XP, hearts, streak and achievement state
type Progress struct {
	Username            string          `json:"username"`
	TotalXP             int             `json:"total_xp"`
	Hearts              int             `json:"hearts"`
	MaxHearts           int             `json:"max_hearts"`
	LastHeartLoss       *time.Time      `json:"last_heart_loss"`
	Streak              int             `json:"streak"`
	LastReadDate        string          `json:"last_read_date"`
	DailyGoalMinutes    int             `json:"daily_goal_minutes"`
	CurrentChapter      int             `json:"current_chapter"`
	CurrentSection      int             `json:"current_section"`
	ChaptersCompleted   []int           `json:"chapters_completed"`
	Achievements        []string        `json:"achievements"`
	WordsLearned        []string        `json:"words_learned"`
	OnboardingCompleted bool            `json:"onboarding_completed"`
	IsSuperMember       bool            `json:"is_super_member"`
	SuperMemberExpiry   *time.Time      `json:"super_member_expiry"`
	Session             *ReadingSession `json:"session,omitempty"`
}

// Clone returns a deep copy of the progress state
func (p Progress) Clone() Progress {
	p.ChaptersCompleted = append([]int(nil), p.ChaptersCompleted...)
	p.Achievements = append([]string(nil), p.Achievements...)
	p.WordsLearned = append([]string(nil), p.WordsLearned...)
	if p.LastHeartLoss != nil {
		t := *p.LastHeartLoss
		p.LastHeartLoss = &t
	}
	if p.SuperMemberExpiry != nil {
		t := *p.SuperMemberExpiry
		p.SuperMemberExpiry = &t
	}
	if p.Session != nil {
		s := *p.Session
		p.Session = &s
	}
	return p
}
