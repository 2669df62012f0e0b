package economy

import (
	"time"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// StartSession opens a reading session, replacing any open one
func (e *Economy) StartSession(chapterID, sectionID int) {
	e.update(func(p *models.Progress, now time.Time) bool {
		p.Session = &models.ReadingSession{
			StartTime: now,
			ChapterID: chapterID,
			SectionID: sectionID,
		}
		p.CurrentChapter = chapterID
		p.CurrentSection = sectionID
		return true
	})
}

// EndSession closes the reading session and returns it
func (e *Economy) EndSession() (models.ReadingSession, bool) {
	var ended models.ReadingSession
	ok := e.update(func(p *models.Progress, _ time.Time) bool {
		if p.Session == nil {
			return false
		}
		ended = *p.Session
		p.Session = nil
		return true
	})
	return ended, ok
}

// ClaimReadingReward pays 50 XP for every full 10 minutes of open session time
// not yet rewarded and returns the XP granted.
func (e *Economy) ClaimReadingReward() int {
	var granted int
	e.update(func(p *models.Progress, now time.Time) bool {
		if p.Session == nil {
			return false
		}
		segments := int(now.Sub(p.Session.StartTime) / ReadingRewardInterval)
		fresh := segments - p.Session.RewardsClaimed
		if fresh <= 0 {
			return false
		}
		p.Session.RewardsClaimed = segments
		granted = fresh * ReadingRewardXP
		addXP(p, granted)
		return true
	})
	return granted
}
