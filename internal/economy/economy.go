// Package economy tracks the reader's XP, hearts, streak and achievements and
// enforces the heart/XP resource economy.
package economy

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

const (
	MaxHearts               = 5
	HeartRegenInterval      = 30 * time.Minute
	XPPerHeart              = 100
	SuperMemberCost         = 6499
	SuperMemberDuration     = 30 * 24 * time.Hour
	XPWordLearned           = 5
	XPReviewCorrect         = 10
	XPChapterComplete       = 50
	QuizBonusMaxXP          = 30
	ReadingRewardXP         = 50
	ReadingRewardInterval   = 10 * time.Minute
	DefaultDailyGoalMinutes = 10
	FirstChapterID          = 1
	xpPerLevel              = 100
)

// Economy owns the progress state. Every mutation goes through its methods and
// listeners receive a copy of the new state afterwards.
type Economy struct {
	// notifyMu orders mutate-and-notify pairs so listeners see states in the
	// order they were produced
	notifyMu  sync.Mutex
	mu        sync.Mutex
	state     models.Progress
	now       func() time.Time
	loc       *time.Location
	listeners []func(models.Progress)
	logger    *zap.Logger
}

// Option configures an Economy
type Option func(*Economy)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Economy) { e.now = now }
}

// WithLocation sets the time zone used for streak day boundaries
func WithLocation(loc *time.Location) Option {
	return func(e *Economy) { e.loc = loc }
}

// InitialProgress is the state of a brand new reader
func InitialProgress() models.Progress {
	return models.Progress{
		Hearts:            MaxHearts,
		MaxHearts:         MaxHearts,
		DailyGoalMinutes:  DefaultDailyGoalMinutes,
		CurrentChapter:    FirstChapterID,
		ChaptersCompleted: []int{},
		Achievements:      []string{},
		WordsLearned:      []string{},
	}
}

// New creates an Economy in the initial state
func New(logger *zap.Logger, opts ...Option) *Economy {
	e := &Economy{
		state:  InitialProgress(),
		now:    time.Now,
		loc:    time.Local,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnChange registers a listener called after every mutation. Listeners run one
// at a time in mutation order and must not mutate the economy themselves.
func (e *Economy) OnChange(fn func(models.Progress)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// update applies fn under the lock and notifies listeners when it reports a change
func (e *Economy) update(fn func(p *models.Progress, now time.Time) bool) bool {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	changed := fn(&e.state, e.now())
	var snapshot models.Progress
	var listeners []func(models.Progress)
	if changed {
		snapshot = e.state.Clone()
		listeners = append(listeners, e.listeners...)
	}
	e.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return changed
}

// Snapshot returns a copy of the current state
func (e *Economy) Snapshot() models.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Restore replaces the state with a persisted one, repairing broken invariants.
// Listeners are not notified.
func (e *Economy) Restore(p models.Progress) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = normalize(p.Clone(), e.now())
}

func normalize(p models.Progress, now time.Time) models.Progress {
	// a document without heart capacity predates heart tracking
	if p.MaxHearts <= 0 {
		p.MaxHearts = MaxHearts
		p.Hearts = MaxHearts
	}
	if p.CurrentChapter < FirstChapterID {
		p.CurrentChapter = FirstChapterID
		p.CurrentSection = 0
	}
	// reading sessions never outlive the process that opened them
	p.Session = nil
	p.Hearts = min(max(p.Hearts, 0), p.MaxHearts)
	if p.Hearts == p.MaxHearts {
		p.LastHeartLoss = nil
	} else if p.LastHeartLoss == nil {
		anchor := now
		p.LastHeartLoss = &anchor
	}
	p.TotalXP = max(p.TotalXP, 0)
	p.Streak = max(p.Streak, 0)
	if p.DailyGoalMinutes <= 0 {
		p.DailyGoalMinutes = DefaultDailyGoalMinutes
	}
	p.ChaptersCompleted = dedupe(p.ChaptersCompleted)
	p.Achievements = dedupe(p.Achievements)
	p.WordsLearned = dedupe(p.WordsLearned)
	if p.IsSuperMember && p.SuperMemberExpiry == nil {
		p.IsSuperMember = false
	}
	return p
}

func dedupe[T comparable](list []T) []T {
	out := make([]T, 0, len(list))
	seen := make(map[T]bool, len(list))
	for _, v := range list {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func containsValue[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// LevelFor returns the reader level for an XP total
func LevelFor(totalXP int) int {
	return max(totalXP, 0)/xpPerLevel + 1
}

// Level returns the reader's current level
func (e *Economy) Level() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return LevelFor(e.state.TotalXP)
}

// AddXP credits XP, also accumulating into the open reading session
func (e *Economy) AddXP(amount int) {
	if amount <= 0 {
		return
	}
	e.update(func(p *models.Progress, _ time.Time) bool {
		addXP(p, amount)
		return true
	})
}

func addXP(p *models.Progress, amount int) {
	p.TotalXP += amount
	if p.Session != nil {
		p.Session.XPEarned += amount
	}
}

// SetCurrentPosition records where the reader is
func (e *Economy) SetCurrentPosition(chapterID, sectionID int) {
	e.update(func(p *models.Progress, _ time.Time) bool {
		if p.CurrentChapter == chapterID && p.CurrentSection == sectionID {
			return false
		}
		p.CurrentChapter = chapterID
		p.CurrentSection = sectionID
		return true
	})
}

// SetDailyGoal changes the daily reading goal
func (e *Economy) SetDailyGoal(minutes int) bool {
	if minutes <= 0 {
		return false
	}
	e.update(func(p *models.Progress, _ time.Time) bool {
		if p.DailyGoalMinutes == minutes {
			return false
		}
		p.DailyGoalMinutes = minutes
		return true
	})
	return true
}

// CompleteOnboarding marks the introduction as seen
func (e *Economy) CompleteOnboarding() {
	e.update(func(p *models.Progress, _ time.Time) bool {
		if p.OnboardingCompleted {
			return false
		}
		p.OnboardingCompleted = true
		return true
	})
}

// SetUsername sets the name used for leaderboard sync
func (e *Economy) SetUsername(name string) {
	e.update(func(p *models.Progress, _ time.Time) bool {
		if p.Username == name {
			return false
		}
		p.Username = name
		return true
	})
}

// RestoreFromServer merges a leaderboard entry into local state on login.
// Server XP is adopted only when it is higher than the local total.
func (e *Economy) RestoreFromServer(entry models.LeaderboardEntry) {
	e.update(func(p *models.Progress, _ time.Time) bool {
		changed := false
		if entry.TotalXP > p.TotalXP {
			p.TotalXP = entry.TotalXP
			changed = true
		}
		if entry.IsSuperMember && !p.IsSuperMember && p.SuperMemberExpiry != nil {
			p.IsSuperMember = true
			changed = true
		}
		return changed
	})
}

// Reset returns to the initial state, used on logout
func (e *Economy) Reset() {
	e.update(func(p *models.Progress, _ time.Time) bool {
		*p = InitialProgress()
		return true
	})
}
