package spaced_repetition

import (
	"math"
	"time"
)

// MasteryThreshold is the mastery level at which a word leaves review rotation
const MasteryThreshold = 80

// fullConfidenceAttempts is the attempt count at which mastery stops being discounted
const fullConfidenceAttempts = 10

// DefaultIntervals is the review back-off table: 1h, 4h, 1d, 3d, 1w, 2w, 1mo
var DefaultIntervals = []time.Duration{
	1 * time.Hour,
	4 * time.Hour,
	24 * time.Hour,
	72 * time.Hour,
	168 * time.Hour,
	336 * time.Hour,
	720 * time.Hour,
}

// Schedule implements a fixed-table spaced repetition back-off
type Schedule struct {
	// Intervals between reviews, indexed by the number of correct answers
	Intervals []time.Duration
}

// NewSchedule creates a Schedule with the default interval table
func NewSchedule() *Schedule {
	return &Schedule{Intervals: DefaultIntervals}
}

// Interval returns the delay before the next review for the given correct count.
// Counts past the end of the table are clamped to its last entry.
func (s *Schedule) Interval(timesCorrect int) time.Duration {
	if len(s.Intervals) == 0 {
		return 0
	}
	idx := timesCorrect
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.Intervals)-1 {
		idx = len(s.Intervals) - 1
	}
	return s.Intervals[idx]
}

// CalculateNextReview returns the next review time counted from now
func (s *Schedule) CalculateNextReview(timesCorrect int, now time.Time) time.Time {
	return now.Add(s.Interval(timesCorrect))
}

// MasteryLevel derives the 0-100 mastery score from the answer counters.
// Accuracy is discounted linearly until the word has ten attempts.
func MasteryLevel(timesCorrect, timesIncorrect int) int {
	total := timesCorrect + timesIncorrect
	if total <= 0 || timesCorrect <= 0 {
		return 0
	}
	confidence := float64(min(total, fullConfidenceAttempts)) / fullConfidenceAttempts
	level := int(math.Round(float64(timesCorrect) / float64(total) * 100 * confidence))
	return min(level, 100)
}

// IsMastered reports whether a mastery level excludes a word from review
func IsMastered(masteryLevel int) bool {
	return masteryLevel >= MasteryThreshold
}
