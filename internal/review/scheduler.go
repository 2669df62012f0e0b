package review

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/spaced_repetition"
	"github.com/James99309/stargirl-reader/internal/vocabulary"
	"github.com/James99309/stargirl-reader/pkg/models"
)

// DueWords filters records down to those eligible for review at now.
// Insertion order is preserved; records are not re-sorted by due date.
func DueWords(records []models.VocabularyRecord, now time.Time) []models.VocabularyRecord {
	due := make([]models.VocabularyRecord, 0, len(records))
	for _, r := range records {
		if r.Word == "" || r.Definition == "" {
			continue
		}
		if spaced_repetition.IsMastered(r.MasteryLevel) {
			continue
		}
		if r.NextReview != nil && r.NextReview.After(now) {
			continue
		}
		due = append(due, r)
	}
	return due
}

// Scheduler builds review sessions from the vocabulary store
type Scheduler struct {
	store  *vocabulary.Store
	now    func() time.Time
	logger *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewScheduler creates a scheduler drawing randomness from rnd
func NewScheduler(store *vocabulary.Store, rnd *rand.Rand, now func() time.Time, logger *zap.Logger) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		store:  store,
		rnd:    rnd,
		now:    now,
		logger: logger,
	}
}

// WordsForReview returns the records due for review now
func (s *Scheduler) WordsForReview() []models.VocabularyRecord {
	return DueWords(s.store.All(), s.now())
}

// GenerateQuestion builds a question for word using the scheduler's random source
func (s *Scheduler) GenerateQuestion(word models.VocabularyRecord, allWords []models.VocabularyRecord) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GenerateQuestion(s.rnd, word, allWords)
}
