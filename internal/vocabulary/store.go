package vocabulary

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/spaced_repetition"
	"github.com/James99309/stargirl-reader/pkg/models"
)

// Change describes a mutation of a single record
type Change struct {
	Key     string
	Deleted bool
}

// Snapshot is the persistable state of the store
type Snapshot struct {
	Records []models.VocabularyRecord `json:"records"`
	Saved   []string                  `json:"saved"`
}

// Store holds every word the reader has encountered.
// All mutation goes through its methods; records handed out are copies.
type Store struct {
	mu        sync.Mutex
	records   map[string]*models.VocabularyRecord
	order     []string
	saved     []string
	schedule  *spaced_repetition.Schedule
	now       func() time.Time
	listeners []func(Change)
	logger    *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSchedule overrides the review back-off table
func WithSchedule(schedule *spaced_repetition.Schedule) Option {
	return func(s *Store) { s.schedule = schedule }
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		records:  make(map[string]*models.VocabularyRecord),
		schedule: spaced_repetition.NewSchedule(),
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key normalises a word into its store key
func Key(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// OnChange registers a listener called after every mutation
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(c Change) {
	s.mu.Lock()
	listeners := append([]func(Change){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

// InitializeWord inserts the record unless one already exists for the word.
// The first write wins; later lookups never overwrite metadata.
func (s *Store) InitializeWord(record models.VocabularyRecord) bool {
	key := Key(record.Word)
	if key == "" {
		return false
	}

	s.mu.Lock()
	if _, ok := s.records[key]; ok {
		s.mu.Unlock()
		return false
	}
	rec := record.Clone()
	rec.Word = strings.TrimSpace(rec.Word)
	rec.TimesCorrect = max(0, rec.TimesCorrect)
	rec.TimesIncorrect = max(0, rec.TimesIncorrect)
	rec.MasteryLevel = spaced_repetition.MasteryLevel(rec.TimesCorrect, rec.TimesIncorrect)
	s.records[key] = &rec
	s.order = append(s.order, key)
	if rec.IsSaved && !contains(s.saved, key) {
		s.saved = append(s.saved, key)
	}
	s.mu.Unlock()

	s.logger.Debug("Word initialized", zap.String("word", key))
	s.notify(Change{Key: key})
	return true
}

// AddContext appends an encounter sentence to an existing word
func (s *Store) AddContext(word string, ctx models.WordContext) bool {
	key := Key(word)
	s.mu.Lock()
	rec, ok := s.records[key]
	if !ok || strings.TrimSpace(ctx.Sentence) == "" {
		s.mu.Unlock()
		return false
	}
	for _, c := range rec.Contexts {
		if c == ctx {
			s.mu.Unlock()
			return false
		}
	}
	rec.Contexts = append(rec.Contexts, ctx)
	s.mu.Unlock()

	s.notify(Change{Key: key})
	return true
}

// MarkWordViewed clears the new flag
func (s *Store) MarkWordViewed(word string) bool {
	key := Key(word)
	s.mu.Lock()
	rec, ok := s.records[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	rec.IsNew = false
	s.mu.Unlock()

	s.notify(Change{Key: key})
	return true
}

// RecordAnswer applies a review outcome and reschedules the word.
// A wrong answer walks back one correct credit and makes the word due immediately.
func (s *Store) RecordAnswer(word string, wasCorrect bool) bool {
	key := Key(word)
	now := s.now()

	s.mu.Lock()
	rec, ok := s.records[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	previousCorrect := rec.TimesCorrect
	if wasCorrect {
		rec.TimesCorrect++
	} else {
		rec.TimesCorrect = max(0, rec.TimesCorrect-1)
		rec.TimesIncorrect++
	}
	rec.MasteryLevel = spaced_repetition.MasteryLevel(rec.TimesCorrect, rec.TimesIncorrect)
	reviewed := now
	rec.LastReviewed = &reviewed
	if wasCorrect {
		next := s.schedule.CalculateNextReview(previousCorrect, now)
		rec.NextReview = &next
	} else {
		rec.NextReview = nil
	}
	mastery := rec.MasteryLevel
	s.mu.Unlock()

	s.logger.Debug("Answer recorded",
		zap.String("word", key),
		zap.Bool("correct", wasCorrect),
		zap.Int("mastery", mastery))
	s.notify(Change{Key: key})
	return true
}

// SaveWord stars a word
func (s *Store) SaveWord(word string) bool {
	return s.setSaved(word, true)
}

// UnsaveWord removes the star from a word
func (s *Store) UnsaveWord(word string) bool {
	return s.setSaved(word, false)
}

func (s *Store) setSaved(word string, saved bool) bool {
	key := Key(word)
	s.mu.Lock()
	rec, ok := s.records[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	rec.IsSaved = saved
	if saved {
		if !contains(s.saved, key) {
			s.saved = append(s.saved, key)
		}
	} else {
		s.saved = remove(s.saved, key)
	}
	s.mu.Unlock()

	s.notify(Change{Key: key})
	return true
}

// DeleteWord removes the record and purges it from the saved set
func (s *Store) DeleteWord(word string) bool {
	key := Key(word)
	s.mu.Lock()
	if _, ok := s.records[key]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.records, key)
	s.order = remove(s.order, key)
	s.saved = remove(s.saved, key)
	s.mu.Unlock()

	s.logger.Debug("Word deleted", zap.String("word", key))
	s.notify(Change{Key: key, Deleted: true})
	return true
}

// Get returns a copy of the record for word
func (s *Store) Get(word string) (models.VocabularyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[Key(word)]
	if !ok {
		return models.VocabularyRecord{}, false
	}
	return rec.Clone(), true
}

// All returns copies of every record in insertion order
func (s *Store) All() []models.VocabularyRecord {
	return s.filter(func(*models.VocabularyRecord) bool { return true })
}

// MasteredWords returns records at or above the mastery threshold
func (s *Store) MasteredWords() []models.VocabularyRecord {
	return s.filter(func(r *models.VocabularyRecord) bool {
		return spaced_repetition.IsMastered(r.MasteryLevel)
	})
}

// LearningWords returns records with some but not full mastery
func (s *Store) LearningWords() []models.VocabularyRecord {
	return s.filter(func(r *models.VocabularyRecord) bool {
		return r.MasteryLevel > 0 && !spaced_repetition.IsMastered(r.MasteryLevel)
	})
}

func (s *Store) filter(keep func(*models.VocabularyRecord) bool) []models.VocabularyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.VocabularyRecord, 0, len(s.order))
	for _, key := range s.order {
		rec := s.records[key]
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// SavedWords returns the starred word keys in the order they were saved
func (s *Store) SavedWords() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saved...)
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Snapshot captures the store for persistence
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Records: make([]models.VocabularyRecord, 0, len(s.order)),
		Saved:   append([]string{}, s.saved...),
	}
	for _, key := range s.order {
		snap.Records = append(snap.Records, s.records[key].Clone())
	}
	return snap
}

// Restore replaces the store contents without notifying listeners.
// Records without a word are dropped; mastery is recomputed from the counters.
// A nil saved list is rebuilt from the records' own flags.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	savedList := snap.Saved
	if savedList == nil {
		for _, r := range snap.Records {
			if r.IsSaved {
				savedList = append(savedList, r.Word)
			}
		}
	}

	s.records = make(map[string]*models.VocabularyRecord, len(snap.Records))
	s.order = s.order[:0]
	for _, r := range snap.Records {
		key := Key(r.Word)
		if key == "" {
			continue
		}
		if _, dup := s.records[key]; dup {
			continue
		}
		rec := r.Clone()
		rec.TimesCorrect = max(0, rec.TimesCorrect)
		rec.TimesIncorrect = max(0, rec.TimesIncorrect)
		rec.MasteryLevel = spaced_repetition.MasteryLevel(rec.TimesCorrect, rec.TimesIncorrect)
		rec.IsSaved = false
		s.records[key] = &rec
		s.order = append(s.order, key)
	}

	s.saved = s.saved[:0]
	for _, w := range savedList {
		key := Key(w)
		rec, ok := s.records[key]
		if !ok || contains(s.saved, key) {
			continue
		}
		rec.IsSaved = true
		s.saved = append(s.saved, key)
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
