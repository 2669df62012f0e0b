package vocabulary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)}
	return NewStore(zap.NewNop(), WithClock(clock.Now)), clock
}

func word(w, def string) models.VocabularyRecord {
	return models.VocabularyRecord{Word: w, Definition: def, IsNew: true}
}

func TestInitializeWordFirstWriteWins(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.InitializeWord(word("lucid", "clear")))
	assert.False(t, s.InitializeWord(word("lucid", "a better definition")))
	assert.False(t, s.InitializeWord(word("Lucid", "capitalised lookup")))

	rec, ok := s.Get("LUCID")
	require.True(t, ok)
	assert.Equal(t, "clear", rec.Definition)
	assert.Equal(t, 1, s.Len())
}

func TestInitializeWordRejectsBlank(t *testing.T) {
	s, _ := newTestStore(t)
	assert.False(t, s.InitializeWord(word("   ", "nothing")))
	assert.Equal(t, 0, s.Len())
}

func TestInitializeWordDerivesMastery(t *testing.T) {
	s, _ := newTestStore(t)
	rec := word("gleam", "shine")
	rec.TimesCorrect = 1
	rec.MasteryLevel = 77
	require.True(t, s.InitializeWord(rec))

	got, _ := s.Get("gleam")
	assert.Equal(t, 10, got.MasteryLevel)
}

func TestRecordAnswerScenarioA(t *testing.T) {
	s, clock := newTestStore(t)
	require.True(t, s.InitializeWord(word("lucid", "clear")))

	require.True(t, s.RecordAnswer("lucid", true))

	rec, _ := s.Get("lucid")
	assert.Equal(t, 1, rec.TimesCorrect)
	assert.Equal(t, 0, rec.TimesIncorrect)
	assert.Equal(t, 10, rec.MasteryLevel)
	require.NotNil(t, rec.LastReviewed)
	assert.Equal(t, clock.Now(), *rec.LastReviewed)
	require.NotNil(t, rec.NextReview)
	assert.Equal(t, clock.Now().Add(time.Hour), *rec.NextReview)
}

func TestRecordAnswerIncorrectWalksBack(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.InitializeWord(word("lucid", "clear")))
	s.RecordAnswer("lucid", true)
	s.RecordAnswer("lucid", true)

	require.True(t, s.RecordAnswer("lucid", false))

	rec, _ := s.Get("lucid")
	assert.Equal(t, 1, rec.TimesCorrect)
	assert.Equal(t, 1, rec.TimesIncorrect)
	assert.Equal(t, 10, rec.MasteryLevel)
	assert.Nil(t, rec.NextReview, "a miss makes the word due immediately")

	require.True(t, s.RecordAnswer("lucid", false))
	require.True(t, s.RecordAnswer("lucid", false))
	rec, _ = s.Get("lucid")
	assert.Equal(t, 0, rec.TimesCorrect, "correct count never goes negative")
	assert.Equal(t, 3, rec.TimesIncorrect)
	assert.Equal(t, 0, rec.MasteryLevel)
}

func TestRecordAnswerSpacingGrows(t *testing.T) {
	s, clock := newTestStore(t)
	require.True(t, s.InitializeWord(word("lucid", "clear")))

	var prev time.Duration
	for i := 0; i < 10; i++ {
		s.RecordAnswer("lucid", true)
		rec, _ := s.Get("lucid")
		gap := rec.NextReview.Sub(clock.Now())
		assert.GreaterOrEqual(t, gap, prev)
		assert.LessOrEqual(t, gap, 720*time.Hour)
		prev = gap
	}
	assert.Equal(t, 720*time.Hour, prev)
}

func TestRecordAnswerUnknownWord(t *testing.T) {
	s, _ := newTestStore(t)
	changes := 0
	s.OnChange(func(Change) { changes++ })
	assert.False(t, s.RecordAnswer("ghost", true))
	assert.Zero(t, changes)
}

func TestSaveUnsaveWord(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.InitializeWord(word("lucid", "clear")))
	require.True(t, s.InitializeWord(word("gleam", "shine")))

	assert.True(t, s.SaveWord("gleam"))
	assert.True(t, s.SaveWord("lucid"))
	assert.True(t, s.SaveWord("gleam"))
	assert.Equal(t, []string{"gleam", "lucid"}, s.SavedWords())

	rec, _ := s.Get("gleam")
	assert.True(t, rec.IsSaved)
	assert.Equal(t, 0, rec.MasteryLevel)

	assert.True(t, s.UnsaveWord("gleam"))
	assert.Equal(t, []string{"lucid"}, s.SavedWords())
	rec, _ = s.Get("gleam")
	assert.False(t, rec.IsSaved)

	assert.False(t, s.SaveWord("ghost"))
}

func TestDeleteWordPurgesSaved(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.InitializeWord(word("lucid", "clear")))
	s.SaveWord("lucid")

	var got []Change
	s.OnChange(func(c Change) { got = append(got, c) })

	assert.True(t, s.DeleteWord("Lucid"))
	assert.Empty(t, s.SavedWords())
	_, ok := s.Get("lucid")
	assert.False(t, ok)
	assert.Equal(t, []Change{{Key: "lucid", Deleted: true}}, got)
	assert.False(t, s.DeleteWord("lucid"))
}

func TestMarkWordViewedAndContexts(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.InitializeWord(word("lucid", "clear")))

	assert.True(t, s.MarkWordViewed("lucid"))
	assert.True(t, s.AddContext("lucid", models.WordContext{Sentence: "A lucid dream.", ChapterID: 2}))
	assert.False(t, s.AddContext("lucid", models.WordContext{Sentence: "A lucid dream.", ChapterID: 2}))
	assert.False(t, s.AddContext("lucid", models.WordContext{Sentence: " "}))

	rec, _ := s.Get("lucid")
	assert.False(t, rec.IsNew)
	assert.Len(t, rec.Contexts, 1)
}

func TestMasteredAndLearningWords(t *testing.T) {
	s, _ := newTestStore(t)
	mastered := word("lucid", "clear")
	mastered.TimesCorrect = 9
	mastered.TimesIncorrect = 1
	learning := word("gleam", "shine")
	learning.TimesCorrect = 2
	require.True(t, s.InitializeWord(mastered))
	require.True(t, s.InitializeWord(learning))
	require.True(t, s.InitializeWord(word("fresh", "new")))

	require.Len(t, s.MasteredWords(), 1)
	assert.Equal(t, "lucid", s.MasteredWords()[0].Word)
	require.Len(t, s.LearningWords(), 1)
	assert.Equal(t, "gleam", s.LearningWords()[0].Word)
}

func TestSnapshotRestore(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.InitializeWord(word("lucid", "clear")))
	require.True(t, s.InitializeWord(word("gleam", "shine")))
	s.SaveWord("gleam")
	s.RecordAnswer("lucid", true)

	snap := s.Snapshot()

	restored, _ := newTestStore(t)
	restored.Restore(snap)
	assert.Equal(t, s.All(), restored.All())
	assert.Equal(t, []string{"gleam"}, restored.SavedWords())
}

func TestRestoreDropsInvalidAndRebuildsSaved(t *testing.T) {
	s, _ := newTestStore(t)
	s.Restore(Snapshot{Records: []models.VocabularyRecord{
		{Word: ""},
		{Word: "lucid", Definition: "clear", TimesCorrect: 9, TimesIncorrect: 1, MasteryLevel: 3, IsSaved: true},
		{Word: "LUCID", Definition: "duplicate"},
	}})

	require.Equal(t, 1, s.Len())
	rec, _ := s.Get("lucid")
	assert.Equal(t, 90, rec.MasteryLevel)
	assert.Equal(t, "clear", rec.Definition)
	assert.Equal(t, []string{"lucid"}, s.SavedWords())
}

func TestRecordsAreCopies(t *testing.T) {
	s, _ := newTestStore(t)
	rec := word("lucid", "clear")
	rec.Contexts = []models.WordContext{{Sentence: "A lucid dream.", ChapterID: 1}}
	require.True(t, s.InitializeWord(rec))

	got, _ := s.Get("lucid")
	got.Contexts[0].Sentence = "mutated"
	got.TimesCorrect = 50

	again, _ := s.Get("lucid")
	assert.Equal(t, "A lucid dream.", again.Contexts[0].Sentence)
	assert.Equal(t, 0, again.TimesCorrect)
}
