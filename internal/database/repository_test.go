package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/economy"
	"github.com/James99309/stargirl-reader/pkg/models"
)

func newSQLiteRepository(t *testing.T) *SQLRepository {
	t.Helper()
	db, err := Connect(DriverSQLite, ":memory:")
	require.NoError(t, err)
	repo := NewSQLRepository(db, zap.NewNop())
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newRedisRepository(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewRedisRepository(client, "test", zap.NewNop())
	t.Cleanup(func() { repo.Close() })
	return repo, mr
}

func forEachRepository(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, newSQLiteRepository(t))
	})
	t.Run("redis", func(t *testing.T) {
		repo, _ := newRedisRepository(t)
		fn(t, repo)
	})
}

func sampleRecord(word string) models.VocabularyRecord {
	reviewed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	next := reviewed.Add(4 * time.Hour)
	return models.VocabularyRecord{
		Word:           word,
		Definition:     "clear and easy to understand (清楚的)",
		Phonetic:       "/ˈluːsɪd/",
		PartOfSpeech:   "adjective",
		Contexts:       []models.WordContext{{Sentence: "Her explanation was lucid.", ChapterID: 2}},
		MasteryLevel:   20,
		TimesCorrect:   2,
		LastReviewed:   &reviewed,
		NextReview:     &next,
		IsNew:          false,
		TimesIncorrect: 0,
	}
}

func TestVocabularyRoundTrip(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		require.NoError(t, repo.SaveRecord(ctx, "lucid", sampleRecord("Lucid")))
		require.NoError(t, repo.SaveRecord(ctx, "ephemeral", models.VocabularyRecord{Word: "ephemeral", Definition: "short-lived", IsNew: true}))
		require.NoError(t, repo.SaveSavedWords(ctx, []string{"ephemeral", "lucid"}))

		snap, err := repo.LoadVocabulary(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Records, 2)

		lucid := snap.Records[0]
		assert.Equal(t, "Lucid", lucid.Word)
		assert.Equal(t, 2, lucid.TimesCorrect)
		assert.Equal(t, []models.WordContext{{Sentence: "Her explanation was lucid.", ChapterID: 2}}, lucid.Contexts)
		require.NotNil(t, lucid.NextReview)
		assert.True(t, lucid.NextReview.Equal(time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC)))

		ephemeral := snap.Records[1]
		assert.Nil(t, ephemeral.NextReview)
		assert.Nil(t, ephemeral.LastReviewed)
		assert.True(t, ephemeral.IsNew)

		assert.Equal(t, []string{"ephemeral", "lucid"}, snap.Saved)
	})
}

func TestSaveRecordKeepsPosition(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		require.NoError(t, repo.SaveRecord(ctx, "alpha", models.VocabularyRecord{Word: "alpha"}))
		require.NoError(t, repo.SaveRecord(ctx, "beta", models.VocabularyRecord{Word: "beta"}))
		require.NoError(t, repo.SaveRecord(ctx, "alpha", models.VocabularyRecord{Word: "alpha", TimesCorrect: 3}))

		snap, err := repo.LoadVocabulary(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Records, 2)
		assert.Equal(t, "alpha", snap.Records[0].Word)
		assert.Equal(t, 3, snap.Records[0].TimesCorrect)
		assert.Equal(t, "beta", snap.Records[1].Word)
	})
}

func TestDeleteRecord(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		require.NoError(t, repo.SaveRecord(ctx, "alpha", models.VocabularyRecord{Word: "alpha"}))
		require.NoError(t, repo.SaveRecord(ctx, "beta", models.VocabularyRecord{Word: "beta"}))
		require.NoError(t, repo.SaveSavedWords(ctx, []string{"alpha"}))

		require.NoError(t, repo.DeleteRecord(ctx, "alpha"))
		// deleting twice is fine
		require.NoError(t, repo.DeleteRecord(ctx, "alpha"))

		snap, err := repo.LoadVocabulary(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Records, 1)
		assert.Equal(t, "beta", snap.Records[0].Word)
		assert.Empty(t, snap.Saved)
	})
}

func TestProgressRoundTrip(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		loaded, err := repo.LoadProgress(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		loss := time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)
		p := models.Progress{
			Username:          "luna",
			TotalXP:           420,
			Hearts:            3,
			MaxHearts:         5,
			LastHeartLoss:     &loss,
			Streak:            4,
			LastReadDate:      "2024-03-10",
			ChaptersCompleted: []int{1, 2},
			Achievements:      []string{"first_chapter"},
		}
		require.NoError(t, repo.SaveProgress(ctx, p))
		p.TotalXP = 520
		require.NoError(t, repo.SaveProgress(ctx, p))

		loaded, err = repo.LoadProgress(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, 520, loaded.TotalXP)
		assert.Equal(t, []int{1, 2}, loaded.ChaptersCompleted)
		require.NotNil(t, loaded.LastHeartLoss)
		assert.True(t, loaded.LastHeartLoss.Equal(loss))
	})
}

func TestCorruptProgress(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		repo := newSQLiteRepository(t)
		_, err := repo.db.Exec("INSERT INTO progress (id, document, updated_at) VALUES (1, '{not json', ?)", time.Now())
		require.NoError(t, err)

		_, err = repo.LoadProgress(context.Background())
		assert.ErrorIs(t, err, ErrCorrupt)
	})
	t.Run("redis", func(t *testing.T) {
		repo, mr := newRedisRepository(t)
		require.NoError(t, mr.Set("test:progress", "{not json"))

		_, err := repo.LoadProgress(context.Background())
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestIncompleteProgressKeepsInitialValues(t *testing.T) {
	check := func(t *testing.T, loaded *models.Progress) {
		require.NotNil(t, loaded)
		assert.Equal(t, economy.MaxHearts, loaded.Hearts)
		assert.Equal(t, economy.MaxHearts, loaded.MaxHearts)
		assert.Equal(t, economy.FirstChapterID, loaded.CurrentChapter)
		assert.Equal(t, 120, loaded.TotalXP)
	}
	t.Run("sqlite", func(t *testing.T) {
		repo := newSQLiteRepository(t)
		_, err := repo.db.Exec(`INSERT INTO progress (id, document, updated_at) VALUES (1, '{"total_xp":120}', ?)`, time.Now())
		require.NoError(t, err)

		loaded, err := repo.LoadProgress(context.Background())
		require.NoError(t, err)
		check(t, loaded)
	})
	t.Run("redis", func(t *testing.T) {
		repo, mr := newRedisRepository(t)
		require.NoError(t, mr.Set("test:progress", `{"total_xp":120}`))

		loaded, err := repo.LoadProgress(context.Background())
		require.NoError(t, err)
		check(t, loaded)
	})
}

func TestCorruptVocabularyRowsAreSkipped(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		repo := newSQLiteRepository(t)
		ctx := context.Background()
		require.NoError(t, repo.SaveRecord(ctx, "good", models.VocabularyRecord{Word: "good"}))
		_, err := repo.db.Exec("INSERT INTO vocabulary (word_key, seq, word, contexts) VALUES ('bad', 99, 'bad', '{broken')")
		require.NoError(t, err)

		snap, err := repo.LoadVocabulary(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Records, 1)
		assert.Equal(t, "good", snap.Records[0].Word)
	})
	t.Run("redis", func(t *testing.T) {
		repo, mr := newRedisRepository(t)
		ctx := context.Background()
		require.NoError(t, repo.SaveRecord(ctx, "good", models.VocabularyRecord{Word: "good"}))
		mr.HSet("test:vocabulary", "bad", "{broken")
		_, err := mr.Push("test:vocabulary:order", "bad")
		require.NoError(t, err)

		snap, err := repo.LoadVocabulary(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Records, 1)
		assert.Equal(t, "good", snap.Records[0].Word)
	})
}
