package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/economy"
	"github.com/James99309/stargirl-reader/internal/vocabulary"
	"github.com/James99309/stargirl-reader/pkg/models"
)

// SQLRepository persists state in sqlite or postgres
type SQLRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLRepository creates a new repository instance
func NewSQLRepository(db *sqlx.DB, logger *zap.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

type vocabularyRow struct {
	WordKey          string     `db:"word_key"`
	Seq              int64      `db:"seq"`
	Word             string     `db:"word"`
	Definition       string     `db:"definition"`
	PronunciationRef string     `db:"pronunciation_ref"`
	Phonetic         string     `db:"phonetic"`
	PartOfSpeech     string     `db:"part_of_speech"`
	Contexts         string     `db:"contexts"`
	MasteryLevel     int        `db:"mastery_level"`
	TimesCorrect     int        `db:"times_correct"`
	TimesIncorrect   int        `db:"times_incorrect"`
	LastReviewed     *time.Time `db:"last_reviewed"`
	NextReview       *time.Time `db:"next_review"`
	IsSaved          bool       `db:"is_saved"`
	IsNew            bool       `db:"is_new"`
}

func toRow(key string, r models.VocabularyRecord) (vocabularyRow, error) {
	contexts := r.Contexts
	if contexts == nil {
		contexts = []models.WordContext{}
	}
	encoded, err := json.Marshal(contexts)
	if err != nil {
		return vocabularyRow{}, fmt.Errorf("failed to encode contexts: %w", err)
	}
	return vocabularyRow{
		WordKey:          key,
		Word:             r.Word,
		Definition:       r.Definition,
		PronunciationRef: r.PronunciationRef,
		Phonetic:         r.Phonetic,
		PartOfSpeech:     r.PartOfSpeech,
		Contexts:         string(encoded),
		MasteryLevel:     r.MasteryLevel,
		TimesCorrect:     r.TimesCorrect,
		TimesIncorrect:   r.TimesIncorrect,
		LastReviewed:     utcPtr(r.LastReviewed),
		NextReview:       utcPtr(r.NextReview),
		IsSaved:          r.IsSaved,
		IsNew:            r.IsNew,
	}, nil
}

func (row vocabularyRow) record() (models.VocabularyRecord, error) {
	var contexts []models.WordContext
	if row.Contexts != "" {
		if err := json.Unmarshal([]byte(row.Contexts), &contexts); err != nil {
			return models.VocabularyRecord{}, fmt.Errorf("%w: contexts of %q: %v", ErrCorrupt, row.WordKey, err)
		}
	}
	return models.VocabularyRecord{
		Word:             row.Word,
		Definition:       row.Definition,
		PronunciationRef: row.PronunciationRef,
		Phonetic:         row.Phonetic,
		PartOfSpeech:     row.PartOfSpeech,
		Contexts:         contexts,
		MasteryLevel:     row.MasteryLevel,
		TimesCorrect:     row.TimesCorrect,
		TimesIncorrect:   row.TimesIncorrect,
		LastReviewed:     row.LastReviewed,
		NextReview:       row.NextReview,
		IsSaved:          row.IsSaved,
		IsNew:            row.IsNew,
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// LoadVocabulary returns every record in insertion order. Rows that cannot be
// decoded are skipped.
func (r *SQLRepository) LoadVocabulary(ctx context.Context) (vocabulary.Snapshot, error) {
	var rows []vocabularyRow
	err := r.db.SelectContext(ctx, &rows, "SELECT * FROM vocabulary ORDER BY seq")
	if err != nil {
		return vocabulary.Snapshot{}, fmt.Errorf("failed to get vocabulary: %w", err)
	}

	snap := vocabulary.Snapshot{Records: make([]models.VocabularyRecord, 0, len(rows))}
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			r.logger.Warn("Skipping corrupt vocabulary row", zap.String("word", row.WordKey), zap.Error(err))
			continue
		}
		snap.Records = append(snap.Records, rec)
	}

	var saved []string
	err = r.db.SelectContext(ctx, &saved, "SELECT word_key FROM saved_words ORDER BY position")
	if err != nil {
		return vocabulary.Snapshot{}, fmt.Errorf("failed to get saved words: %w", err)
	}
	snap.Saved = saved
	if snap.Saved == nil {
		snap.Saved = []string{}
	}
	return snap, nil
}

// SaveRecord inserts or updates a record, keeping its original position
func (r *SQLRepository) SaveRecord(ctx context.Context, key string, record models.VocabularyRecord) error {
	row, err := toRow(key, record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO vocabulary (
			word_key, seq, word, definition, pronunciation_ref, phonetic, part_of_speech,
			contexts, mastery_level, times_correct, times_incorrect, last_reviewed,
			next_review, is_saved, is_new
		) VALUES (
			:word_key, (SELECT COALESCE(MAX(seq), 0) + 1 FROM vocabulary), :word, :definition,
			:pronunciation_ref, :phonetic, :part_of_speech, :contexts, :mastery_level,
			:times_correct, :times_incorrect, :last_reviewed, :next_review, :is_saved, :is_new
		)
		ON CONFLICT (word_key) DO UPDATE SET
			word = excluded.word,
			definition = excluded.definition,
			pronunciation_ref = excluded.pronunciation_ref,
			phonetic = excluded.phonetic,
			part_of_speech = excluded.part_of_speech,
			contexts = excluded.contexts,
			mastery_level = excluded.mastery_level,
			times_correct = excluded.times_correct,
			times_incorrect = excluded.times_incorrect,
			last_reviewed = excluded.last_reviewed,
			next_review = excluded.next_review,
			is_saved = excluded.is_saved,
			is_new = excluded.is_new
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save word %q: %w", key, err)
	}
	return nil
}

// DeleteRecord removes a record and its saved marker
func (r *SQLRepository) DeleteRecord(ctx context.Context, key string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM vocabulary WHERE word_key = ?"), key); err != nil {
		return fmt.Errorf("failed to delete word %q: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM saved_words WHERE word_key = ?"), key); err != nil {
		return fmt.Errorf("failed to delete saved word %q: %w", key, err)
	}
	return tx.Commit()
}

// SaveSavedWords replaces the ordered saved list
func (r *SQLRepository) SaveSavedWords(ctx context.Context, keys []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM saved_words"); err != nil {
		return fmt.Errorf("failed to clear saved words: %w", err)
	}
	insert := tx.Rebind("INSERT INTO saved_words (word_key, position) VALUES (?, ?)")
	for i, key := range keys {
		if _, err := tx.ExecContext(ctx, insert, key, i); err != nil {
			return fmt.Errorf("failed to save saved word %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// LoadProgress returns the stored progress document, or nil if none exists
func (r *SQLRepository) LoadProgress(ctx context.Context) (*models.Progress, error) {
	var document string
	err := r.db.GetContext(ctx, &document, "SELECT document FROM progress WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	p := economy.InitialProgress()
	if err := json.Unmarshal([]byte(document), &p); err != nil {
		return nil, fmt.Errorf("%w: progress: %v", ErrCorrupt, err)
	}
	return &p, nil
}

// SaveProgress overwrites the progress document
func (r *SQLRepository) SaveProgress(ctx context.Context, progress models.Progress) error {
	document, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	query := r.db.Rebind(`
		INSERT INTO progress (id, document, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`)
	if _, err := r.db.ExecContext(ctx, query, string(document), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *SQLRepository) Close() error {
	return r.db.Close()
}
