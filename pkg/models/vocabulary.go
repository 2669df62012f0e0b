package models

import "time"

// WordContext is a sentence a word was encountered in
type WordContext struct {
	Sentence  string `json:"sentence" db:"sentence"`
	ChapterID int    `json:"chapter_id" db:"chapter_id"`
}

// VocabularyRecord is one learned word with its mastery statistics and review schedule
type VocabularyRecord struct {
	Word             string        `json:"word" db:"word"`
	Definition       string        `json:"definition" db:"definition"`
	PronunciationRef string        `json:"pronunciation_ref" db:"pronunciation_ref"` // URL of a recorded pronunciation
	Phonetic         string        `json:"phonetic" db:"phonetic"`
	PartOfSpeech     string        `json:"part_of_speech" db:"part_of_speech"`
	Contexts         []WordContext `json:"contexts" db:"-"`
	MasteryLevel     int           `json:"mastery_level" db:"mastery_level"` // 0-100
	TimesCorrect     int           `json:"times_correct" db:"times_correct"`
	TimesIncorrect   int           `json:"times_incorrect" db:"times_incorrect"`
	LastReviewed     *time.Time    `json:"last_reviewed" db:"last_reviewed"`
	NextReview       *time.Time    `json:"next_review" db:"next_review"` // nil means due now
	IsSaved          bool          `json:"is_saved" db:"is_saved"`
	IsNew            bool          `json:"is_new" db:"is_new"`
}

// HasContext reports whether the word has a usable recorded sentence
func (r *VocabularyRecord) HasContext() bool {
	return len(r.Contexts) > 0 && r.Contexts[0].Sentence != ""
}

// Clone returns a deep copy so callers cannot mutate store-owned state
func (r VocabularyRecord) Clone() VocabularyRecord {
	if r.Contexts != nil {
		r.Contexts = append([]WordContext(nil), r.Contexts...)
	}
	if r.LastReviewed != nil {
		t := *r.LastReviewed
		r.LastReviewed = &t
	}
	if r.NextReview != nil {
		t := *r.NextReview
		r.NextReview = &t
	}
	return r
}
