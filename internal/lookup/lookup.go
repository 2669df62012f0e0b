// Package lookup fetches definitions and pronunciations for words the reader taps.
package lookup

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrNotFound is returned when a provider has nothing for the word
	ErrNotFound = errors.New("no definition found")
	// ErrStale is returned for results superseded by a newer request
	ErrStale = errors.New("lookup superseded by a newer request")
)

// Definition is what a definition provider knows about a word
type Definition struct {
	English      string `json:"english"`
	Translation  string `json:"translation"`
	PartOfSpeech string `json:"part_of_speech"`
}

// Gloss renders the definition the way vocabulary records store it:
// "english (translation)", or just the English text without a translation
func (d Definition) Gloss() string {
	english := strings.TrimSpace(d.English)
	translation := strings.TrimSpace(d.Translation)
	if translation == "" {
		return english
	}
	if english == "" {
		return translation
	}
	return english + " (" + translation + ")"
}

// Pronunciation is a recorded audio reference and phonetic spelling
type Pronunciation struct {
	AudioRef string `json:"audio_ref"`
	Phonetic string `json:"phonetic"`
}

// DefinitionProvider looks up a word, optionally in the sentence it appeared in
type DefinitionProvider interface {
	LookupDefinition(ctx context.Context, word, sentence string) (*Definition, error)
}

// PronunciationProvider looks up recorded audio for a word
type PronunciationProvider interface {
	LookupAudio(ctx context.Context, word string) (*Pronunciation, error)
}

// CleanWord lower-cases a tapped word and strips surrounding punctuation
func CleanWord(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	return strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) && r != '-'
	})
}
