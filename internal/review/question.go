package review

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/James99309/stargirl-reader/internal/vocabulary"
	"github.com/James99309/stargirl-reader/pkg/models"
)

// QuestionType represents the archetype of a review question
type QuestionType string

const (
	// Meaning asks for the definition of a word
	Meaning QuestionType = "meaning"
	// SentenceContext asks for the meaning of a word inside its recorded sentence
	SentenceContext QuestionType = "sentence_context"
	// FillBlank asks which word completes a sentence
	FillBlank QuestionType = "fill_blank"
	// TranslationChoice shows the secondary-language gloss and asks for the word
	TranslationChoice QuestionType = "translation_choice"
	// Listening plays the pronunciation and expects the typed word
	Listening QuestionType = "listening"
)

// Blank replaces the tested word in fill-blank sentences
const Blank = "______"

// distractorCount is the number of wrong options per multiple choice question
const distractorCount = 3

var (
	placeholderWords    = []string{"example", "sample", "other"}
	placeholderMeanings = []string{"something else", "another meaning", "different concept"}

	parenthetical = regexp.MustCompile(`\s*\(([^)]*)\)\s*`)
)

// ErrUnusableWord is returned for records missing the word or its definition
var ErrUnusableWord = errors.New("word has no definition to review")

// Question is a single review question
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Word     string       `json:"word"`
	Prompt   string       `json:"prompt"`
	Sentence string       `json:"sentence,omitempty"`
	Options  []string     `json:"options,omitempty"`
	AudioRef string       `json:"audio_ref,omitempty"`

	// correctIndex is the position of the right option for multiple choice types
	correctIndex int
	// correctAnswer is the expected typed text for listening questions
	correctAnswer string
}

// Answer is a reader's response: an option index or typed text
type Answer struct {
	Choice int    `json:"choice"`
	Text   string `json:"text"`
}

// IsTyped reports whether the question expects typed text rather than a choice
func (q *Question) IsTyped() bool {
	return q.Type == Listening
}

// CorrectIndex returns the index of the right option, or -1 for typed questions
func (q *Question) CorrectIndex() int {
	return q.correctIndex
}

// CorrectAnswer returns the canonical answer text
func (q *Question) CorrectAnswer() string {
	if q.IsTyped() {
		return q.correctAnswer
	}
	return q.Options[q.correctIndex]
}

// Check verifies an answer by index, or by trimmed case-insensitive text for typed questions
func (q *Question) Check(a Answer) bool {
	if q.IsTyped() {
		return strings.ToLower(strings.TrimSpace(a.Text)) == q.correctAnswer
	}
	return a.Choice == q.correctIndex
}

// ViableTypes lists the archetypes a record has enough data for
func ViableTypes(word models.VocabularyRecord) []QuestionType {
	types := []QuestionType{Meaning}
	if word.HasContext() {
		types = append(types, SentenceContext, FillBlank)
	}
	if TranslationGloss(word.Definition) != "" {
		types = append(types, TranslationChoice)
	}
	if word.PronunciationRef != "" {
		types = append(types, Listening)
	}
	return types
}

// GenerateQuestion builds one review question for word.
// All randomness comes from rnd so callers can make it deterministic.
func GenerateQuestion(rnd *rand.Rand, word models.VocabularyRecord, allWords []models.VocabularyRecord) (*Question, error) {
	if strings.TrimSpace(word.Word) == "" || strings.TrimSpace(word.Definition) == "" {
		return nil, ErrUnusableWord
	}

	types := ViableTypes(word)
	qType := types[rnd.Intn(len(types))]

	q := &Question{
		ID:           uuid.NewString(),
		Type:         qType,
		Word:         word.Word,
		correctIndex: -1,
	}

	switch qType {
	case Listening:
		q.Prompt = "Listen to the pronunciation and type the word:"
		q.AudioRef = word.PronunciationRef
		q.correctAnswer = strings.ToLower(strings.TrimSpace(word.Word))
		return q, nil

	case TranslationChoice:
		q.Prompt = fmt.Sprintf("Which word means %q?", TranslationGloss(word.Definition))
		q.Options, q.correctIndex = shuffleOptions(rnd, word.Word, wordDistractors(rnd, word, allWords))

	case FillBlank:
		q.Prompt = "Choose the word that fills the blank:"
		q.Sentence = BlankOut(word.Contexts[0].Sentence, word.Word)
		q.Options, q.correctIndex = shuffleOptions(rnd, word.Word, wordDistractors(rnd, word, allWords))

	case SentenceContext:
		q.Prompt = fmt.Sprintf("What does %q mean in this sentence?", word.Word)
		q.Sentence = word.Contexts[0].Sentence
		correct := meaningOf(word.Definition)
		q.Options, q.correctIndex = shuffleOptions(rnd, correct, meaningDistractors(rnd, word, allWords, correct))

	default:
		q.Prompt = fmt.Sprintf("What does %q mean?", word.Word)
		correct := meaningOf(word.Definition)
		q.Options, q.correctIndex = shuffleOptions(rnd, correct, meaningDistractors(rnd, word, allWords, correct))
	}

	return q, nil
}

// otherWords returns usable records other than word, in random order
func otherWords(rnd *rand.Rand, word models.VocabularyRecord, allWords []models.VocabularyRecord) []models.VocabularyRecord {
	key := vocabulary.Key(word.Word)
	others := make([]models.VocabularyRecord, 0, len(allWords))
	for _, w := range allWords {
		if vocabulary.Key(w.Word) == key || w.Word == "" || w.Definition == "" {
			continue
		}
		others = append(others, w)
	}
	rnd.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	return others
}

func wordDistractors(rnd *rand.Rand, word models.VocabularyRecord, allWords []models.VocabularyRecord) []string {
	options := make([]string, 0, distractorCount)
	seen := map[string]bool{vocabulary.Key(word.Word): true}
	for _, w := range otherWords(rnd, word, allWords) {
		if len(options) == distractorCount {
			break
		}
		if seen[vocabulary.Key(w.Word)] {
			continue
		}
		seen[vocabulary.Key(w.Word)] = true
		options = append(options, w.Word)
	}
	return pad(options, placeholderWords, seen, vocabulary.Key)
}

func meaningDistractors(rnd *rand.Rand, word models.VocabularyRecord, allWords []models.VocabularyRecord, correct string) []string {
	options := make([]string, 0, distractorCount)
	seen := map[string]bool{correct: true}
	for _, w := range otherWords(rnd, word, allWords) {
		if len(options) == distractorCount {
			break
		}
		meaning := meaningOf(w.Definition)
		if meaning == "" || seen[meaning] {
			continue
		}
		seen[meaning] = true
		options = append(options, meaning)
	}
	return pad(options, placeholderMeanings, seen, func(s string) string { return s })
}

// pad fills options up to distractorCount with synthetic placeholders
func pad(options, placeholders []string, seen map[string]bool, key func(string) string) []string {
	for _, p := range placeholders {
		if len(options) == distractorCount {
			break
		}
		if seen[key(p)] {
			continue
		}
		seen[key(p)] = true
		options = append(options, p)
	}
	for i := 1; len(options) < distractorCount; i++ {
		options = append(options, fmt.Sprintf("option %d", i))
	}
	return options
}

// shuffleOptions mixes the correct answer into the distractors and tracks its position
func shuffleOptions(rnd *rand.Rand, correct string, distractors []string) ([]string, int) {
	options := append(distractors, correct)
	correctIndex := len(options) - 1
	rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})
	return options, correctIndex
}

// isGloss reports whether a parenthesised segment is a secondary-language gloss
func isGloss(segment string) bool {
	for _, r := range segment {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// TranslationGloss extracts the parenthesised secondary-language gloss of a definition
func TranslationGloss(definition string) string {
	for _, m := range parenthetical.FindAllStringSubmatch(definition, -1) {
		if isGloss(m[1]) {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// StripGloss removes secondary-language glosses from a definition
func StripGloss(definition string) string {
	stripped := parenthetical.ReplaceAllStringFunc(definition, func(seg string) string {
		inner := parenthetical.FindStringSubmatch(seg)
		if len(inner) > 1 && isGloss(inner[1]) {
			return " "
		}
		return seg
	})
	return strings.Join(strings.Fields(stripped), " ")
}

// meaningOf is the definition shown as an option; a gloss-only definition is kept as is
func meaningOf(definition string) string {
	if stripped := StripGloss(definition); stripped != "" {
		return stripped
	}
	return strings.TrimSpace(definition)
}

// BlankOut replaces whole-word, case-insensitive occurrences of word in sentence
func BlankOut(sentence, word string) string {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(word)) + `\b`)
	if err != nil {
		return sentence
	}
	return re.ReplaceAllString(sentence, Blank)
}
