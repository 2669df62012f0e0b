package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// Tracker hands out generation numbers so results of superseded requests can be dropped
type Tracker struct {
	mu  sync.Mutex
	gen uint64
}

// Begin starts a new request, superseding all earlier ones
func (t *Tracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	return t.gen
}

// IsCurrent reports whether gen is still the latest request
func (t *Tracker) IsCurrent(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen
}

// Chain tries definition providers in order and returns the first hit
type Chain []DefinitionProvider

// LookupDefinition returns the first provider's definition, skipping nil providers.
// It stops early when ctx is done and otherwise returns the last provider error.
func (c Chain) LookupDefinition(ctx context.Context, word, sentence string) (*Definition, error) {
	var lastErr error = ErrNotFound
	for _, p := range c {
		if p == nil {
			continue
		}
		def, err := p.LookupDefinition(ctx, word, sentence)
		if err == nil {
			return def, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

// Result is a resolved word ready to be stored
type Result struct {
	Definition    Definition
	Pronunciation *Pronunciation
	Record        models.VocabularyRecord
}

// Resolver runs the definition and pronunciation lookups for a tapped word
// concurrently and builds the vocabulary record from them
type Resolver struct {
	definitions DefinitionProvider
	audio       PronunciationProvider
	tracker     Tracker
	logger      *zap.Logger
}

// NewResolver creates a resolver; audio may be nil
func NewResolver(definitions DefinitionProvider, audio PronunciationProvider, logger *zap.Logger) *Resolver {
	return &Resolver{definitions: definitions, audio: audio, logger: logger}
}

// Resolve looks the word up. A missing definition yields ErrNotFound and no
// record; a missing pronunciation only leaves the audio fields empty. When a
// newer Resolve call started meanwhile the result is discarded with ErrStale.
func (r *Resolver) Resolve(ctx context.Context, word string, wctx *models.WordContext) (*Result, error) {
	gen := r.tracker.Begin()
	clean := CleanWord(word)
	if clean == "" {
		return nil, ErrNotFound
	}
	sentence := ""
	if wctx != nil {
		sentence = strings.TrimSpace(wctx.Sentence)
	}

	var (
		def  *Definition
		pron *Pronunciation
		g    errgroup.Group
	)
	g.Go(func() error {
		d, err := r.definitions.LookupDefinition(ctx, clean, sentence)
		if err != nil {
			return err
		}
		def = d
		return nil
	})
	if r.audio != nil {
		g.Go(func() error {
			p, err := r.audio.LookupAudio(ctx, clean)
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					r.logger.Warn("Pronunciation lookup failed", zap.String("word", clean), zap.Error(err))
				}
				return nil
			}
			pron = p
			return nil
		})
	}
	err := g.Wait()

	if !r.tracker.IsCurrent(gen) {
		return nil, ErrStale
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !errors.Is(err, ErrNotFound) {
			r.logger.Warn("Definition lookup failed", zap.String("word", clean), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, ErrNotFound
	}
	if def == nil || def.Gloss() == "" {
		return nil, ErrNotFound
	}

	rec := models.VocabularyRecord{
		Word:         clean,
		Definition:   def.Gloss(),
		PartOfSpeech: def.PartOfSpeech,
		IsNew:        true,
	}
	if pron != nil {
		rec.PronunciationRef = pron.AudioRef
		rec.Phonetic = pron.Phonetic
	}
	if sentence != "" {
		rec.Contexts = []models.WordContext{{Sentence: sentence, ChapterID: wctx.ChapterID}}
	}
	return &Result{Definition: *def, Pronunciation: pron, Record: rec}, nil
}
