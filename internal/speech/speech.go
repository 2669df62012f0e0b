// Package speech turns reading text into audio, using a cloud voice with a
// local synthesizer as fallback.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
)

// MaxTextRunes caps the text sent to a synthesizer
const MaxTextRunes = 5000

var (
	// ErrCanceled is returned when an utterance was stopped or superseded
	ErrCanceled = errors.New("speech canceled")
	// ErrEmptyText is returned for blank input
	ErrEmptyText = errors.New("nothing to speak")
)

// Audio is synthesized speech ready to be played by the client
type Audio struct {
	Data        []byte
	ContentType string
	Source      string
}

// Synthesizer produces audio for text
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// Player runs one utterance at a time. Starting a new one cancels the
// previous, and results of superseded utterances are never returned.
type Player struct {
	primary  Synthesizer
	fallback Synthesizer
	logger   *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewPlayer creates a player; either synthesizer may be nil
func NewPlayer(primary, fallback Synthesizer, logger *zap.Logger) *Player {
	return &Player{primary: primary, fallback: fallback, logger: logger}
}

// Truncate limits text to MaxTextRunes runes
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxTextRunes {
		return text
	}
	return string([]rune(text)[:MaxTextRunes])
}

func (p *Player) begin(parent context.Context) (context.Context, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	p.gen++
	p.cancel = cancel
	return ctx, p.gen
}

func (p *Player) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen
}

func (p *Player) finish(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen == gen && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Speak synthesizes text, falling back when the primary voice is missing or fails
func (p *Player) Speak(parent context.Context, text string) (*Audio, error) {
	text = Truncate(strings.TrimSpace(text))
	if text == "" {
		return nil, ErrEmptyText
	}

	ctx, gen := p.begin(parent)
	defer p.finish(gen)

	var errs []error
	for _, s := range []Synthesizer{p.primary, p.fallback} {
		if s == nil {
			continue
		}
		audio, err := s.Synthesize(ctx, text)
		if !p.current(gen) || ctx.Err() != nil {
			return nil, ErrCanceled
		}
		if err == nil {
			return audio, nil
		}
		p.logger.Warn("Speech synthesis failed", zap.String("synthesizer", s.Name()), zap.Error(err))
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no speech synthesizer configured")
	}
	return nil, fmt.Errorf("failed to synthesize speech: %w", errors.Join(errs...))
}

// Stop cancels the utterance in progress, if any
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
