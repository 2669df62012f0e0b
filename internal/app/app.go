// Package app owns the reader's state objects and wires them to storage and
// the outside services.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/database"
	"github.com/James99309/stargirl-reader/internal/economy"
	"github.com/James99309/stargirl-reader/internal/leaderboard"
	"github.com/James99309/stargirl-reader/internal/lookup"
	"github.com/James99309/stargirl-reader/internal/review"
	"github.com/James99309/stargirl-reader/internal/speech"
	"github.com/James99309/stargirl-reader/internal/vocabulary"
	"github.com/James99309/stargirl-reader/pkg/models"
)

const persistTimeout = 5 * time.Second

// Resolver turns a tapped word into a vocabulary record
type Resolver interface {
	Resolve(ctx context.Context, word string, wctx *models.WordContext) (*lookup.Result, error)
}

// Reporter is the fire-and-forget progress sync sink
type Reporter interface {
	Report(report models.ProgressReport)
	UpdateMemberStatus(username string, isSuperMember bool)
	UpdateLocation(username, location string)
}

// Leaderboard is the ranked list source
type Leaderboard interface {
	Fetch(ctx context.Context) ([]models.LeaderboardEntry, error)
	FindUser(ctx context.Context, username string) (*models.LeaderboardEntry, error)
	RedeemCode(ctx context.Context, username, code string) (*leaderboard.RedeemResult, error)
}

// Speaker synthesizes reading text
type Speaker interface {
	Speak(ctx context.Context, text string) (*speech.Audio, error)
	Stop()
}

var (
	// ErrUnavailable is returned when an optional collaborator is not configured
	ErrUnavailable = errors.New("feature not configured")
	// ErrSessionNotFound is returned for unknown review session ids
	ErrSessionNotFound = errors.New("review session not found")
	// ErrLoginRequired is returned by operations tied to a leaderboard account
	ErrLoginRequired = errors.New("login required")
)

// Options holds the collaborators; any of them may be left nil
type Options struct {
	Clock       func() time.Time
	Location    *time.Location
	Rand        *rand.Rand
	Resolver    Resolver
	Reporter    Reporter
	Leaderboard Leaderboard
	Speaker     Speaker
}

// App is the single owner of the vocabulary store and the economy
type App struct {
	Vocabulary *vocabulary.Store
	Economy    *economy.Economy
	Review     *review.Scheduler

	repo        database.Repository
	resolver    Resolver
	reporter    Reporter
	leaderboard Leaderboard
	speaker     Speaker
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*review.Session
}

// New builds the state objects. Call Load before use.
func New(repo database.Repository, opts Options, logger *zap.Logger) *App {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	store := vocabulary.NewStore(logger.Named("vocabulary"), vocabulary.WithClock(opts.Clock))
	econ := economy.New(logger.Named("economy"), economy.WithClock(opts.Clock), economy.WithLocation(opts.Location))

	return &App{
		Vocabulary:  store,
		Economy:     econ,
		Review:      review.NewScheduler(store, opts.Rand, opts.Clock, logger.Named("review")),
		repo:        repo,
		resolver:    opts.Resolver,
		reporter:    opts.Reporter,
		leaderboard: opts.Leaderboard,
		speaker:     opts.Speaker,
		logger:      logger,
		sessions:    make(map[string]*review.Session),
	}
}

// Load restores persisted state and starts persisting every change.
// Missing or corrupt state starts fresh instead of failing.
func (a *App) Load(ctx context.Context) error {
	if a.repo != nil {
		snap, err := a.repo.LoadVocabulary(ctx)
		if err != nil {
			if !errors.Is(err, database.ErrCorrupt) {
				return fmt.Errorf("failed to load vocabulary: %w", err)
			}
			a.logger.Warn("Vocabulary is corrupt, starting empty", zap.Error(err))
		} else {
			a.Vocabulary.Restore(snap)
		}

		progress, err := a.repo.LoadProgress(ctx)
		switch {
		case errors.Is(err, database.ErrCorrupt):
			a.logger.Warn("Progress is corrupt, starting fresh", zap.Error(err))
		case err != nil:
			return fmt.Errorf("failed to load progress: %w", err)
		case progress != nil:
			a.Economy.Restore(*progress)
		}

		a.Vocabulary.OnChange(a.persistWord)
		a.Economy.OnChange(a.persistProgress)
	}

	a.Economy.CheckAndRestoreHearts()
	a.Economy.CheckSuperMemberStatus()
	a.logger.Info("State loaded",
		zap.Int("words", a.Vocabulary.Len()),
		zap.Int("xp", a.Economy.Snapshot().TotalXP))
	return nil
}

func (a *App) persistWord(c vocabulary.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if c.Deleted {
		if err := a.repo.DeleteRecord(ctx, c.Key); err != nil {
			a.logger.Error("Failed to delete word", zap.String("word", c.Key), zap.Error(err))
		}
		return
	}
	rec, ok := a.Vocabulary.Get(c.Key)
	if !ok {
		return
	}
	if err := a.repo.SaveRecord(ctx, c.Key, rec); err != nil {
		a.logger.Error("Failed to save word", zap.String("word", c.Key), zap.Error(err))
	}
	if err := a.repo.SaveSavedWords(ctx, a.Vocabulary.SavedWords()); err != nil {
		a.logger.Error("Failed to save saved words", zap.Error(err))
	}
}

func (a *App) persistProgress(p models.Progress) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := a.repo.SaveProgress(ctx, p); err != nil {
		a.logger.Error("Failed to save progress", zap.Error(err))
	}
}

// Close releases storage
func (a *App) Close() error {
	if a.speaker != nil {
		a.speaker.Stop()
	}
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}
