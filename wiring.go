package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/ai"
	"github.com/James99309/stargirl-reader/internal/app"
	"github.com/James99309/stargirl-reader/internal/config"
	"github.com/James99309/stargirl-reader/internal/database"
	"github.com/James99309/stargirl-reader/internal/leaderboard"
	"github.com/James99309/stargirl-reader/internal/lookup"
	"github.com/James99309/stargirl-reader/internal/scheduler"
	"github.com/James99309/stargirl-reader/internal/speech"
)

const syncQueueSize = 64

// runtime holds the wired application and what must be closed with it
type runtime struct {
	app    *app.App
	sink   *leaderboard.Sink
	loc    *time.Location
	logger *zap.Logger
}

func (r *runtime) Close() {
	if r.sink != nil {
		r.sink.Close()
	}
	if err := r.app.Close(); err != nil {
		r.logger.Warn("Failed to close storage", zap.Error(err))
	}
}

// buildRuntime opens storage and wires every optional collaborator the configuration enables
func buildRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	repo, err := database.Open(cfg, logger.Named("database"))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	opts := app.Options{
		Location: loc,
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	dictionary := lookup.NewDictionaryClient(cfg.DictionaryAPIURL, logger.Named("dictionary"))
	var definitions lookup.Chain
	if cfg.OpenAIAPIKey != "" {
		gpt, err := ai.New(cfg.OpenAIAPIKey, cfg.OpenAIAPIURL, cfg.OpenAIModel, logger.Named("ai"))
		if err != nil {
			logger.Warn("AI definitions disabled", zap.Error(err))
		} else {
			definitions = append(definitions, gpt)
		}
	}
	definitions = append(definitions, dictionary)
	opts.Resolver = lookup.NewResolver(definitions, dictionary, logger.Named("lookup"))

	var primary, fallback speech.Synthesizer
	if cloud := speech.NewCloudTTS(cfg.TTSAPIKey, cfg.TTSAPIURL); cloud != nil {
		primary = cloud
	}
	if command := speech.NewCommandTTS(cfg.TTSFallbackCommand); command != nil {
		fallback = command
	}
	if primary != nil || fallback != nil {
		opts.Speaker = speech.NewPlayer(primary, fallback, logger.Named("speech"))
	}

	rt := &runtime{loc: loc, logger: logger}
	if cfg.SyncURL != "" {
		client := leaderboard.NewClient(cfg.SyncURL, logger.Named("leaderboard"))
		rt.sink = leaderboard.NewSink(client, syncQueueSize, logger.Named("sync"))
		opts.Leaderboard = client
		opts.Reporter = rt.sink
	}

	rt.app = app.New(repo, opts, logger.Named("app"))
	if err := rt.app.Load(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// startScheduler runs the heart, membership and reminder jobs
func startScheduler(cfg *config.Config, rt *runtime, notifier scheduler.Notifier, logger *zap.Logger) (*scheduler.Scheduler, error) {
	opts := scheduler.DefaultOptions()
	opts.HeartCheckInterval = cfg.HeartCheckInterval
	opts.MembershipCheckInterval = cfg.MembershipCheckInterval
	opts.Location = rt.loc

	dueCount := func() int { return len(rt.app.Review.WordsForReview()) }
	s := scheduler.New(rt.app.Economy, dueCount, notifier, opts, logger.Named("scheduler"))
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}
