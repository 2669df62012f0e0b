package database

import (
	"context"
	"errors"

	"github.com/James99309/stargirl-reader/internal/vocabulary"
	"github.com/James99309/stargirl-reader/pkg/models"
)

// ErrCorrupt marks persisted state that could not be decoded
var ErrCorrupt = errors.New("persisted state is corrupt")

// Repository is the durable storage behind the vocabulary store and the economy.
// LoadProgress returns nil when nothing was saved yet.
type Repository interface {
	LoadVocabulary(ctx context.Context) (vocabulary.Snapshot, error)
	SaveRecord(ctx context.Context, key string, record models.VocabularyRecord) error
	DeleteRecord(ctx context.Context, key string) error
	SaveSavedWords(ctx context.Context, keys []string) error
	LoadProgress(ctx context.Context) (*models.Progress, error)
	SaveProgress(ctx context.Context, progress models.Progress) error
	Close() error
}
