package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Number of words listed by /words
	WordsPerPage int
	// Number of entries shown by /leaderboard
	LeaderboardSize int
	// Answer buttons per keyboard row
	ButtonsPerRow int
	// Timeout for lookups, speech and sync calls made while handling an update
	RequestTimeout time.Duration
	// Long-poll timeout in seconds
	UpdateTimeout int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		WordsPerPage:    20,
		LeaderboardSize: 10,
		ButtonsPerRow:   2,
		RequestTimeout:  20 * time.Second,
		UpdateTimeout:   60,
	}
}
