package economy

import (
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// HeartState names the implicit state of the (hearts, lastHeartLoss) pair
type HeartState string

const (
	HeartsFull      HeartState = "full"
	HeartsDepleting HeartState = "depleting"
	HeartsEmpty     HeartState = "empty"
)

// StateOf classifies a progress record's hearts
func StateOf(p models.Progress) HeartState {
	switch {
	case p.Hearts <= 0:
		return HeartsEmpty
	case p.Hearts >= p.MaxHearts:
		return HeartsFull
	default:
		return HeartsDepleting
	}
}

// CanPlay reports whether the reader may attempt heart-gated actions
func (e *Economy) CanPlay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Hearts > 0 || superMemberActive(&e.state, e.now())
}

// LoseHeart spends one heart on a wrong answer.
// The regen anchor is set when hearts first drop from full and is not moved
// by further losses in the same depleting run. Active super members lose nothing.
func (e *Economy) LoseHeart() bool {
	return e.update(func(p *models.Progress, now time.Time) bool {
		if superMemberActive(p, now) || p.Hearts <= 0 {
			return false
		}
		p.Hearts--
		if p.LastHeartLoss == nil {
			anchor := now
			p.LastHeartLoss = &anchor
		}
		return true
	})
}

// RestoreHeart gives back one heart, capped at the maximum
func (e *Economy) RestoreHeart() bool {
	return e.update(func(p *models.Progress, _ time.Time) bool {
		return restoreHearts(p, 1) > 0
	})
}

// restoreHearts adds up to n hearts and clears the anchor when full
func restoreHearts(p *models.Progress, n int) int {
	restored := min(n, p.MaxHearts-p.Hearts)
	if restored <= 0 {
		return 0
	}
	p.Hearts += restored
	if p.Hearts >= p.MaxHearts {
		p.LastHeartLoss = nil
	}
	return restored
}

// CheckAndRestoreHearts regenerates one heart per full 30 minutes since the anchor.
// After any restoration the anchor moves to now; partial progress toward the
// next heart is discarded.
func (e *Economy) CheckAndRestoreHearts() int {
	var restored int
	e.update(func(p *models.Progress, now time.Time) bool {
		if p.Hearts >= p.MaxHearts || p.LastHeartLoss == nil {
			return false
		}
		elapsed := now.Sub(*p.LastHeartLoss)
		due := int(elapsed / HeartRegenInterval)
		if due < 1 {
			return false
		}
		restored = restoreHearts(p, due)
		if p.Hearts < p.MaxHearts {
			anchor := now
			p.LastHeartLoss = &anchor
		}
		return true
	})
	if restored > 0 {
		e.logger.Debug("Hearts regenerated", zap.Int("restored", restored))
	}
	return restored
}

// ExchangeXPForHeart spends 100 XP on one heart. Nothing changes unless both
// the XP and a missing heart are available.
func (e *Economy) ExchangeXPForHeart() bool {
	return e.update(func(p *models.Progress, _ time.Time) bool {
		if p.TotalXP < XPPerHeart || p.Hearts >= p.MaxHearts {
			return false
		}
		p.TotalXP -= XPPerHeart
		restoreHearts(p, 1)
		return true
	})
}

// NextHeartAt returns when the next heart regenerates, or false when full
func (e *Economy) NextHeartAt() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Hearts >= e.state.MaxHearts || e.state.LastHeartLoss == nil {
		return time.Time{}, false
	}
	return e.state.LastHeartLoss.Add(HeartRegenInterval), true
}
