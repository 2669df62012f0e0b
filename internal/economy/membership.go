package economy

import (
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

func superMemberActive(p *models.Progress, now time.Time) bool {
	return p.IsSuperMember && p.SuperMemberExpiry != nil && p.SuperMemberExpiry.After(now)
}

// IsSuperMember reports whether the membership entitlement is currently active
func (e *Economy) IsSuperMember() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return superMemberActive(&e.state, e.now())
}

// PurchaseSuperMember spends XP on 30 days of membership. Renewing extends
// from the current expiry rather than from now.
func (e *Economy) PurchaseSuperMember() bool {
	var expiry time.Time
	ok := e.update(func(p *models.Progress, now time.Time) bool {
		if p.TotalXP < SuperMemberCost {
			return false
		}
		base := now
		if superMemberActive(p, now) {
			base = *p.SuperMemberExpiry
		}
		expiry = base.Add(SuperMemberDuration)
		p.TotalXP -= SuperMemberCost
		p.IsSuperMember = true
		p.SuperMemberExpiry = &expiry
		return true
	})
	if ok {
		e.logger.Info("Super membership purchased", zap.Time("expires", expiry))
	}
	return ok
}

// CheckSuperMemberStatus drops an expired membership. Returns true when it expired.
func (e *Economy) CheckSuperMemberStatus() bool {
	expired := e.update(func(p *models.Progress, now time.Time) bool {
		if !p.IsSuperMember || superMemberActive(p, now) {
			return false
		}
		p.IsSuperMember = false
		return true
	})
	if expired {
		e.logger.Info("Super membership expired")
	}
	return expired
}
