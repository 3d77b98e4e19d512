package eligibility

import (
	"context"
	"errors"
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/internal/repository"
	"github.com/spinwheel-lab/backend/pkg/dateutil"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

const defaultReserveRetry = 3

// dimensionOrder fixes the evaluation order of limit rules. A denial always
// reports the first failing dimension in this order, independent of the
// order rules were configured in.
var dimensionOrder = []entity.LimitDimension{
	entity.LimitPerEmail,
	entity.LimitPerPhone,
	entity.LimitPerIP,
	entity.LimitPerDevice,
	entity.LimitPerDay,
	entity.LimitPerWeek,
	entity.LimitTotal,
	entity.LimitCooldown,
}

// Denial reports which quota dimension refused a play. The reason is shown
// to the participant, so it names the limit without exposing anyone else's
// activity.
type Denial struct {
	Dimension entity.LimitDimension
	Reason    string
}

func denialOf(dimension entity.LimitDimension) *Denial {
	reason := "Play limit reached"
	switch dimension {
	case entity.LimitPerEmail:
		reason = "Email limit reached"
	case entity.LimitPerPhone:
		reason = "Phone limit reached"
	case entity.LimitPerIP:
		reason = "Too many plays from your network"
	case entity.LimitPerDevice:
		reason = "Device limit reached"
	case entity.LimitPerDay:
		reason = "Daily limit reached"
	case entity.LimitPerWeek:
		reason = "Weekly limit reached"
	case entity.LimitTotal:
		reason = "You have used all your plays"
	case entity.LimitCooldown:
		reason = "Please wait before playing again"
	}

	return &Denial{Dimension: dimension, Reason: reason}
}

// Engine decides whether one more play is admitted under a campaign's limit
// rules. Check is a read-only pre-check; Reserve atomically takes the slot
// and must run inside the caller's database transaction so that a play
// record and all its counter increments commit or roll back together.
type Engine struct {
	playCounterRepo repository.PlayCounterRepository
}

func NewEngine(playCounterRepo repository.PlayCounterRepository) *Engine {
	return &Engine{playCounterRepo: playCounterRepo}
}

// Check evaluates every applicable rule without reserving anything. A nil
// denial means a play would currently be admitted; the authoritative answer
// is still Reserve's, immediately before the outcome is recorded.
func (e *Engine) Check(
	ctx context.Context,
	campaignID string,
	rules []entity.LimitRule,
	identity Identity,
	now time.Time,
) (*Denial, error) {
	identity = identity.Normalize()
	rules = sortRules(rules)

	if denial := denyUnidentifiable(rules, identity); denial != nil {
		return denial, nil
	}

	for _, rule := range rules {
		value, applicable := identity.valueOf(rule.Dimension)
		if !applicable {
			continue
		}

		counter, err := e.playCounterRepo.Get(ctx, counterKey(campaignID, rule, value, now))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}

			return nil, err
		}

		if rule.Dimension == entity.LimitCooldown {
			if now.Sub(counter.LastPlayAt) < cooldown(rule) {
				return denialOf(rule.Dimension), nil
			}
			continue
		}

		if counter.Count >= rule.Threshold {
			return denialOf(rule.Dimension), nil
		}
	}

	return nil, nil
}

// Reserve atomically takes one play slot on every applicable rule. It
// returns a denial as soon as one dimension refuses; the caller's
// transaction rollback undoes any increments already taken.
func (e *Engine) Reserve(
	ctx context.Context,
	campaignID string,
	rules []entity.LimitRule,
	identity Identity,
	now time.Time,
) (*Denial, error) {
	identity = identity.Normalize()
	rules = sortRules(rules)

	if denial := denyUnidentifiable(rules, identity); denial != nil {
		return denial, nil
	}

	for _, rule := range rules {
		value, applicable := identity.valueOf(rule.Dimension)
		if !applicable {
			continue
		}

		denial, err := e.reserveRule(ctx, campaignID, rule, value, now)
		if err != nil {
			return nil, err
		}

		if denial != nil {
			return denial, nil
		}
	}

	return nil, nil
}

func (e *Engine) reserveRule(
	ctx context.Context,
	campaignID string,
	rule entity.LimitRule,
	value string,
	now time.Time,
) (*Denial, error) {
	key := counterKey(campaignID, rule, value, now)

	maxRetry := xcontext.Configs(ctx).Campaign.MaxReserveRetry
	if maxRetry <= 0 {
		maxRetry = defaultReserveRetry
	}

	var err error
	for attempt := 0; attempt < maxRetry; attempt++ {
		if rule.Dimension == entity.LimitCooldown {
			err = e.playCounterRepo.CheckAndTouch(ctx, key, now.Add(-cooldown(rule)), now)
		} else {
			err = e.playCounterRepo.CheckAndIncrement(ctx, key, rule.Threshold, now)
		}

		if errors.Is(err, repository.ErrCounterConflict) {
			// Lost the row-creation race; the guarded update will see the
			// winner's row on the next pass.
			continue
		}

		if errors.Is(err, repository.ErrLimitReached) {
			return denialOf(rule.Dimension), nil
		}

		return nil, err
	}

	// Retries exhausted: fail closed rather than over-admit.
	return nil, err
}

// denyUnidentifiable refuses a play whose identity bundle is entirely
// absent while the campaign has quota rules. An unenforceable quota admits
// nobody, not everybody.
func denyUnidentifiable(rules []entity.LimitRule, identity Identity) *Denial {
	if len(rules) == 0 || !identity.IsEmpty() {
		return nil
	}

	return &Denial{
		Dimension: rules[0].Dimension,
		Reason:    "We could not identify this device",
	}
}

func sortRules(rules []entity.LimitRule) []entity.LimitRule {
	sorted := make([]entity.LimitRule, len(rules))
	copy(sorted, rules)
	slices.SortStableFunc(sorted, func(a, b entity.LimitRule) bool {
		return slices.Index(dimensionOrder, a.Dimension) < slices.Index(dimensionOrder, b.Dimension)
	})

	return sorted
}

func counterKey(campaignID string, rule entity.LimitRule, value string, now time.Time) repository.CounterKey {
	window := dateutil.AllTimeBucket
	switch rule.Dimension {
	case entity.LimitPerDay:
		window = dateutil.DayBucket(now)
	case entity.LimitPerWeek:
		window = dateutil.WeekBucket(now)
	}

	return repository.CounterKey{
		CampaignID:   campaignID,
		Dimension:    rule.Dimension,
		IdentityHash: hashValue(value),
		Window:       window,
	}
}

func cooldown(rule entity.LimitRule) time.Duration {
	return time.Duration(rule.DurationHours) * time.Hour
}
