package common

import (
	"fmt"
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
)

// LockState is the owner-facing editability of a campaign at a point in
// time. It is derived on every read and never stored; a lock state computed
// by a client is advisory only.
type LockState struct {
	IsLocked      bool
	CanEdit       bool
	CanUnpublish  bool
	CanReschedule bool
	ShowUpgrade   bool
	Reason        string
}

type lockInput struct {
	state        entity.CampaignState
	paymentModel entity.PaymentModel
	subscription entity.SubscriptionStatus
}

type lockRule struct {
	applies func(in lockInput) bool
	verdict func(in lockInput) LockState
}

// lockRules is evaluated top to bottom, first match wins. The order encodes
// the precedence: the draft override beats every payment rule, and Ended
// beats subscription health. Adding a payment model means adding rules here,
// not nesting another conditional.
var lockRules = []lockRule{
	{
		// A draft accepts no plays, so its owner can always edit it.
		applies: func(in lockInput) bool { return in.state == entity.StateDraft },
		verdict: func(in lockInput) LockState {
			return LockState{CanEdit: true, CanReschedule: true}
		},
	},
	{
		applies: func(in lockInput) bool { return in.state == entity.StateEnded },
		verdict: func(in lockInput) LockState {
			return LockState{IsLocked: true, Reason: "The campaign has ended"}
		},
	},
	{
		applies: func(in lockInput) bool {
			return in.paymentModel == entity.PaymentPerCampaign && in.state == entity.StateScheduled
		},
		verdict: func(in lockInput) LockState {
			return LockState{
				CanEdit:      true,
				CanUnpublish: true,
				Reason:       "A one-off campaign cannot be rescheduled",
			}
		},
	},
	{
		applies: func(in lockInput) bool { return in.paymentModel == entity.PaymentPerCampaign },
		verdict: func(in lockInput) LockState {
			return LockState{
				IsLocked:    true,
				ShowUpgrade: true,
				Reason:      "A one-off campaign is locked once it starts",
			}
		},
	},
	{
		applies: func(in lockInput) bool {
			return in.paymentModel == entity.PaymentSubscription &&
				in.subscription == entity.SubscriptionActive
		},
		verdict: func(in lockInput) LockState {
			return LockState{CanEdit: true, CanUnpublish: true, CanReschedule: true}
		},
	},
	{
		applies: func(in lockInput) bool { return in.paymentModel == entity.PaymentSubscription },
		verdict: func(in lockInput) LockState {
			return LockState{
				IsLocked:    true,
				ShowUpgrade: true,
				Reason:      fmt.Sprintf("Your subscription is %s", in.subscription),
			}
		},
	},
}

// EvaluateLock computes the lock state of a campaign for its owner. The
// subscription may be nil when the billing service has no snapshot yet; that
// counts as unhealthy.
func EvaluateLock(campaign *entity.Campaign, sub *entity.Subscription, now time.Time) LockState {
	in := lockInput{
		state:        Classify(campaign, now),
		paymentModel: campaign.PaymentModel,
		subscription: entity.SubscriptionExpired,
	}

	if sub != nil {
		in.subscription = sub.Status
	}

	for _, rule := range lockRules {
		if rule.applies(in) {
			return rule.verdict(in)
		}
	}

	// Unanticipated combination: fail open. A policy gap must never brick
	// the editor.
	return LockState{CanEdit: true, CanUnpublish: true, CanReschedule: true}
}
