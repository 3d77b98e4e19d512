package common

import (
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
)

// Classify derives the lifecycle state of a campaign at now. It is a pure
// function of the row and the clock: the stored status enum is never trusted
// on its own, and the result is never persisted or cached.
//
// The rules are priority ordered, first match wins:
//  1. A campaign that is not published is Draft, whatever its dates say. It
//     never ends and stays editable.
//  2. Published and past end time is Ended. Extending the end time later
//     un-ends it.
//  3. Published and before start time is Scheduled.
//  4. Published and inside the range (or with no dates at all) follows the
//     owner-set pause flag.
func Classify(campaign *entity.Campaign, now time.Time) entity.CampaignState {
	now = now.UTC()

	if !campaign.IsPublished {
		return entity.StateDraft
	}

	if campaign.EndTime.Valid && now.After(campaign.EndTime.Time.UTC()) {
		return entity.StateEnded
	}

	if campaign.StartTime.Valid && now.Before(campaign.StartTime.Time.UTC()) {
		return entity.StateScheduled
	}

	if campaign.Status == entity.CampaignPaused {
		return entity.StatePaused
	}

	return entity.StateActive
}

// AcceptsPlays reports whether the participation flow may admit plays in the
// given state.
func AcceptsPlays(state entity.CampaignState) bool {
	return state == entity.StateActive
}
