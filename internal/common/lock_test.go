package common

import (
	"database/sql"
	"testing"
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func Test_EvaluateLock_draftIsAlwaysEditable(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

	// Unpublished campaigns stay editable across every payment model and
	// subscription health.
	for _, paymentModel := range []entity.PaymentModel{
		entity.PaymentSubscription,
		entity.PaymentPerCampaign,
	} {
		for _, sub := range []*entity.Subscription{
			nil,
			{Status: entity.SubscriptionActive},
			{Status: entity.SubscriptionPastDue},
			{Status: entity.SubscriptionCanceled},
		} {
			campaign := entity.Campaign{
				IsPublished:  false,
				PaymentModel: paymentModel,
				StartTime:    sql.NullTime{Time: now.Add(-48 * time.Hour), Valid: true},
				EndTime:      sql.NullTime{Time: now.Add(-24 * time.Hour), Valid: true},
			}

			lock := EvaluateLock(&campaign, sub, now)
			require.False(t, lock.IsLocked)
			require.True(t, lock.CanEdit)
		}
	}
}

func Test_EvaluateLock_endedIsFullyLocked(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	campaign := entity.Campaign{
		IsPublished:  true,
		PaymentModel: entity.PaymentSubscription,
		EndTime:      sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
	}

	lock := EvaluateLock(&campaign, &entity.Subscription{Status: entity.SubscriptionActive}, now)
	require.True(t, lock.IsLocked)
	require.False(t, lock.CanEdit)
	require.False(t, lock.CanReschedule)
	require.Equal(t, "The campaign has ended", lock.Reason)
}

func Test_EvaluateLock_payPerCampaign(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

	// Still scheduled: editable and unpublishable, but not reschedulable.
	scheduled := entity.Campaign{
		IsPublished:  true,
		PaymentModel: entity.PaymentPerCampaign,
		StartTime:    sql.NullTime{Time: now.Add(time.Hour), Valid: true},
		EndTime:      sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true},
	}
	lock := EvaluateLock(&scheduled, nil, now)
	require.False(t, lock.IsLocked)
	require.True(t, lock.CanEdit)
	require.True(t, lock.CanUnpublish)
	require.False(t, lock.CanReschedule)

	// Once running, a one-off campaign is locked with an upgrade hint.
	running := entity.Campaign{
		IsPublished:  true,
		PaymentModel: entity.PaymentPerCampaign,
		StartTime:    sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
		EndTime:      sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true},
	}
	lock = EvaluateLock(&running, nil, now)
	require.True(t, lock.IsLocked)
	require.True(t, lock.ShowUpgrade)
	require.False(t, lock.CanEdit)
}

func Test_EvaluateLock_subscriptionHealth(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	campaign := entity.Campaign{
		IsPublished:  true,
		PaymentModel: entity.PaymentSubscription,
		StartTime:    sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
		EndTime:      sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true},
	}

	lock := EvaluateLock(&campaign, &entity.Subscription{Status: entity.SubscriptionActive}, now)
	require.False(t, lock.IsLocked)
	require.True(t, lock.CanEdit)
	require.True(t, lock.CanUnpublish)
	require.True(t, lock.CanReschedule)

	lock = EvaluateLock(&campaign, &entity.Subscription{Status: entity.SubscriptionPastDue}, now)
	require.True(t, lock.IsLocked)
	require.True(t, lock.ShowUpgrade)
	require.Equal(t, "Your subscription is past_due", lock.Reason)

	// No billing snapshot at all counts as unhealthy.
	lock = EvaluateLock(&campaign, nil, now)
	require.True(t, lock.IsLocked)
	require.True(t, lock.ShowUpgrade)
}
