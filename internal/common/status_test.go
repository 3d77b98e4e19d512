package common

import (
	"database/sql"
	"testing"
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func Test_Classify(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := sql.NullTime{Time: now.Add(-24 * time.Hour), Valid: true}
	tomorrow := sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true}

	tests := []struct {
		name     string
		campaign entity.Campaign
		want     entity.CampaignState
	}{
		{
			name:     "unpublished is draft whatever the dates say",
			campaign: entity.Campaign{IsPublished: false, StartTime: yesterday, EndTime: tomorrow},
			want:     entity.StateDraft,
		},
		{
			name: "published inside the range is active",
			campaign: entity.Campaign{
				IsPublished: true,
				Status:      entity.CampaignActive,
				StartTime:   yesterday,
				EndTime:     tomorrow,
			},
			want: entity.StateActive,
		},
		{
			name: "published with no dates at all is active",
			campaign: entity.Campaign{
				IsPublished: true,
				Status:      entity.CampaignActive,
			},
			want: entity.StateActive,
		},
		{
			name: "published before start is scheduled",
			campaign: entity.Campaign{
				IsPublished: true,
				Status:      entity.CampaignActive,
				StartTime:   tomorrow,
			},
			want: entity.StateScheduled,
		},
		{
			name: "published past end is ended",
			campaign: entity.Campaign{
				IsPublished: true,
				Status:      entity.CampaignActive,
				StartTime:   sql.NullTime{Time: now.Add(-48 * time.Hour), Valid: true},
				EndTime:     yesterday,
			},
			want: entity.StateEnded,
		},
		{
			name: "ended wins over the pause flag",
			campaign: entity.Campaign{
				IsPublished: true,
				Status:      entity.CampaignPaused,
				EndTime:     yesterday,
			},
			want: entity.StateEnded,
		},
		{
			name: "paused inside the range",
			campaign: entity.Campaign{
				IsPublished: true,
				Status:      entity.CampaignPaused,
				StartTime:   yesterday,
				EndTime:     tomorrow,
			},
			want: entity.StatePaused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(&tt.campaign, now))
		})
	}
}

func Test_Classify_scheduledBecomesActive(t *testing.T) {
	start := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	campaign := entity.Campaign{
		IsPublished: true,
		Status:      entity.CampaignActive,
		StartTime:   sql.NullTime{Time: start, Valid: true},
		EndTime:     sql.NullTime{Time: start.Add(24 * time.Hour), Valid: true},
	}

	require.Equal(t, entity.StateScheduled, Classify(&campaign, start.Add(-time.Second)))
	require.Equal(t, entity.StateActive, Classify(&campaign, start))
	require.Equal(t, entity.StateEnded, Classify(&campaign, start.Add(25*time.Hour)))
}

func Test_AcceptsPlays(t *testing.T) {
	require.True(t, AcceptsPlays(entity.StateActive))
	require.False(t, AcceptsPlays(entity.StateDraft))
	require.False(t, AcceptsPlays(entity.StateScheduled))
	require.False(t, AcceptsPlays(entity.StatePaused))
	require.False(t, AcceptsPlays(entity.StateEnded))
}
