package testutil

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/internal/repository"
)

// SampleCampaign creates a published, currently running spin wheel campaign
// with randomized fields. Non-zero fields of init overwrite the sample.
//
// This function returns the sample campaign.
func SampleCampaign(ctx context.Context, init *entity.Campaign) (entity.Campaign, error) {
	campaignRepo := repository.NewCampaignRepository()

	sample := &entity.Campaign{
		Base:                  entity.Base{ID: uuid.NewString()},
		CreatedBy:             "user1",
		Type:                  entity.CampaignSpinWheel,
		Status:                entity.CampaignActive,
		IsPublished:           true,
		StartTime:             sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true},
		EndTime:               sql.NullTime{Time: time.Now().Add(24 * time.Hour), Valid: true},
		Timezone:              "UTC",
		PaymentModel:          entity.PaymentSubscription,
		RedemptionWindowHours: 48,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := campaignRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

// SampleDraftCampaign creates an unpublished campaign. Kept separate from
// SampleCampaign because a zero IsPublished cannot overwrite the published
// default.
func SampleDraftCampaign(ctx context.Context, init *entity.Campaign) (entity.Campaign, error) {
	campaignRepo := repository.NewCampaignRepository()

	sample := &entity.Campaign{
		Base:         entity.Base{ID: uuid.NewString()},
		CreatedBy:    "user1",
		Type:         entity.CampaignSpinWheel,
		Status:       entity.CampaignDraft,
		IsPublished:  false,
		Timezone:     "UTC",
		PaymentModel: entity.PaymentSubscription,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := campaignRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

// SamplePrize creates a winning prize of the given campaign.
func SamplePrize(ctx context.Context, campaignID string, init *entity.Prize) (entity.Prize, error) {
	campaignRepo := repository.NewCampaignRepository()

	sample := &entity.Prize{
		Base:       entity.Base{ID: uuid.NewString()},
		CampaignID: campaignID,
		Label:      uuid.NewString(),
		Type:       entity.PrizeCoupon,
		Weight:     1,
		Payload:    entity.Map{"code": "SAVE10"},
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := campaignRepo.CreatePrize(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

// SampleLimitRule creates one quota rule of the given campaign.
func SampleLimitRule(ctx context.Context, campaignID string, init *entity.LimitRule) (entity.LimitRule, error) {
	campaignRepo := repository.NewCampaignRepository()

	sample := &entity.LimitRule{
		Base:       entity.Base{ID: uuid.NewString()},
		CampaignID: campaignID,
		Dimension:  entity.LimitPerEmail,
		Threshold:  1,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := campaignRepo.CreateLimitRule(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if !overwriteField.IsZero() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
