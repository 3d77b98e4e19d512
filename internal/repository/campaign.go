package repository

import (
	"context"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
)

type CampaignRepository interface {
	// Campaign
	Create(ctx context.Context, campaign *entity.Campaign) error
	GetByID(ctx context.Context, campaignID string) (*entity.Campaign, error)
	GetByCreatedBy(ctx context.Context, userID string) ([]entity.Campaign, error)
	Update(ctx context.Context, campaign *entity.Campaign) error
	Delete(ctx context.Context, campaignID string) error

	// Prize
	CreatePrize(ctx context.Context, prize *entity.Prize) error
	GetPrizeByID(ctx context.Context, prizeID string) (*entity.Prize, error)
	GetPrizesByCampaignID(ctx context.Context, campaignID string) ([]entity.Prize, error)
	GetAllPrizesByCampaignID(ctx context.Context, campaignID string) ([]entity.Prize, error)
	DeletePrizesByCampaignID(ctx context.Context, campaignID string) error

	// Limit rule
	CreateLimitRule(ctx context.Context, rule *entity.LimitRule) error
	GetLimitRulesByCampaignID(ctx context.Context, campaignID string) ([]entity.LimitRule, error)
	DeleteLimitRulesByCampaignID(ctx context.Context, campaignID string) error
}

type campaignRepository struct{}

func NewCampaignRepository() *campaignRepository {
	return &campaignRepository{}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *entity.Campaign) error {
	return xcontext.DB(ctx).Create(campaign).Error
}

func (r *campaignRepository) GetByID(ctx context.Context, campaignID string) (*entity.Campaign, error) {
	var result entity.Campaign
	if err := xcontext.DB(ctx).Take(&result, "id=?", campaignID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *campaignRepository) GetByCreatedBy(ctx context.Context, userID string) ([]entity.Campaign, error) {
	var result []entity.Campaign
	err := xcontext.DB(ctx).Where("created_by=?", userID).
		Order("created_at DESC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *campaignRepository) Update(ctx context.Context, campaign *entity.Campaign) error {
	return xcontext.DB(ctx).Model(&entity.Campaign{}).
		Where("id=?", campaign.ID).
		Updates(map[string]any{
			"type":                    campaign.Type,
			"status":                  campaign.Status,
			"is_published":            campaign.IsPublished,
			"start_time":              campaign.StartTime,
			"end_time":                campaign.EndTime,
			"timezone":                campaign.Timezone,
			"payment_model":           campaign.PaymentModel,
			"redemption_window_hours": campaign.RedemptionWindowHours,
			"require_lead_form":       campaign.RequireLeadForm,
			"lead_fields":             campaign.LeadFields,
		}).Error
}

func (r *campaignRepository) Delete(ctx context.Context, campaignID string) error {
	return xcontext.DB(ctx).Delete(&entity.Campaign{}, "id=?", campaignID).Error
}

func (r *campaignRepository) CreatePrize(ctx context.Context, prize *entity.Prize) error {
	return xcontext.DB(ctx).Create(prize).Error
}

// GetPrizeByID resolves a prize even after it was replaced by a campaign
// edit. Play records and issued reference codes keep pointing at the
// soft-deleted row.
func (r *campaignRepository) GetPrizeByID(ctx context.Context, prizeID string) (*entity.Prize, error) {
	var result entity.Prize
	if err := xcontext.DB(ctx).Unscoped().Take(&result, "id=?", prizeID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *campaignRepository) GetPrizesByCampaignID(ctx context.Context, campaignID string) ([]entity.Prize, error) {
	var result []entity.Prize
	err := xcontext.DB(ctx).Where("campaign_id=?", campaignID).
		Order("created_at ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetAllPrizesByCampaignID also returns replaced prizes, for read paths
// that resolve historical play records.
func (r *campaignRepository) GetAllPrizesByCampaignID(ctx context.Context, campaignID string) ([]entity.Prize, error) {
	var result []entity.Prize
	err := xcontext.DB(ctx).Unscoped().Where("campaign_id=?", campaignID).
		Order("created_at ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *campaignRepository) DeletePrizesByCampaignID(ctx context.Context, campaignID string) error {
	return xcontext.DB(ctx).Delete(&entity.Prize{}, "campaign_id=?", campaignID).Error
}

func (r *campaignRepository) CreateLimitRule(ctx context.Context, rule *entity.LimitRule) error {
	return xcontext.DB(ctx).Create(rule).Error
}

func (r *campaignRepository) GetLimitRulesByCampaignID(ctx context.Context, campaignID string) ([]entity.LimitRule, error) {
	var result []entity.LimitRule
	if err := xcontext.DB(ctx).Find(&result, "campaign_id=?", campaignID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *campaignRepository) DeleteLimitRulesByCampaignID(ctx context.Context, campaignID string) error {
	return xcontext.DB(ctx).Delete(&entity.LimitRule{}, "campaign_id=?", campaignID).Error
}
