package domain

import (
	"database/sql"
	"time"

	"github.com/spinwheel-lab/backend/internal/common"
	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/internal/model"
)

func convertPrize(prize *entity.Prize) model.Prize {
	return model.Prize{
		ID:           prize.ID,
		Label:        prize.Label,
		Type:         string(prize.Type),
		Weight:       prize.Weight,
		Payload:      prize.Payload,
		Instructions: prize.Instructions,
	}
}

func convertLimitRule(rule *entity.LimitRule) model.LimitRule {
	return model.LimitRule{
		Dimension:     string(rule.Dimension),
		Threshold:     rule.Threshold,
		DurationHours: rule.DurationHours,
	}
}

func convertLockState(lock common.LockState) *model.LockState {
	return &model.LockState{
		IsLocked:      lock.IsLocked,
		CanEdit:       lock.CanEdit,
		CanUnpublish:  lock.CanUnpublish,
		CanReschedule: lock.CanReschedule,
		ShowUpgrade:   lock.ShowUpgrade,
		Reason:        lock.Reason,
	}
}

func convertCampaign(
	campaign *entity.Campaign,
	prizes []entity.Prize,
	rules []entity.LimitRule,
	state entity.CampaignState,
	lock *model.LockState,
) model.Campaign {
	resp := model.Campaign{
		ID:                    campaign.ID,
		Type:                  string(campaign.Type),
		State:                 string(state),
		IsPublished:           campaign.IsPublished,
		StartTime:             nullTimePtr(campaign.StartTime),
		EndTime:               nullTimePtr(campaign.EndTime),
		Timezone:              campaign.Timezone,
		PaymentModel:          string(campaign.PaymentModel),
		RedemptionWindowHours: campaign.RedemptionWindowHours,
		RequireLeadForm:       campaign.RequireLeadForm,
		LeadFields:            campaign.LeadFields,
		Lock:                  lock,
	}

	for i := range prizes {
		resp.Prizes = append(resp.Prizes, convertPrize(&prizes[i]))
	}

	for i := range rules {
		resp.LimitRules = append(resp.LimitRules, convertLimitRule(&rules[i]))
	}

	return resp
}

func convertPlayRecord(record *entity.PlayRecord, prizeLabel string) model.PlayRecord {
	return model.PlayRecord{
		ID:                  record.ID,
		CampaignID:          record.CampaignID,
		CreatedAt:           record.CreatedAt,
		Email:               record.Email,
		Phone:               record.Phone,
		LeadName:            record.LeadName,
		PrizeID:             record.PrizeID,
		PrizeLabel:          prizeLabel,
		IsWin:               record.IsWin,
		ClaimState:          string(record.ClaimState),
		ReferenceCode:       record.ReferenceCode.String,
		RedemptionExpiresAt: nullTimePtr(record.RedemptionExpiresAt),
	}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time
	return &v
}
