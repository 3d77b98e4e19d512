package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/math"
	"github.com/spinwheel-lab/backend/internal/common"
	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/internal/model"
	"github.com/spinwheel-lab/backend/internal/repository"
	"github.com/spinwheel-lab/backend/pkg/enum"
	"github.com/spinwheel-lab/backend/pkg/errorx"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
	"gorm.io/gorm"

	"github.com/spinwheel-lab/backend/internal/domain/outcome"
)

type CampaignDomain interface {
	Create(context.Context, *model.CreateCampaignRequest) (*model.CreateCampaignResponse, error)
	Update(context.Context, *model.UpdateCampaignRequest) (*model.UpdateCampaignResponse, error)
	Publish(context.Context, *model.PublishCampaignRequest) (*model.PublishCampaignResponse, error)
	Unpublish(context.Context, *model.UnpublishCampaignRequest) (*model.UnpublishCampaignResponse, error)
	Pause(context.Context, *model.PauseCampaignRequest) (*model.PauseCampaignResponse, error)
	Resume(context.Context, *model.ResumeCampaignRequest) (*model.ResumeCampaignResponse, error)
	Reschedule(context.Context, *model.RescheduleCampaignRequest) (*model.RescheduleCampaignResponse, error)
	Delete(context.Context, *model.DeleteCampaignRequest) (*model.DeleteCampaignResponse, error)
	Get(context.Context, *model.GetCampaignRequest) (*model.GetCampaignResponse, error)
	GetMyList(context.Context, *model.GetMyCampaignsRequest) (*model.GetMyCampaignsResponse, error)
	GetPlays(context.Context, *model.GetCampaignPlaysRequest) (*model.GetCampaignPlaysResponse, error)
}

type campaignDomain struct {
	campaignRepo     repository.CampaignRepository
	playRecordRepo   repository.PlayRecordRepository
	subscriptionRepo repository.SubscriptionRepository
}

func NewCampaignDomain(
	campaignRepo repository.CampaignRepository,
	playRecordRepo repository.PlayRecordRepository,
	subscriptionRepo repository.SubscriptionRepository,
) *campaignDomain {
	return &campaignDomain{
		campaignRepo:     campaignRepo,
		playRecordRepo:   playRecordRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

func (d *campaignDomain) Create(
	ctx context.Context, req *model.CreateCampaignRequest,
) (*model.CreateCampaignResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	if !enum.IsValid(entity.CampaignType(req.Type)) {
		return nil, errorx.New(errorx.BadRequest, "Invalid campaign type %s", req.Type)
	}

	if !enum.IsValid(entity.PaymentModel(req.PaymentModel)) {
		return nil, errorx.New(errorx.BadRequest, "Invalid payment model %s", req.PaymentModel)
	}

	if err := validateSchedule(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	prizes, err := newPrizeEntities(req.Prizes)
	if err != nil {
		return nil, err
	}

	rules, err := newLimitRuleEntities(req.LimitRules)
	if err != nil {
		return nil, err
	}

	campaign := &entity.Campaign{
		Base:                  entity.Base{ID: uuid.NewString()},
		CreatedBy:             userID,
		Type:                  entity.CampaignType(req.Type),
		Status:                entity.CampaignDraft,
		IsPublished:           false,
		StartTime:             toNullTime(req.StartTime),
		EndTime:               toNullTime(req.EndTime),
		Timezone:              req.Timezone,
		PaymentModel:          entity.PaymentModel(req.PaymentModel),
		RedemptionWindowHours: req.RedemptionWindowHours,
		RequireLeadForm:       req.RequireLeadForm,
		LeadFields:            req.LeadFields,
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.campaignRepo.Create(ctx, campaign); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create campaign: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.createPrizesAndRules(ctx, campaign.ID, prizes, rules); err != nil {
		return nil, err
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.CreateCampaignResponse{ID: campaign.ID}, nil
}

func (d *campaignDomain) Update(
	ctx context.Context, req *model.UpdateCampaignRequest,
) (*model.UpdateCampaignResponse, error) {
	campaign, lock, err := d.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if !lock.CanEdit {
		return nil, errorx.New(errorx.CampaignLocked, lock.Reason)
	}

	if req.Type != "" && !enum.IsValid(entity.CampaignType(req.Type)) {
		return nil, errorx.New(errorx.BadRequest, "Invalid campaign type %s", req.Type)
	}

	if err := validateSchedule(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	prizes, err := newPrizeEntities(req.Prizes)
	if err != nil {
		return nil, err
	}

	rules, err := newLimitRuleEntities(req.LimitRules)
	if err != nil {
		return nil, err
	}

	if req.Type != "" {
		campaign.Type = entity.CampaignType(req.Type)
	}

	campaign.StartTime = toNullTime(req.StartTime)
	campaign.EndTime = toNullTime(req.EndTime)
	campaign.Timezone = req.Timezone
	campaign.RedemptionWindowHours = req.RedemptionWindowHours
	campaign.RequireLeadForm = req.RequireLeadForm
	campaign.LeadFields = req.LeadFields

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.campaignRepo.Update(ctx, campaign); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update campaign: %v", err)
		return nil, errorx.Unknown
	}

	// Prizes and rules are replaced wholesale. Old prize rows survive as
	// soft-deleted so past play records keep their reference.
	if err := d.campaignRepo.DeletePrizesByCampaignID(ctx, campaign.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete old prizes: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.campaignRepo.DeleteLimitRulesByCampaignID(ctx, campaign.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete old limit rules: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.createPrizesAndRules(ctx, campaign.ID, prizes, rules); err != nil {
		return nil, err
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.UpdateCampaignResponse{}, nil
}

func (d *campaignDomain) Publish(
	ctx context.Context, req *model.PublishCampaignRequest,
) (*model.PublishCampaignResponse, error) {
	campaign, lock, err := d.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if !lock.CanEdit {
		return nil, errorx.New(errorx.CampaignLocked, lock.Reason)
	}

	if campaign.IsPublished {
		return nil, errorx.New(errorx.AlreadyExists, "The campaign was already published")
	}

	prizes, err := d.campaignRepo.GetPrizesByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
		return nil, errorx.Unknown
	}

	rules, err := d.campaignRepo.GetLimitRulesByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get limit rules: %v", err)
		return nil, errorx.Unknown
	}

	if err := validatePublishable(campaign, prizes, rules); err != nil {
		return nil, err
	}

	campaign.IsPublished = true
	campaign.Status = entity.CampaignActive
	if err := d.campaignRepo.Update(ctx, campaign); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot publish campaign: %v", err)
		return nil, errorx.Unknown
	}

	return &model.PublishCampaignResponse{}, nil
}

func (d *campaignDomain) Unpublish(
	ctx context.Context, req *model.UnpublishCampaignRequest,
) (*model.UnpublishCampaignResponse, error) {
	campaign, lock, err := d.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if !campaign.IsPublished {
		return nil, errorx.New(errorx.BadRequest, "The campaign is not published")
	}

	if !lock.CanUnpublish {
		return nil, errorx.New(errorx.CampaignLocked, lock.Reason)
	}

	campaign.IsPublished = false
	campaign.Status = entity.CampaignDraft
	if err := d.campaignRepo.Update(ctx, campaign); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unpublish campaign: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UnpublishCampaignResponse{}, nil
}

// Pause stops a published campaign from accepting plays without taking it
// back to draft. The schedule keeps running; a paused campaign still ends on
// its end time.
func (d *campaignDomain) Pause(
	ctx context.Context, req *model.PauseCampaignRequest,
) (*model.PauseCampaignResponse, error) {
	campaign, lock, err := d.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if !campaign.IsPublished {
		return nil, errorx.New(errorx.BadRequest, "The campaign is not published")
	}

	if campaign.Status == entity.CampaignPaused {
		return nil, errorx.New(errorx.BadRequest, "The campaign is already paused")
	}

	if !lock.CanUnpublish {
		return nil, errorx.New(errorx.CampaignLocked, lock.Reason)
	}

	campaign.Status = entity.CampaignPaused
	if err := d.campaignRepo.Update(ctx, campaign); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot pause campaign: %v", err)
		return nil, errorx.Unknown
	}

	return &model.PauseCampaignResponse{}, nil
}

func (d *campaignDomain) Resume(
	ctx context.Context, req *model.ResumeCampaignRequest,
) (*model.ResumeCampaignResponse, error) {
	campaign, lock, err := d.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != entity.CampaignPaused {
		return nil, errorx.New(errorx.BadRequest, "The campaign is not paused")
	}

	if !lock.CanUnpublish {
		return nil, errorx.New(errorx.CampaignLocked, lock.Reason)
	}

	campaign.Status = entity.CampaignActive
	if err := d.campaignRepo.Update(ctx, campaign); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resume campaign: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ResumeCampaignResponse{}, nil
}

func (d *campaignDomain) Reschedule(
	ctx context.Context, req *model.RescheduleCampaignRequest,
) (*model.RescheduleCampaignResponse, error) {
	campaign, lock, err := d.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if !lock.CanReschedule {
		return nil, errorx.New(errorx.CampaignLocked, lock.Reason)
	}

	if err := validateSchedule(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	campaign.StartTime = toNullTime(req.StartTime)
	campaign.EndTime = toNullTime(req.EndTime)
	if err := d.campaignRepo.Update(ctx, campaign); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reschedule campaign: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RescheduleCampaignResponse{}, nil
}

func (d *campaignDomain) Delete(
	ctx context.Context, req *model.DeleteCampaignRequest,
) (*model.DeleteCampaignResponse, error) {
	campaign, _, err := d.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	count, err := d.playRecordRepo.CountByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count plays: %v", err)
		return nil, errorx.Unknown
	}

	// Ledger entries outlive their campaign. Once someone played, the
	// campaign can only be unpublished, never removed.
	if count > 0 {
		return nil, errorx.New(errorx.Unavailable,
			"Cannot delete a campaign with recorded plays, unpublish it instead")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.campaignRepo.DeletePrizesByCampaignID(ctx, campaign.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete prizes: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.campaignRepo.DeleteLimitRulesByCampaignID(ctx, campaign.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete limit rules: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.campaignRepo.Delete(ctx, campaign.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete campaign: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.DeleteCampaignResponse{}, nil
}

func (d *campaignDomain) Get(
	ctx context.Context, req *model.GetCampaignRequest,
) (*model.GetCampaignResponse, error) {
	campaign, lock, err := d.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	prizes, err := d.campaignRepo.GetPrizesByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
		return nil, errorx.Unknown
	}

	rules, err := d.campaignRepo.GetLimitRulesByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get limit rules: %v", err)
		return nil, errorx.Unknown
	}

	state := common.Classify(campaign, time.Now())
	resp := convertCampaign(campaign, prizes, rules, state, convertLockState(lock))
	return &model.GetCampaignResponse{Campaign: resp}, nil
}

func (d *campaignDomain) GetMyList(
	ctx context.Context, req *model.GetMyCampaignsRequest,
) (*model.GetMyCampaignsResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	campaigns, err := d.campaignRepo.GetByCreatedBy(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get campaigns of user: %v", err)
		return nil, errorx.Unknown
	}

	sub, err := d.getSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	resp := []model.Campaign{}
	for i := range campaigns {
		campaign := &campaigns[i]
		state := common.Classify(campaign, now)
		lock := common.EvaluateLock(campaign, sub, now)
		resp = append(resp, convertCampaign(campaign, nil, nil, state, convertLockState(lock)))
	}

	return &model.GetMyCampaignsResponse{Campaigns: resp}, nil
}

func (d *campaignDomain) GetPlays(
	ctx context.Context, req *model.GetCampaignPlaysRequest,
) (*model.GetCampaignPlaysResponse, error) {
	campaign, _, err := d.loadOwned(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	cfg := xcontext.Configs(ctx).ApiServer
	if req.Limit == 0 {
		req.Limit = cfg.DefaultLimit
	}

	if req.Limit < 0 {
		return nil, errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	limit := math.MinInt(req.Limit, cfg.MaxLimit)
	records, err := d.playRecordRepo.GetListByCampaignID(ctx, campaign.ID, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get play records: %v", err)
		return nil, errorx.Unknown
	}

	total, err := d.playRecordRepo.CountByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count play records: %v", err)
		return nil, errorx.Unknown
	}

	labels, err := d.prizeLabels(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}

	plays := []model.PlayRecord{}
	for i := range records {
		plays = append(plays, convertPlayRecord(&records[i], labels[records[i].PrizeID]))
	}

	return &model.GetCampaignPlaysResponse{Plays: plays, Total: total}, nil
}

// loadOwned fetches a campaign, checks the requester owns it, and computes
// its current lock state.
func (d *campaignDomain) loadOwned(
	ctx context.Context, campaignID string,
) (*entity.Campaign, common.LockState, error) {
	userID := xcontext.RequestUserID(ctx)

	campaign, err := d.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.LockState{}, errorx.New(errorx.NotFound, "Not found campaign")
		}

		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return nil, common.LockState{}, errorx.Unknown
	}

	if campaign.CreatedBy != userID {
		return nil, common.LockState{}, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	sub, err := d.getSubscription(ctx, userID)
	if err != nil {
		return nil, common.LockState{}, err
	}

	return campaign, common.EvaluateLock(campaign, sub, time.Now()), nil
}

func (d *campaignDomain) getSubscription(ctx context.Context, userID string) (*entity.Subscription, error) {
	sub, err := d.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get subscription: %v", err)
		return nil, errorx.Unknown
	}

	return sub, nil
}

func (d *campaignDomain) createPrizesAndRules(
	ctx context.Context, campaignID string, prizes []entity.Prize, rules []entity.LimitRule,
) error {
	for i := range prizes {
		prizes[i].CampaignID = campaignID
		if err := d.campaignRepo.CreatePrize(ctx, &prizes[i]); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create prize: %v", err)
			return errorx.Unknown
		}
	}

	for i := range rules {
		rules[i].CampaignID = campaignID
		if err := d.campaignRepo.CreateLimitRule(ctx, &rules[i]); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create limit rule: %v", err)
			return errorx.Unknown
		}
	}

	return nil
}

// prizeLabels includes replaced prizes so historical plays keep their label.
func (d *campaignDomain) prizeLabels(ctx context.Context, campaignID string) (map[string]string, error) {
	prizes, err := d.campaignRepo.GetAllPrizesByCampaignID(ctx, campaignID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
		return nil, errorx.Unknown
	}

	labels := map[string]string{}
	for i := range prizes {
		labels[prizes[i].ID] = prizes[i].Label
	}

	return labels, nil
}

func newPrizeEntities(prizes []model.Prize) ([]entity.Prize, error) {
	result := []entity.Prize{}
	for _, p := range prizes {
		if p.Label == "" {
			return nil, errorx.New(errorx.BadRequest, "Prize label must not be empty")
		}

		if !enum.IsValid(entity.PrizeType(p.Type)) {
			return nil, errorx.New(errorx.BadRequest, "Invalid prize type %s", p.Type)
		}

		if p.Weight < 0 {
			return nil, errorx.New(errorx.BadRequest, "Prize weight must not be negative")
		}

		result = append(result, entity.Prize{
			Base:         entity.Base{ID: uuid.NewString()},
			Label:        p.Label,
			Type:         entity.PrizeType(p.Type),
			Weight:       p.Weight,
			Payload:      p.Payload,
			Instructions: p.Instructions,
		})
	}

	return result, nil
}

func newLimitRuleEntities(rules []model.LimitRule) ([]entity.LimitRule, error) {
	result := []entity.LimitRule{}
	for _, r := range rules {
		dimension := entity.LimitDimension(r.Dimension)
		if !enum.IsValid(dimension) {
			return nil, errorx.New(errorx.BadRequest, "Invalid limit dimension %s", r.Dimension)
		}

		if dimension == entity.LimitCooldown {
			if r.DurationHours <= 0 {
				return nil, errorx.New(errorx.BadRequest, "Cooldown duration must be positive")
			}
		} else if r.Threshold <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Limit threshold must be positive")
		}

		result = append(result, entity.LimitRule{
			Base:          entity.Base{ID: uuid.NewString()},
			Dimension:     dimension,
			Threshold:     r.Threshold,
			DurationHours: r.DurationHours,
		})
	}

	return result, nil
}

func validateSchedule(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return errorx.New(errorx.BadRequest, "End time must be after start time")
	}

	return nil
}

// validatePublishable enforces everything a campaign needs before accepting
// real plays.
func validatePublishable(campaign *entity.Campaign, prizes []entity.Prize, rules []entity.LimitRule) error {
	if len(prizes) == 0 {
		return errorx.New(errorx.BadRequest, "The campaign needs at least one prize")
	}

	for i := range prizes {
		if err := outcome.ValidatePayload(&prizes[i]); err != nil {
			return errorx.New(errorx.BadRequest, "Invalid payload of prize %s: %v", prizes[i].Label, err)
		}
	}

	if len(rules) == 0 {
		return errorx.New(errorx.BadRequest, "The campaign needs at least one limit rule")
	}

	return nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: t.UTC(), Valid: true}
}
