package domain

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync"
	"github.com/spinwheel-lab/backend/internal/common"
	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/internal/model"
	"github.com/spinwheel-lab/backend/internal/repository"
	"github.com/spinwheel-lab/backend/pkg/crypto"
	"github.com/spinwheel-lab/backend/pkg/errorx"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
	"github.com/spinwheel-lab/backend/pkg/xredis"
	"gorm.io/gorm"

	"github.com/spinwheel-lab/backend/internal/domain/eligibility"
	"github.com/spinwheel-lab/backend/internal/domain/outcome"
)

type ParticipationDomain interface {
	GetPublicCampaign(context.Context, *model.GetPublicCampaignRequest) (*model.GetPublicCampaignResponse, error)
	CheckEligibility(context.Context, *model.CheckEligibilityRequest) (*model.CheckEligibilityResponse, error)
	Play(context.Context, *model.PlayRequest) (*model.PlayResponse, error)
	Claim(context.Context, *model.ClaimRequest) (*model.ClaimResponse, error)
	GetRedemption(context.Context, *model.GetRedemptionRequest) (*model.GetRedemptionResponse, error)
	PreviewSpin(context.Context, *model.PreviewSpinRequest) (*model.PreviewSpinResponse, error)
	GetPreviewResult(context.Context, *model.GetPreviewResultRequest) (*model.GetPreviewResultResponse, error)
}

// campaignSnapshot caches a campaign with its prizes and rules for the
// read-heavy public endpoints. Play and Claim always load fresh rows; only
// the advisory endpoints tolerate a slightly stale snapshot.
type campaignSnapshot struct {
	campaign  *entity.Campaign
	prizes    []entity.Prize
	rules     []entity.LimitRule
	fetchedAt time.Time
}

const campaignSnapshotTTL = 30 * time.Second

const maxReferenceCodeRetry = 3

// previewResult is what PreviewSpin stores in redis. It never touches the
// database, so sandbox spins can never pollute quota counters or the ledger.
type previewResult struct {
	PrizeID    string    `json:"prize_id"`
	PrizeLabel string    `json:"prize_label"`
	IsWin      bool      `json:"is_win"`
	CreatedAt  time.Time `json:"created_at"`
}

type participationDomain struct {
	campaignRepo   repository.CampaignRepository
	playRecordRepo repository.PlayRecordRepository
	engine         *eligibility.Engine
	redisClient    xredis.Client

	snapshots *xsync.MapOf[string, campaignSnapshot]
}

func NewParticipationDomain(
	campaignRepo repository.CampaignRepository,
	playRecordRepo repository.PlayRecordRepository,
	playCounterRepo repository.PlayCounterRepository,
	redisClient xredis.Client,
) *participationDomain {
	return &participationDomain{
		campaignRepo:   campaignRepo,
		playRecordRepo: playRecordRepo,
		engine:         eligibility.NewEngine(playCounterRepo),
		redisClient:    redisClient,
		snapshots:      xsync.NewMapOf[campaignSnapshot](),
	}
}

func (d *participationDomain) GetPublicCampaign(
	ctx context.Context, req *model.GetPublicCampaignRequest,
) (*model.GetPublicCampaignResponse, error) {
	snapshot, err := d.getSnapshot(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	state := common.Classify(snapshot.campaign, now)

	// An unpublished campaign does not exist for the public surface.
	if state == entity.StateDraft {
		return nil, errorx.New(errorx.NotFound, "Not found campaign")
	}

	prizes := []model.PublicPrize{}
	for i := range snapshot.prizes {
		prizes = append(prizes, model.PublicPrize{
			ID:    snapshot.prizes[i].ID,
			Label: snapshot.prizes[i].Label,
		})
	}

	nextStep := model.StepPlay
	if snapshot.campaign.RequireLeadForm {
		nextStep = model.StepLeadCapture
	}

	return &model.GetPublicCampaignResponse{
		Campaign: model.PublicCampaign{
			ID:              snapshot.campaign.ID,
			Type:            string(snapshot.campaign.Type),
			State:           string(state),
			RequireLeadForm: snapshot.campaign.RequireLeadForm,
			LeadFields:      snapshot.campaign.LeadFields,
			Prizes:          prizes,
		},
		NextStep: nextStep,
	}, nil
}

func (d *participationDomain) CheckEligibility(
	ctx context.Context, req *model.CheckEligibilityRequest,
) (*model.CheckEligibilityResponse, error) {
	snapshot, err := d.getSnapshot(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	state := common.Classify(snapshot.campaign, now)
	if state == entity.StateDraft {
		return nil, errorx.New(errorx.NotFound, "Not found campaign")
	}

	if reason := gateRefusal(state); reason != "" {
		return &model.CheckEligibilityResponse{Eligible: false, Reason: reason}, nil
	}

	identity := requestIdentity(ctx, req.Email, req.Phone)
	denial, err := d.engine.Check(ctx, snapshot.campaign.ID, snapshot.rules, identity, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check eligibility: %v", err)
		return nil, errorx.Unknown
	}

	if denial != nil {
		return &model.CheckEligibilityResponse{
			Eligible:  false,
			Dimension: string(denial.Dimension),
			Reason:    denial.Reason,
		}, nil
	}

	return &model.CheckEligibilityResponse{Eligible: true}, nil
}

func (d *participationDomain) Play(
	ctx context.Context, req *model.PlayRequest,
) (*model.PlayResponse, error) {
	now := time.Now()

	campaign, err := d.getCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	state := common.Classify(campaign, now)
	if state == entity.StateDraft {
		return nil, errorx.New(errorx.NotFound, "Not found campaign")
	}

	if reason := gateRefusal(state); reason != "" {
		return nil, errorx.New(errorx.CampaignClosed, reason)
	}

	if err := validateLeadForm(campaign, req); err != nil {
		return nil, err
	}

	rules, err := d.campaignRepo.GetLimitRulesByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get limit rules: %v", err)
		return nil, errorx.Unknown
	}

	identity := requestIdentity(ctx, req.Email, req.Phone).Normalize()

	// Advisory pre-check before the transaction opens. The authoritative
	// answer is Reserve's below; this one just avoids burning a transaction
	// on a player who is obviously over quota.
	denial, err := d.engine.Check(ctx, campaign.ID, rules, identity, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot pre-check eligibility: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Please try again later")
	}

	var record *entity.PlayRecord
	var prize *entity.Prize
	if denial == nil {
		record, prize, denial, err = d.reserveAndRecord(ctx, campaign, rules, identity, req.LeadName, now)
		if err != nil {
			return nil, err
		}
	}

	if denial != nil {
		common.PromCounters[common.PlayDenialsTotal].
			WithLabelValues(string(denial.Dimension)).Inc()
		return nil, errorx.New(errorx.QuotaExceeded, denial.Reason)
	}

	resp := &model.PlayResponse{
		PlayID:       record.ID,
		PrizeID:      prize.ID,
		PrizeLabel:   prize.Label,
		IsWin:        record.IsWin,
		Instructions: prize.Instructions,
		NextStep:     model.StepDone,
	}

	if !record.IsWin {
		return resp, nil
	}

	// When the lead form already captured contact details there is nothing
	// left to ask for, so the claim happens right here and the player jumps
	// straight to redemption.
	if campaign.RequireLeadForm && (record.Email != "" || record.Phone != "") {
		if err := d.claimRecord(ctx, record, campaign, now); err != nil {
			return nil, err
		}

		record, err = d.playRecordRepo.GetByID(ctx, record.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot reload play record: %v", err)
			return nil, errorx.Unknown
		}

		resp.ReferenceCode = record.ReferenceCode.String
		resp.ExpiresAt = nullTimePtr(record.RedemptionExpiresAt)
		resp.NextStep = model.StepRedemption
		return resp, nil
	}

	resp.NextStep = model.StepClaim
	return resp, nil
}

// reserveAndRecord runs the admission decision and the ledger append in one
// transaction. A refusal on any quota dimension rolls back every counter
// increment already taken, so a denied play consumes nothing.
func (d *participationDomain) reserveAndRecord(
	ctx context.Context,
	campaign *entity.Campaign,
	rules []entity.LimitRule,
	identity eligibility.Identity,
	leadName string,
	now time.Time,
) (*entity.PlayRecord, *entity.Prize, *eligibility.Denial, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	denial, err := d.engine.Reserve(ctx, campaign.ID, rules, identity, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reserve play slot: %v", err)
		return nil, nil, nil, errorx.New(errorx.Unavailable, "Please try again later")
	}

	if denial != nil {
		return nil, nil, denial, nil
	}

	prizes, err := d.campaignRepo.GetPrizesByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
		return nil, nil, nil, errorx.Unknown
	}

	prize, err := outcome.Pick(prizes)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot pick a prize: %v", err)
		return nil, nil, nil, errorx.Unknown
	}

	record := &entity.PlayRecord{
		SnowFlakeBase: entity.SnowFlakeBase{
			ID:        xcontext.SnowFlake(ctx).Generate().Int64(),
			CreatedAt: now,
		},
		CampaignID: campaign.ID,
		Email:      identity.Email,
		Phone:      identity.Phone,
		DeviceID:   identity.DeviceID,
		IP:         identity.IP,
		LeadName:   leadName,
		PrizeID:    prize.ID,
		IsWin:      outcome.IsWin(prize),
		ClaimState: entity.Unclaimed,
	}

	if err := d.playRecordRepo.Create(ctx, record); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create play record: %v", err)
		return nil, nil, nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	result := "no_win"
	if record.IsWin {
		result = "win"
	}
	common.PromCounters[common.CampaignPlaysTotal].WithLabelValues(result).Inc()

	return record, prize, nil, nil
}

func (d *participationDomain) Claim(
	ctx context.Context, req *model.ClaimRequest,
) (*model.ClaimResponse, error) {
	now := time.Now()

	record, err := d.playRecordRepo.GetByID(ctx, req.PlayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found play")
		}

		xcontext.Logger(ctx).Errorf("Cannot get play record: %v", err)
		return nil, errorx.Unknown
	}

	if !record.IsWin {
		return nil, errorx.New(errorx.BadRequest, "A losing play cannot be claimed")
	}

	claimant := requestIdentity(ctx, req.Email, req.Phone).Normalize()
	if !claimantMatches(record, claimant) {
		return nil, errorx.New(errorx.PermissionDenied, "This play was recorded for someone else")
	}

	if record.Email == "" && record.Phone == "" && req.Email == "" && req.Phone == "" {
		return nil, errorx.New(errorx.BadRequest, "Contact details are required to claim")
	}

	if record.ClaimState == entity.Unclaimed {
		campaign, err := d.getCampaign(ctx, record.CampaignID)
		if err != nil {
			return nil, err
		}

		// Claims stay open for one redemption window past the campaign
		// end, then the won outcome lapses.
		window := redemptionWindow(ctx, campaign)
		if campaign.EndTime.Valid && now.After(campaign.EndTime.Time.Add(window)) {
			return nil, errorx.New(errorx.ClaimExpired, "The claim window for this campaign has closed")
		}

		if err := d.claimRecord(ctx, record, campaign, now); err != nil {
			return nil, err
		}
	}

	// Respond from the stored row so a replayed claim returns exactly what
	// the first one did.
	record, err = d.playRecordRepo.GetByID(ctx, req.PlayID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload play record: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ClaimResponse{
		ReferenceCode: record.ReferenceCode.String,
		ExpiresAt:     record.RedemptionExpiresAt.Time,
		NextStep:      model.StepRedemption,
	}, nil
}

// claimantMatches reports whether a claim request presents an identity
// value matching the play's snapshot. Knowing a numeric play id is not
// enough to walk away with someone else's reference code. A play recorded
// without any identity has nothing to match against.
func claimantMatches(record *entity.PlayRecord, claimant eligibility.Identity) bool {
	if record.Email == "" && record.Phone == "" && record.DeviceID == "" && record.IP == "" {
		return true
	}

	switch {
	case record.Email != "" && claimant.Email == record.Email:
		return true
	case record.Phone != "" && claimant.Phone == record.Phone:
		return true
	case record.DeviceID != "" && claimant.DeviceID == record.DeviceID:
		return true
	case record.IP != "" && claimant.IP == record.IP:
		return true
	}

	return false
}

// claimRecord issues the reference code. Losing the claim race is not an
// error; the caller reads the winner's code back afterwards.
func (d *participationDomain) claimRecord(
	ctx context.Context, record *entity.PlayRecord, campaign *entity.Campaign, now time.Time,
) error {
	window := redemptionWindow(ctx, campaign)
	length := xcontext.Configs(ctx).Campaign.ReferenceCodeLength

	for i := 0; i < maxReferenceCodeRetry; i++ {
		code := crypto.GenerateReferenceCode(length)
		err := d.playRecordRepo.CheckAndClaim(ctx, record.ID, code, now, now.Add(window))
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			common.PromCounters[common.CampaignClaimsTotal].WithLabelValues().Inc()
			return nil
		}

		// Most likely a reference code collision on the unique index.
		xcontext.Logger(ctx).Warnf("Retry claim with a new code: %v", err)
	}

	xcontext.Logger(ctx).Errorf("Cannot claim play %d after %d attempts", record.ID, maxReferenceCodeRetry)
	return errorx.Unknown
}

func (d *participationDomain) GetRedemption(
	ctx context.Context, req *model.GetRedemptionRequest,
) (*model.GetRedemptionResponse, error) {
	record, err := d.playRecordRepo.GetByReferenceCode(ctx, req.ReferenceCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found redemption code")
		}

		xcontext.Logger(ctx).Errorf("Cannot get play record by code: %v", err)
		return nil, errorx.Unknown
	}

	prize, err := d.campaignRepo.GetPrizeByID(ctx, record.PrizeID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prize: %v", err)
		return nil, errorx.Unknown
	}

	status := "valid"
	if time.Now().After(record.RedemptionExpiresAt.Time) {
		status = "expired"
	}

	return &model.GetRedemptionResponse{
		PrizeLabel:   prize.Label,
		PrizeType:    string(prize.Type),
		Payload:      prize.Payload,
		Instructions: prize.Instructions,
		Status:       status,
		ExpiresAt:    record.RedemptionExpiresAt.Time,
	}, nil
}

func (d *participationDomain) PreviewSpin(
	ctx context.Context, req *model.PreviewSpinRequest,
) (*model.PreviewSpinResponse, error) {
	campaign, err := d.getCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	if campaign.CreatedBy != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	prizes, err := d.campaignRepo.GetPrizesByCampaignID(ctx, campaign.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
		return nil, errorx.Unknown
	}

	prize, err := outcome.Pick(prizes)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "The campaign has no prizes to spin")
	}

	previewID := uuid.NewString()
	result := previewResult{
		PrizeID:    prize.ID,
		PrizeLabel: prize.Label,
		IsWin:      outcome.IsWin(prize),
		CreatedAt:  time.Now(),
	}

	key := common.PreviewResultRedisKey(campaign.ID, previewID)
	ttl := xcontext.Configs(ctx).Campaign.PreviewResultTTL
	if err := d.redisClient.SetObj(ctx, key, result, ttl); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot store preview result: %v", err)
		return nil, errorx.Unknown
	}

	return &model.PreviewSpinResponse{
		PreviewID:  previewID,
		PrizeID:    result.PrizeID,
		PrizeLabel: result.PrizeLabel,
		IsWin:      result.IsWin,
	}, nil
}

func (d *participationDomain) GetPreviewResult(
	ctx context.Context, req *model.GetPreviewResultRequest,
) (*model.GetPreviewResultResponse, error) {
	campaign, err := d.getCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	if campaign.CreatedBy != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	var result previewResult
	key := common.PreviewResultRedisKey(campaign.ID, req.PreviewID)
	if err := d.redisClient.GetObj(ctx, key, &result); err != nil {
		if errors.Is(err, xredis.ErrNotFound) {
			return nil, errorx.New(errorx.NotFound, "Preview result not found or expired")
		}

		xcontext.Logger(ctx).Errorf("Cannot get preview result: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetPreviewResultResponse{
		PrizeID:    result.PrizeID,
		PrizeLabel: result.PrizeLabel,
		IsWin:      result.IsWin,
		CreatedAt:  result.CreatedAt,
	}, nil
}

func (d *participationDomain) getCampaign(ctx context.Context, campaignID string) (*entity.Campaign, error) {
	campaign, err := d.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found campaign")
		}

		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return nil, errorx.Unknown
	}

	return campaign, nil
}

func (d *participationDomain) getSnapshot(ctx context.Context, campaignID string) (*campaignSnapshot, error) {
	if snapshot, ok := d.snapshots.Load(campaignID); ok {
		if time.Since(snapshot.fetchedAt) < campaignSnapshotTTL {
			return &snapshot, nil
		}
	}

	campaign, err := d.getCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	prizes, err := d.campaignRepo.GetPrizesByCampaignID(ctx, campaignID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
		return nil, errorx.Unknown
	}

	rules, err := d.campaignRepo.GetLimitRulesByCampaignID(ctx, campaignID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get limit rules: %v", err)
		return nil, errorx.Unknown
	}

	snapshot := campaignSnapshot{
		campaign:  campaign,
		prizes:    prizes,
		rules:     rules,
		fetchedAt: time.Now(),
	}
	d.snapshots.Store(campaignID, snapshot)

	return &snapshot, nil
}

// gateRefusal maps a non-accepting state to the player-facing refusal. An
// empty string means plays are accepted. Draft is handled by the callers
// since a draft must look like a missing campaign, not a closed one.
func gateRefusal(state entity.CampaignState) string {
	if common.AcceptsPlays(state) {
		return ""
	}

	switch state {
	case entity.StateScheduled:
		return "The campaign has not started yet"
	case entity.StatePaused:
		return "The campaign is paused"
	case entity.StateEnded:
		return "The campaign has ended"
	}

	return ""
}

func validateLeadForm(campaign *entity.Campaign, req *model.PlayRequest) error {
	if !campaign.RequireLeadForm {
		return nil
	}

	for _, field := range campaign.LeadFields {
		var missing bool
		switch field {
		case "name":
			missing = req.LeadName == ""
		case "email":
			missing = req.Email == ""
		case "phone":
			missing = req.Phone == ""
		}

		if missing {
			return errorx.New(errorx.BadRequest, "The %s field is required", field)
		}
	}

	return nil
}

func redemptionWindow(ctx context.Context, campaign *entity.Campaign) time.Duration {
	if campaign.RedemptionWindowHours > 0 {
		return time.Duration(campaign.RedemptionWindowHours) * time.Hour
	}

	return xcontext.Configs(ctx).Campaign.DefaultRedemptionWindow
}

func requestIdentity(ctx context.Context, email, phone string) eligibility.Identity {
	identity := eligibility.Identity{Email: email, Phone: phone}
	if req := xcontext.HTTPRequest(ctx); req != nil {
		identity.DeviceID = req.Header.Get("X-Device-Id")
		identity.IP = clientIP(req)
	}

	return identity
}

func clientIP(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}

	return host
}
