package domain

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/internal/model"
	"github.com/spinwheel-lab/backend/internal/repository"
	"github.com/spinwheel-lab/backend/pkg/errorx"
	"github.com/spinwheel-lab/backend/pkg/testutil"
	"github.com/spinwheel-lab/backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

func newParticipationDomainForTest() *participationDomain {
	return NewParticipationDomain(
		repository.NewCampaignRepository(),
		repository.NewPlayRecordRepository(),
		repository.NewPlayCounterRepository(),
		testutil.NewInMemoryRedisClient(),
	)
}

func Test_participationDomain_fullFlow(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleCampaign(ctx, nil)
	require.NoError(t, err)
	prize, err := testutil.SamplePrize(ctx, campaign.ID, nil)
	require.NoError(t, err)
	_, err = testutil.SampleLimitRule(ctx, campaign.ID, nil)
	require.NoError(t, err)

	publicResp, err := domain.GetPublicCampaign(ctx, &model.GetPublicCampaignRequest{
		CampaignID: campaign.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "active", publicResp.Campaign.State)
	require.Equal(t, model.StepPlay, publicResp.NextStep)
	require.Len(t, publicResp.Campaign.Prizes, 1)

	eligibilityResp, err := domain.CheckEligibility(ctx, &model.CheckEligibilityRequest{
		CampaignID: campaign.ID,
		Email:      "player@example.com",
	})
	require.NoError(t, err)
	require.True(t, eligibilityResp.Eligible)

	playResp, err := domain.Play(ctx, &model.PlayRequest{
		CampaignID: campaign.ID,
		Email:      "player@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, prize.ID, playResp.PrizeID)
	require.True(t, playResp.IsWin)
	require.Equal(t, model.StepClaim, playResp.NextStep)

	claimResp, err := domain.Claim(ctx, &model.ClaimRequest{
		PlayID: playResp.PlayID,
		Email:  "player@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, claimResp.ReferenceCode)
	require.Equal(t, model.StepRedemption, claimResp.NextStep)

	// A replayed claim must return exactly what the first one did.
	claimAgain, err := domain.Claim(ctx, &model.ClaimRequest{
		PlayID: playResp.PlayID,
		Email:  "player@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, claimResp.ReferenceCode, claimAgain.ReferenceCode)
	require.Equal(t, claimResp.ExpiresAt, claimAgain.ExpiresAt)

	redemptionResp, err := domain.GetRedemption(ctx, &model.GetRedemptionRequest{
		ReferenceCode: claimResp.ReferenceCode,
	})
	require.NoError(t, err)
	require.Equal(t, prize.Label, redemptionResp.PrizeLabel)
	require.Equal(t, "valid", redemptionResp.Status)

	// The per-email quota is exhausted now. The advisory endpoint says so
	// and a second play is refused outright.
	eligibilityResp, err = domain.CheckEligibility(ctx, &model.CheckEligibilityRequest{
		CampaignID: campaign.ID,
		Email:      "Player@Example.com",
	})
	require.NoError(t, err)
	require.False(t, eligibilityResp.Eligible)
	require.Equal(t, "per_email", eligibilityResp.Dimension)

	_, err = domain.Play(ctx, &model.PlayRequest{
		CampaignID: campaign.ID,
		Email:      "player@example.com",
	})
	require.Equal(t, errorx.QuotaExceeded, errorxCode(t, err))
}

func Test_participationDomain_Play_leadFormAutoClaims(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleCampaign(ctx, &entity.Campaign{
		RequireLeadForm: true,
		LeadFields:      entity.Array[string]{"name", "email"},
	})
	require.NoError(t, err)
	_, err = testutil.SamplePrize(ctx, campaign.ID, nil)
	require.NoError(t, err)
	_, err = testutil.SampleLimitRule(ctx, campaign.ID, nil)
	require.NoError(t, err)

	publicResp, err := domain.GetPublicCampaign(ctx, &model.GetPublicCampaignRequest{
		CampaignID: campaign.ID,
	})
	require.NoError(t, err)
	require.Equal(t, model.StepLeadCapture, publicResp.NextStep)

	// The form is enforced field by field.
	_, err = domain.Play(ctx, &model.PlayRequest{
		CampaignID: campaign.ID,
		LeadName:   "Alice",
	})
	require.Equal(t, errorx.BadRequest, errorxCode(t, err))

	// With the contact captured up front, a win claims itself and the
	// player jumps straight to redemption.
	playResp, err := domain.Play(ctx, &model.PlayRequest{
		CampaignID: campaign.ID,
		LeadName:   "Alice",
		Email:      "alice@example.com",
	})
	require.NoError(t, err)
	require.True(t, playResp.IsWin)
	require.NotEmpty(t, playResp.ReferenceCode)
	require.NotNil(t, playResp.ExpiresAt)
	require.Equal(t, model.StepRedemption, playResp.NextStep)

	record, err := repository.NewPlayRecordRepository().GetByID(ctx, playResp.PlayID)
	require.NoError(t, err)
	require.Equal(t, entity.Claimed, record.ClaimState)
	require.Equal(t, "alice@example.com", record.Email)
	require.Equal(t, "Alice", record.LeadName)
}

func Test_participationDomain_Play_losingPlaySkipsClaim(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleCampaign(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SamplePrize(ctx, campaign.ID, &entity.Prize{
		Type:    entity.PrizeNoWin,
		Payload: entity.Map{},
	})
	require.NoError(t, err)
	_, err = testutil.SampleLimitRule(ctx, campaign.ID, nil)
	require.NoError(t, err)

	playResp, err := domain.Play(ctx, &model.PlayRequest{
		CampaignID: campaign.ID,
		Email:      "loser@example.com",
	})
	require.NoError(t, err)
	require.False(t, playResp.IsWin)
	require.Empty(t, playResp.ReferenceCode)
	require.Equal(t, model.StepDone, playResp.NextStep)

	_, err = domain.Claim(ctx, &model.ClaimRequest{PlayID: playResp.PlayID})
	require.Equal(t, errorx.BadRequest, errorxCode(t, err))
}

func Test_participationDomain_draftCampaignIsHidden(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleDraftCampaign(ctx, nil)
	require.NoError(t, err)

	_, err = domain.GetPublicCampaign(ctx, &model.GetPublicCampaignRequest{CampaignID: campaign.ID})
	require.Equal(t, errorx.NotFound, errorxCode(t, err))

	_, err = domain.CheckEligibility(ctx, &model.CheckEligibilityRequest{CampaignID: campaign.ID})
	require.Equal(t, errorx.NotFound, errorxCode(t, err))

	_, err = domain.Play(ctx, &model.PlayRequest{CampaignID: campaign.ID, Email: "a@b.c"})
	require.Equal(t, errorx.NotFound, errorxCode(t, err))
}

func Test_participationDomain_Play_closedCampaign(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	ended, err := testutil.SampleCampaign(ctx, &entity.Campaign{
		StartTime: sql.NullTime{Time: time.Now().Add(-48 * time.Hour), Valid: true},
		EndTime:   sql.NullTime{Time: time.Now().Add(-24 * time.Hour), Valid: true},
	})
	require.NoError(t, err)

	_, err = domain.Play(ctx, &model.PlayRequest{CampaignID: ended.ID, Email: "a@b.c"})
	require.Equal(t, errorx.CampaignClosed, errorxCode(t, err))

	scheduled, err := testutil.SampleCampaign(ctx, &entity.Campaign{
		StartTime: sql.NullTime{Time: time.Now().Add(24 * time.Hour), Valid: true},
		EndTime:   sql.NullTime{Time: time.Now().Add(48 * time.Hour), Valid: true},
	})
	require.NoError(t, err)

	resp, err := domain.CheckEligibility(ctx, &model.CheckEligibilityRequest{
		CampaignID: scheduled.ID,
		Email:      "a@b.c",
	})
	require.NoError(t, err)
	require.False(t, resp.Eligible)
	require.Equal(t, "The campaign has not started yet", resp.Reason)
}

func Test_participationDomain_Claim_windowClosed(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleCampaign(ctx, &entity.Campaign{
		StartTime:             sql.NullTime{Time: time.Now().Add(-200 * time.Hour), Valid: true},
		EndTime:               sql.NullTime{Time: time.Now().Add(-100 * time.Hour), Valid: true},
		RedemptionWindowHours: 1,
	})
	require.NoError(t, err)
	prize, err := testutil.SamplePrize(ctx, campaign.ID, nil)
	require.NoError(t, err)

	record := &entity.PlayRecord{
		SnowFlakeBase: entity.SnowFlakeBase{ID: 7, CreatedAt: time.Now().Add(-150 * time.Hour)},
		CampaignID:    campaign.ID,
		Email:         "late@example.com",
		PrizeID:       prize.ID,
		IsWin:         true,
		ClaimState:    entity.Unclaimed,
	}
	require.NoError(t, repository.NewPlayRecordRepository().Create(ctx, record))

	_, err = domain.Claim(ctx, &model.ClaimRequest{
		PlayID: record.ID,
		Email:  "late@example.com",
	})
	require.Equal(t, errorx.ClaimExpired, errorxCode(t, err))
}

func Test_participationDomain_Claim_requiresContact(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleCampaign(ctx, nil)
	require.NoError(t, err)
	prize, err := testutil.SamplePrize(ctx, campaign.ID, nil)
	require.NoError(t, err)

	record := &entity.PlayRecord{
		SnowFlakeBase: entity.SnowFlakeBase{ID: 8, CreatedAt: time.Now()},
		CampaignID:    campaign.ID,
		DeviceID:      "device-xyz",
		PrizeID:       prize.ID,
		IsWin:         true,
		ClaimState:    entity.Unclaimed,
	}
	require.NoError(t, repository.NewPlayRecordRepository().Create(ctx, record))

	// The play was recorded for a device this request does not present.
	_, err = domain.Claim(ctx, &model.ClaimRequest{PlayID: record.ID, Email: "found-you@example.com"})
	require.Equal(t, errorx.PermissionDenied, errorxCode(t, err))

	httpReq := httptest.NewRequest(http.MethodPost, "/claim", nil)
	httpReq.Header.Set("X-Device-Id", "device-xyz")
	deviceCtx := xcontext.WithHTTPRequest(ctx, httpReq)

	// Same device, but an anonymous play still needs contact details to
	// deliver the prize.
	_, err = domain.Claim(deviceCtx, &model.ClaimRequest{PlayID: record.ID})
	require.Equal(t, errorx.BadRequest, errorxCode(t, err))

	resp, err := domain.Claim(deviceCtx, &model.ClaimRequest{
		PlayID: record.ID,
		Email:  "found-you@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ReferenceCode)
}

func Test_participationDomain_Claim_foreignPlay(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleCampaign(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SamplePrize(ctx, campaign.ID, nil)
	require.NoError(t, err)
	_, err = testutil.SampleLimitRule(ctx, campaign.ID, nil)
	require.NoError(t, err)

	playResp, err := domain.Play(ctx, &model.PlayRequest{
		CampaignID: campaign.ID,
		Email:      "winner@example.com",
	})
	require.NoError(t, err)
	require.True(t, playResp.IsWin)

	// Knowing the play id alone must not yield the reference code.
	_, err = domain.Claim(ctx, &model.ClaimRequest{PlayID: playResp.PlayID})
	require.Equal(t, errorx.PermissionDenied, errorxCode(t, err))

	_, err = domain.Claim(ctx, &model.ClaimRequest{
		PlayID: playResp.PlayID,
		Email:  "stranger@example.com",
	})
	require.Equal(t, errorx.PermissionDenied, errorxCode(t, err))

	// The email is matched after normalization, same as at play time.
	resp, err := domain.Claim(ctx, &model.ClaimRequest{
		PlayID: playResp.PlayID,
		Email:  " Winner@Example.com ",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ReferenceCode)
}

func Test_participationDomain_GetRedemption_expired(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleCampaign(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SamplePrize(ctx, campaign.ID, nil)
	require.NoError(t, err)
	_, err = testutil.SampleLimitRule(ctx, campaign.ID, nil)
	require.NoError(t, err)

	playResp, err := domain.Play(ctx, &model.PlayRequest{
		CampaignID: campaign.ID,
		Email:      "player@example.com",
	})
	require.NoError(t, err)

	claimResp, err := domain.Claim(ctx, &model.ClaimRequest{
		PlayID: playResp.PlayID,
		Email:  "player@example.com",
	})
	require.NoError(t, err)

	tx := xcontext.DB(ctx).Model(&entity.PlayRecord{}).
		Where("id=?", playResp.PlayID).
		Update("redemption_expires_at", time.Now().Add(-time.Hour))
	require.NoError(t, tx.Error)

	resp, err := domain.GetRedemption(ctx, &model.GetRedemptionRequest{
		ReferenceCode: claimResp.ReferenceCode,
	})
	require.NoError(t, err)
	require.Equal(t, "expired", resp.Status)

	_, err = domain.GetRedemption(ctx, &model.GetRedemptionRequest{ReferenceCode: "NOPE"})
	require.Equal(t, errorx.NotFound, errorxCode(t, err))
}

func Test_participationDomain_GetRedemption_survivesPrizeReplacement(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleCampaign(ctx, nil)
	require.NoError(t, err)
	prize, err := testutil.SamplePrize(ctx, campaign.ID, nil)
	require.NoError(t, err)
	_, err = testutil.SampleLimitRule(ctx, campaign.ID, nil)
	require.NoError(t, err)

	playResp, err := domain.Play(ctx, &model.PlayRequest{
		CampaignID: campaign.ID,
		Email:      "player@example.com",
	})
	require.NoError(t, err)

	claimResp, err := domain.Claim(ctx, &model.ClaimRequest{
		PlayID: playResp.PlayID,
		Email:  "player@example.com",
	})
	require.NoError(t, err)

	// The owner replaces the prize table after the code was issued.
	ownerDomain := newCampaignDomainForTest()
	_, err = ownerDomain.Update(ctx, &model.UpdateCampaignRequest{
		ID:       campaign.ID,
		Timezone: "UTC",
		Prizes: []model.Prize{
			{Label: "Brand new prize", Type: "free_shipping"},
		},
		LimitRules: []model.LimitRule{
			{Dimension: "per_email", Threshold: 1},
		},
	})
	require.NoError(t, err)

	// The issued code still resolves to the prize that was won.
	redemptionResp, err := domain.GetRedemption(ctx, &model.GetRedemptionRequest{
		ReferenceCode: claimResp.ReferenceCode,
	})
	require.NoError(t, err)
	require.Equal(t, prize.Label, redemptionResp.PrizeLabel)
	require.Equal(t, "valid", redemptionResp.Status)

	// The owner ledger keeps the historical label too.
	playsResp, err := ownerDomain.GetPlays(ctx, &model.GetCampaignPlaysRequest{
		CampaignID: campaign.ID,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, playsResp.Plays, 1)
	require.Equal(t, prize.Label, playsResp.Plays[0].PrizeLabel)
}

func Test_participationDomain_PreviewSpin(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	domain := newParticipationDomainForTest()

	campaign, err := testutil.SampleDraftCampaign(ctx, nil)
	require.NoError(t, err)
	prize, err := testutil.SamplePrize(ctx, campaign.ID, nil)
	require.NoError(t, err)

	previewResp, err := domain.PreviewSpin(ctx, &model.PreviewSpinRequest{CampaignID: campaign.ID})
	require.NoError(t, err)
	require.Equal(t, prize.ID, previewResp.PrizeID)
	require.NotEmpty(t, previewResp.PreviewID)

	resultResp, err := domain.GetPreviewResult(ctx, &model.GetPreviewResultRequest{
		CampaignID: campaign.ID,
		PreviewID:  previewResp.PreviewID,
	})
	require.NoError(t, err)
	require.Equal(t, prize.ID, resultResp.PrizeID)
	require.True(t, resultResp.IsWin)

	_, err = domain.GetPreviewResult(ctx, &model.GetPreviewResultRequest{
		CampaignID: campaign.ID,
		PreviewID:  "unknown",
	})
	require.Equal(t, errorx.NotFound, errorxCode(t, err))

	// A preview spin never reaches the ledger or the counters.
	count, err := repository.NewPlayRecordRepository().CountByCampaignID(ctx, campaign.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	// Only the owner may sandbox a campaign.
	strangerCtx := testutil.MockContextWithUserID(testutil.User2.ID)
	testutil.CreateFixtureDb(strangerCtx)
	strangerDomain := newParticipationDomainForTest()
	strangerCampaign, err := testutil.SampleDraftCampaign(strangerCtx, nil)
	require.NoError(t, err)

	_, err = strangerDomain.PreviewSpin(strangerCtx, &model.PreviewSpinRequest{
		CampaignID: strangerCampaign.ID,
	})
	require.Equal(t, errorx.PermissionDenied, errorxCode(t, err))
}
