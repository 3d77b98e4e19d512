package model

import "time"

// Flow steps the client walks through during a participation session. The
// server returns the next step with every response so the client never has to
// guess the ordering.
const (
	StepLeadCapture   = "lead_capture"
	StepPlay          = "play"
	StepOutcomeReveal = "outcome_reveal"
	StepClaim         = "claim"
	StepRedemption    = "redemption"
	StepDone          = "done"
)

type PublicPrize struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type PublicCampaign struct {
	ID              string        `json:"id"`
	Type            string        `json:"type"`
	State           string        `json:"state"`
	RequireLeadForm bool          `json:"require_lead_form"`
	LeadFields      []string      `json:"lead_fields,omitempty"`
	Prizes          []PublicPrize `json:"prizes"`
}

type GetPublicCampaignRequest struct {
	CampaignID string `json:"campaign_id"`
}

type GetPublicCampaignResponse struct {
	Campaign PublicCampaign `json:"campaign"`
	NextStep string         `json:"next_step"`
}

type CheckEligibilityRequest struct {
	CampaignID string `json:"campaign_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type CheckEligibilityResponse struct {
	Eligible  bool   `json:"eligible"`
	Dimension string `json:"dimension,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type PlayRequest struct {
	CampaignID string `json:"campaign_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	LeadName   string `json:"lead_name"`
}

type PlayResponse struct {
	PlayID        int64      `json:"play_id"`
	PrizeID       string     `json:"prize_id"`
	PrizeLabel    string     `json:"prize_label"`
	IsWin         bool       `json:"is_win"`
	Instructions  string     `json:"instructions,omitempty"`
	ReferenceCode string     `json:"reference_code,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	NextStep      string     `json:"next_step"`
}

type ClaimRequest struct {
	PlayID   int64  `json:"play_id"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LeadName string `json:"lead_name"`
}

type ClaimResponse struct {
	ReferenceCode string    `json:"reference_code"`
	ExpiresAt     time.Time `json:"expires_at"`
	NextStep      string    `json:"next_step"`
}

type GetRedemptionRequest struct {
	ReferenceCode string `json:"reference_code"`
}

type GetRedemptionResponse struct {
	PrizeLabel   string         `json:"prize_label"`
	PrizeType    string         `json:"prize_type"`
	Payload      map[string]any `json:"payload,omitempty"`
	Instructions string         `json:"instructions,omitempty"`
	Status       string         `json:"status"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

type PreviewSpinRequest struct {
	CampaignID string `json:"campaign_id"`
}

type PreviewSpinResponse struct {
	PreviewID  string `json:"preview_id"`
	PrizeID    string `json:"prize_id"`
	PrizeLabel string `json:"prize_label"`
	IsWin      bool   `json:"is_win"`
}

type GetPreviewResultRequest struct {
	CampaignID string `json:"campaign_id"`
	PreviewID  string `json:"preview_id"`
}

type GetPreviewResultResponse struct {
	PrizeID    string    `json:"prize_id"`
	PrizeLabel string    `json:"prize_label"`
	IsWin      bool      `json:"is_win"`
	CreatedAt  time.Time `json:"created_at"`
}
