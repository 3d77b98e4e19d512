package model

import "time"

type LockState struct {
	IsLocked      bool   `json:"is_locked"`
	CanEdit       bool   `json:"can_edit"`
	CanUnpublish  bool   `json:"can_unpublish"`
	CanReschedule bool   `json:"can_reschedule"`
	ShowUpgrade   bool   `json:"show_upgrade"`
	Reason        string `json:"reason,omitempty"`
}

type Prize struct {
	ID           string         `json:"id,omitempty"`
	Label        string         `json:"label"`
	Type         string         `json:"type"`
	Weight       int            `json:"weight"`
	Payload      map[string]any `json:"payload,omitempty"`
	Instructions string         `json:"instructions,omitempty"`
}

type LimitRule struct {
	Dimension     string `json:"dimension"`
	Threshold     int    `json:"threshold,omitempty"`
	DurationHours int    `json:"duration_hours,omitempty"`
}

type Campaign struct {
	ID                    string      `json:"id"`
	Type                  string      `json:"type"`
	State                 string      `json:"state"`
	IsPublished           bool        `json:"is_published"`
	StartTime             *time.Time  `json:"start_time,omitempty"`
	EndTime               *time.Time  `json:"end_time,omitempty"`
	Timezone              string      `json:"timezone"`
	PaymentModel          string      `json:"payment_model"`
	RedemptionWindowHours int         `json:"redemption_window_hours"`
	RequireLeadForm       bool        `json:"require_lead_form"`
	LeadFields            []string    `json:"lead_fields,omitempty"`
	Prizes                []Prize     `json:"prizes,omitempty"`
	LimitRules            []LimitRule `json:"limit_rules,omitempty"`
	Lock                  *LockState  `json:"lock,omitempty"`
}

type PlayRecord struct {
	ID                  int64      `json:"id"`
	CampaignID          string     `json:"campaign_id"`
	CreatedAt           time.Time  `json:"created_at"`
	Email               string     `json:"email,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	LeadName            string     `json:"lead_name,omitempty"`
	PrizeID             string     `json:"prize_id"`
	PrizeLabel          string     `json:"prize_label,omitempty"`
	IsWin               bool       `json:"is_win"`
	ClaimState          string     `json:"claim_state"`
	ReferenceCode       string     `json:"reference_code,omitempty"`
	RedemptionExpiresAt *time.Time `json:"redemption_expires_at,omitempty"`
}

type CreateCampaignRequest struct {
	Type                  string      `json:"type"`
	Timezone              string      `json:"timezone"`
	PaymentModel          string      `json:"payment_model"`
	StartTime             *time.Time  `json:"start_time"`
	EndTime               *time.Time  `json:"end_time"`
	RedemptionWindowHours int         `json:"redemption_window_hours"`
	RequireLeadForm       bool        `json:"require_lead_form"`
	LeadFields            []string    `json:"lead_fields"`
	Prizes                []Prize     `json:"prizes"`
	LimitRules            []LimitRule `json:"limit_rules"`
}

type CreateCampaignResponse struct {
	ID string `json:"id"`
}

type UpdateCampaignRequest struct {
	ID                    string      `json:"id"`
	Type                  string      `json:"type"`
	Timezone              string      `json:"timezone"`
	StartTime             *time.Time  `json:"start_time"`
	EndTime               *time.Time  `json:"end_time"`
	RedemptionWindowHours int         `json:"redemption_window_hours"`
	RequireLeadForm       bool        `json:"require_lead_form"`
	LeadFields            []string    `json:"lead_fields"`
	Prizes                []Prize     `json:"prizes"`
	LimitRules            []LimitRule `json:"limit_rules"`
}

type UpdateCampaignResponse struct{}

type PublishCampaignRequest struct {
	ID string `json:"id"`
}

type PublishCampaignResponse struct{}

type UnpublishCampaignRequest struct {
	ID string `json:"id"`
}

type UnpublishCampaignResponse struct{}

type PauseCampaignRequest struct {
	ID string `json:"id"`
}

type PauseCampaignResponse struct{}

type ResumeCampaignRequest struct {
	ID string `json:"id"`
}

type ResumeCampaignResponse struct{}

type RescheduleCampaignRequest struct {
	ID        string     `json:"id"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type RescheduleCampaignResponse struct{}

type DeleteCampaignRequest struct {
	ID string `json:"id"`
}

type DeleteCampaignResponse struct{}

type GetCampaignRequest struct {
	ID string `json:"id"`
}

type GetCampaignResponse struct {
	Campaign Campaign `json:"campaign"`
}

type GetMyCampaignsRequest struct{}

type GetMyCampaignsResponse struct {
	Campaigns []Campaign `json:"campaigns"`
}

type GetCampaignPlaysRequest struct {
	CampaignID string `json:"campaign_id"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
}

type GetCampaignPlaysResponse struct {
	Plays []PlayRecord `json:"plays"`
	Total int64        `json:"total"`
}
