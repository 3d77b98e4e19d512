package entity

import (
	"database/sql"

	"github.com/spinwheel-lab/backend/pkg/enum"
)

type CampaignType string

var (
	CampaignSpinWheel   = enum.New(CampaignType("spin_wheel"))
	CampaignScratchCard = enum.New(CampaignType("scratch_card"))
)

// CampaignStatus is the owner-set status stored on the row. It is never
// served raw; reads always derive a CampaignState from it and the clock.
type CampaignStatus string

var (
	CampaignDraft  = enum.New(CampaignStatus("draft"))
	CampaignActive = enum.New(CampaignStatus("active"))
	CampaignPaused = enum.New(CampaignStatus("paused"))
	CampaignEnded  = enum.New(CampaignStatus("ended"))
)

// CampaignState is the derived lifecycle state. It is recomputed on every
// read and never persisted.
type CampaignState string

var (
	StateDraft     = enum.New(CampaignState("draft"))
	StateScheduled = enum.New(CampaignState("scheduled"))
	StateActive    = enum.New(CampaignState("active"))
	StatePaused    = enum.New(CampaignState("paused"))
	StateEnded     = enum.New(CampaignState("ended"))
)

type PaymentModel string

var (
	PaymentSubscription = enum.New(PaymentModel("subscription"))
	PaymentPerCampaign  = enum.New(PaymentModel("pay_per_campaign"))
)

type Campaign struct {
	Base

	CreatedBy string
	Owner     User `gorm:"foreignKey:CreatedBy"`

	Type        CampaignType
	Status      CampaignStatus
	IsPublished bool

	StartTime sql.NullTime
	EndTime   sql.NullTime

	// Timezone only affects rendering; every gate decision compares UTC.
	Timezone string

	PaymentModel PaymentModel

	RedemptionWindowHours int
	RequireLeadForm       bool
	LeadFields            Array[string]
}
