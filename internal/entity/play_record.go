package entity

import (
	"database/sql"

	"github.com/spinwheel-lab/backend/pkg/enum"
)

type ClaimState string

var (
	Unclaimed = enum.New(ClaimState("unclaimed"))
	Claimed   = enum.New(ClaimState("claimed"))
)

// PlayRecord is created once per admitted play and is immutable except the
// one-way unclaimed to claimed transition.
type PlayRecord struct {
	SnowFlakeBase

	CampaignID string
	Campaign   Campaign `gorm:"foreignKey:CampaignID"`

	// Identity snapshot at play time. Any subset may be empty.
	Email    string
	Phone    string
	DeviceID string
	IP       string

	LeadName string

	PrizeID string
	Prize   Prize `gorm:"foreignKey:PrizeID"`
	IsWin   bool

	ClaimState ClaimState

	ReferenceCode       sql.NullString `gorm:"uniqueIndex"`
	ClaimedAt           sql.NullTime
	RedemptionExpiresAt sql.NullTime
}
