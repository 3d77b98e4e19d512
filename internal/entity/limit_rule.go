package entity

import "github.com/spinwheel-lab/backend/pkg/enum"

type LimitDimension string

var (
	LimitPerEmail  = enum.New(LimitDimension("per_email"))
	LimitPerPhone  = enum.New(LimitDimension("per_phone"))
	LimitPerIP     = enum.New(LimitDimension("per_ip"))
	LimitPerDevice = enum.New(LimitDimension("per_device"))
	LimitPerDay    = enum.New(LimitDimension("per_day"))
	LimitPerWeek   = enum.New(LimitDimension("per_week"))
	LimitTotal     = enum.New(LimitDimension("total"))
	LimitCooldown  = enum.New(LimitDimension("cooldown_hours"))
)

// LimitRule is one quota dimension of a campaign. All configured rules are
// ANDed by the eligibility engine.
type LimitRule struct {
	Base

	CampaignID string
	Campaign   Campaign `gorm:"foreignKey:CampaignID"`

	Dimension LimitDimension

	// Threshold is the admitted-play ceiling for counting dimensions.
	Threshold int

	// DurationHours is only meaningful for the cooldown dimension.
	DurationHours int
}
