package entity

import "github.com/spinwheel-lab/backend/pkg/enum"

type PrizeType string

var (
	PrizeDiscount      = enum.New(PrizeType("discount"))
	PrizeCoupon        = enum.New(PrizeType("coupon"))
	PrizeFreeGift      = enum.New(PrizeType("free_gift"))
	PrizeFreeShipping  = enum.New(PrizeType("free_shipping"))
	PrizeDigitalReward = enum.New(PrizeType("digital_reward"))
	PrizeHamper        = enum.New(PrizeType("hamper"))
	PrizeReward        = enum.New(PrizeType("reward"))
	PrizeNoWin         = enum.New(PrizeType("no_win"))
	PrizeCustom        = enum.New(PrizeType("custom"))
)

type Prize struct {
	Base

	CampaignID string
	Campaign   Campaign `gorm:"foreignKey:CampaignID"`

	Label string
	Type  PrizeType

	// Weight is the relative segment weight. Zero means equal share with
	// every other zero-weight prize.
	Weight int

	// Payload carries the type-specific redemption data (coupon code,
	// discount percent, download url). Decoded into a typed struct by the
	// outcome package.
	Payload Map

	Instructions string
}
