package entity

import "github.com/spinwheel-lab/backend/pkg/enum"

type SubscriptionStatus string

var (
	SubscriptionActive   = enum.New(SubscriptionStatus("active"))
	SubscriptionPastDue  = enum.New(SubscriptionStatus("past_due"))
	SubscriptionCanceled = enum.New(SubscriptionStatus("canceled"))
	SubscriptionExpired  = enum.New(SubscriptionStatus("expired"))
)

// Subscription is a read-only snapshot synced from the billing service.
// Entitlement computation happens upstream; this backend only consumes the
// health status and capability flags.
type Subscription struct {
	Base

	UserID string `gorm:"uniqueIndex"`
	User   User   `gorm:"foreignKey:UserID"`

	Status SubscriptionStatus

	CanUseCustomBranding bool
	CanUseDigitalRewards bool
}
