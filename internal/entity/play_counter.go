package entity

import "time"

// PlayCounter is one quota counter row. The primary key packs the full
// counter coordinate so check-and-increment is a single guarded UPDATE.
type PlayCounter struct {
	ID string `gorm:"primarykey"`

	CampaignID string `gorm:"index"`
	Dimension  LimitDimension

	// IdentityHash is a digest of the identity value; raw emails and phone
	// numbers never land in this table.
	IdentityHash string

	// Window is the quota bucket: a calendar day, an ISO week, or the
	// all-time marker.
	Window string

	Count      int
	LastPlayAt time.Time
	UpdatedAt  time.Time
}
