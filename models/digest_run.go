package models

import (
	"time"

	"gorm.io/datatypes"
)

// DigestRun records one broadcast cycle of the free-games digest.
type DigestRun struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	RanAt            time.Time      `gorm:"index;not null" json:"ran_at"`
	OfferCount       int            `json:"offer_count"`
	Recipients       int            `json:"recipients"`
	FailedDeliveries int            `json:"failed_deliveries"`
	Offers           datatypes.JSON `json:"offers"` // []Offer snapshot
	ArchiveURL       string         `gorm:"type:text" json:"archive_url,omitempty"`
}
