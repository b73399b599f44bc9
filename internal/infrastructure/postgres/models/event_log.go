package models

import "time"

// EventLogModel is one row of the order audit trail.
type EventLogModel struct {
	ID         uint   `gorm:"primaryKey"`
	Type       string `gorm:"index"`
	OrderID    string `gorm:"index"`
	DisputeID  string
	FromStatus string
	ToStatus   string
	Actor      string
	OccurredAt time.Time
}
