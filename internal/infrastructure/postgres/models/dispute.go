package models

import (
	"time"
)

type DisputeModel struct {
	ID          string `gorm:"primaryKey"`
	OrderID     string `gorm:"index;not null;uniqueIndex:idx_open_dispute,where:solved = false"`
	InitiatorID string
	SellerID    string
	BuyerID     string
	CommunityID string
	SolverID    string
	// Solved scopes idx_open_dispute: at most one open dispute per order.
	Solved    bool       `gorm:"not null;default:false"`
	Ruling    string
	Order     OrderModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	CreatedAt time.Time
	SolvedAt  *time.Time
}
