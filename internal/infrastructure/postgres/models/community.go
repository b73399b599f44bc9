package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderChannelModel struct {
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

type CommunityModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Name           string `gorm:"not null"`
	CreatorID      string `gorm:"index"`
	GroupName      string
	OrderChannels  []OrderChannelModel `gorm:"serializer:json"`
	FeePercent     decimal.Decimal     `gorm:"type:numeric"`
	Payday         int
	DisputeChannel string
	SolverIDs      []string `gorm:"serializer:json"`
	BannedUserIDs  []string `gorm:"serializer:json"`
	Public         bool     `gorm:"index"`
	Currencies     []string `gorm:"serializer:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
