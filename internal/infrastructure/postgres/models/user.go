package models

import "time"

type UserModel struct {
	ID               string `gorm:"primaryKey"`
	Username         string
	Language         string `gorm:"size:8"`
	TradesCompleted  int
	VolumeTraded     int64
	Admin            bool
	Banned           bool
	ShowUsername     bool
	ShowVolumeTraded bool
	Disputes         int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
