package domain

import (
	"context"
	"time"
)

type User struct {
	// ID is the identifier on the external messaging platform.
	ID               string
	Username         string
	Language         string
	TradesCompleted  int
	VolumeTraded     int64
	Admin            bool
	Banned           bool
	ShowUsername     bool
	ShowVolumeTraded bool
	Disputes         int
	CreatedAt        time.Time
}

type UserRepository interface {
	GetUserByID(ctx context.Context, userID string) (*User, error)
	// EnsureUser returns the stored user, creating it from the given value on first sight.
	EnsureUser(ctx context.Context, user *User) (*User, error)
	SaveUser(ctx context.Context, user *User) error
}
