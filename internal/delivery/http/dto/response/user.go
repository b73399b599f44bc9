package response

import "github.com/LavaJover/shvark-p2p-service/internal/domain"

type UserResponse struct {
	ID              string `json:"id"`
	Username        string `json:"username,omitempty"`
	Language        string `json:"language"`
	TradesCompleted int    `json:"trades_completed"`
	VolumeTraded    int64  `json:"volume_traded"`
	Disputes        int    `json:"disputes"`
	Admin           bool   `json:"admin"`
	Banned          bool   `json:"banned"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Language:        u.Language,
		TradesCompleted: u.TradesCompleted,
		VolumeTraded:    u.VolumeTraded,
		Disputes:        u.Disputes,
		Admin:           u.Admin,
		Banned:          u.Banned,
	}
}
