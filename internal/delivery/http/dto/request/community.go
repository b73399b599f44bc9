package request

import "github.com/shopspring/decimal"

type OrderChannel struct {
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

type CreateCommunityRequest struct {
	Name           string          `json:"name"`
	Group          string          `json:"group"`
	OrderChannels  []OrderChannel  `json:"order_channels"`
	FeePercent     decimal.Decimal `json:"fee_percent"`
	Payday         int             `json:"payday"`
	DisputeChannel string          `json:"dispute_channel"`
	SolverIDs      []string        `json:"solver_ids"`
	Public         bool            `json:"public"`
	Currencies     []string        `json:"currencies"`
}

type UpdateFeeRequest struct {
	FeePercent decimal.Decimal `json:"fee_percent"`
}

type AddSolverRequest struct {
	SolverID string `json:"solver_id"`
}
